package sim

import "maps"

const (
	MinUsers   = 5
	MaxLevel   = 50
	MaxPercent = 100.0
)

type Outcome string

const (
	OutcomeActive    Outcome = "active"
	OutcomeBankrupt  Outcome = "bankrupt"
	OutcomeDefeated  Outcome = "defeated"
	OutcomeCompleted Outcome = "completed"
	OutcomeAbandoned Outcome = "abandoned"
)

type GoalType string

const (
	GoalReachUsers        GoalType = "reach_users"
	GoalReachCash         GoalType = "reach_cash"
	GoalReachQuality      GoalType = "reach_quality"
	GoalReachHype         GoalType = "reach_hype"
	GoalReachVirality     GoalType = "reach_virality"
	GoalReachDailyRevenue GoalType = "reach_daily_revenue"
	GoalReachSkillLevel   GoalType = "reach_skill_level"
	GoalSurviveDays       GoalType = "survive_days"
)

func GoalTypes() []GoalType {
	return []GoalType{
		GoalReachUsers, GoalReachCash, GoalReachQuality, GoalReachHype,
		GoalReachVirality, GoalReachDailyRevenue, GoalReachSkillLevel, GoalSurviveDays,
	}
}

func ValidGoalType(t GoalType) bool {
	for _, v := range GoalTypes() {
		if v == t {
			return true
		}
	}
	return false
}

type Goal struct {
	ID        string   `json:"id"`
	Type      GoalType `json:"type"`
	Target    float64  `json:"target"`
	Progress  float64  `json:"progress"`
	Completed bool     `json:"completed"`
}

type StatsSnapshot struct {
	Day      int     `json:"day"`
	Cash     float64 `json:"cash"`
	Users    int     `json:"users"`
	Quality  float64 `json:"quality"`
	Hype     float64 `json:"hype"`
	Virality float64 `json:"virality"`
	Revenue  float64 `json:"revenue"`
	Burn     float64 `json:"burn"`
	XP       int     `json:"xp"`
	Level    int     `json:"level"`
}

type DailyAction struct {
	ActionID    string   `json:"action_id"`
	Category    Category `json:"category"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Cost        int      `json:"cost"`
	Selected    bool     `json:"selected"`
}

// EventChoice is one option of a pending event. Type stays hidden from players until Revealed.
type EventChoice struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Type     OutcomeType `json:"type"`
	Text     string      `json:"text"`
	Effects  Effects     `json:"effects"`
	Revealed bool        `json:"revealed"`
}

type PendingEvent struct {
	EventID     string        `json:"event_id"`
	ActionID    string        `json:"action_id"`
	Category    Category      `json:"category"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Choices     []EventChoice `json:"choices"`
}

type Company struct {
	ID                    string            `json:"id"`
	OwnerID               string            `json:"owner_id"`
	Name                  string            `json:"name"`
	Type                  string            `json:"type"`
	Difficulty            Difficulty        `json:"difficulty"`
	Role                  string            `json:"role,omitempty"`
	Day                   int               `json:"day"`
	Cash                  float64           `json:"cash"`
	Users                 int               `json:"users"`
	Quality               float64           `json:"quality"`
	Hype                  float64           `json:"hype"`
	Virality              float64           `json:"virality"`
	XP                    int               `json:"xp"`
	Level                 int               `json:"level"`
	SkillPoints           int               `json:"skill_points"`
	SkillPointsSpent      int               `json:"skill_points_spent"`
	BonusSkillPoints      int               `json:"bonus_skill_points"`
	Skills                map[string]int    `json:"skills"`
	Goals                 []Goal            `json:"goals"`
	LoanIDs               []string          `json:"loan_ids"`
	Alive                 bool              `json:"alive"`
	Outcome               Outcome           `json:"outcome"`
	StatsHistory          []StatsSnapshot   `json:"stats_history"`
	BroadcastID           string            `json:"broadcast_id,omitempty"`
	BroadcastStartDay     int               `json:"broadcast_start_day,omitempty"`
	PendingEvents         []PendingEvent    `json:"pending_events"`
	DailyActions          []DailyAction     `json:"daily_actions"`
	ActionPoints          int               `json:"action_points"`
	StartedDay            int               `json:"started_day,omitempty"`
	LifelineUsed          bool              `json:"lifeline_used"`
	LoanEffectDays        int               `json:"loan_effect_days"`
	LoanRevenueMultiplier float64           `json:"loan_revenue_multiplier"`
	LoanAnomalyBonus      float64           `json:"loan_anomaly_bonus"`
	Investors             []string          `json:"investors,omitempty"`
	Modifiers             Advisory          `json:"modifiers"`
	Version               int64             `json:"version"`
}

type NewCompanyParams struct {
	ID         string
	OwnerID    string
	Name       string
	Type       string
	Difficulty Difficulty
	Role       string
	Goals      []Goal
}

// NewCompany builds a day-1 company with the difficulty's starting cash.
func NewCompany(p NewCompanyParams, tuning Tuning) Company {
	diff := tuning.Difficulty(p.Difficulty)
	typ := p.Type
	if typ == "" {
		typ = "saas"
	}
	goals := make([]Goal, len(p.Goals))
	copy(goals, p.Goals)
	c := Company{
		ID:                    p.ID,
		OwnerID:               p.OwnerID,
		Name:                  p.Name,
		Type:                  typ,
		Difficulty:            p.Difficulty,
		Role:                  p.Role,
		Day:                   1,
		Cash:                  diff.InitialCash,
		Users:                 MinUsers,
		Quality:               50,
		Level:                 1,
		Skills:                map[string]int{},
		Goals:                 goals,
		Alive:                 true,
		Outcome:               OutcomeActive,
		LoanRevenueMultiplier: 1,
		ActionPoints:          diff.ActionLimit,
	}
	return c
}

// Clone returns a deep copy so callers can treat snapshots as values.
func (c Company) Clone() Company {
	out := c
	out.Skills = maps.Clone(c.Skills)
	if out.Skills == nil {
		out.Skills = map[string]int{}
	}
	out.Goals = append([]Goal(nil), c.Goals...)
	out.LoanIDs = append([]string(nil), c.LoanIDs...)
	out.StatsHistory = append([]StatsSnapshot(nil), c.StatsHistory...)
	out.DailyActions = append([]DailyAction(nil), c.DailyActions...)
	out.Investors = append([]string(nil), c.Investors...)
	out.PendingEvents = make([]PendingEvent, len(c.PendingEvents))
	for i, ev := range c.PendingEvents {
		ev.Choices = append([]EventChoice(nil), ev.Choices...)
		out.PendingEvents[i] = ev
	}
	return out
}

func (c Company) TotalSkillLevels() int {
	total := 0
	for _, lvl := range c.Skills {
		total += lvl
	}
	return total
}

func (c Company) Snapshot(revenue, burn float64) StatsSnapshot {
	return StatsSnapshot{
		Day:      c.Day,
		Cash:     c.Cash,
		Users:    c.Users,
		Quality:  c.Quality,
		Hype:     c.Hype,
		Virality: c.Virality,
		Revenue:  revenue,
		Burn:     burn,
		XP:       c.XP,
		Level:    c.Level,
	}
}

func (c Company) PendingEvent(eventID string) (PendingEvent, int, bool) {
	for i, ev := range c.PendingEvents {
		if ev.EventID == eventID {
			return ev, i, true
		}
	}
	return PendingEvent{}, -1, false
}

func (c Company) checkActive() error {
	if !c.Alive {
		return ErrCompanyInactive
	}
	return nil
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxPercent {
		return MaxPercent
	}
	return v
}

func clampFloat(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
