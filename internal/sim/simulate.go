package sim

import (
	"fmt"
	"math"
)

type SimulationConfig struct {
	Difficulty Difficulty `json:"difficulty"`
	Companies  int        `json:"companies"`
	Days       int        `json:"days"`
	Seed       int64      `json:"seed"`
	Role       string     `json:"role,omitempty"`
	Lifeline   bool       `json:"lifeline"`
}

type DayRecord struct {
	CompanyID string        `json:"company_id"`
	Day       int           `json:"day"`
	Snapshot  StatsSnapshot `json:"snapshot"`
	Tick      TickReport    `json:"tick"`
	Anomalies []string      `json:"anomalies,omitempty"`
	Actions   []string      `json:"actions,omitempty"`
	Outcomes  []OutcomeType `json:"outcomes,omitempty"`
	Boss      *TurnResult   `json:"boss,omitempty"`
	Alive     bool          `json:"alive"`
}

// Recorder receives one record per simulated company-day.
type Recorder interface {
	Record(DayRecord) error
}

type CompanyResult struct {
	ID       string       `json:"id"`
	Outcome  Outcome      `json:"outcome"`
	Day      int          `json:"day"`
	Cash     float64      `json:"cash"`
	Users    int          `json:"users"`
	Level    int          `json:"level"`
	Boss     BattleStatus `json:"boss,omitempty"`
	TookLoan bool         `json:"took_loan"`
}

type SimulationResult struct {
	Config       SimulationConfig `json:"config"`
	Companies    []CompanyResult  `json:"companies"`
	Survived     int              `json:"survived"`
	SurvivalRate float64          `json:"survival_rate"`
	AvgCash      float64          `json:"avg_cash"`
	AvgUsers     float64          `json:"avg_users"`
	AvgLevel     float64          `json:"avg_level"`
	BossWins     int              `json:"boss_wins"`
}

const maxBossTurns = 30

// Simulate plays cfg.Companies automated runs. Every random draw comes from one
// seeded source so equal configs give equal results.
func Simulate(catalog Catalog, tuning Tuning, cfg SimulationConfig, rec Recorder) (SimulationResult, error) {
	if cfg.Companies <= 0 {
		cfg.Companies = 1
	}
	if cfg.Days <= 0 {
		cfg.Days = tuning.MaxDay
	}
	if !ValidDifficulty(cfg.Difficulty) {
		cfg.Difficulty = DifficultyNormal
	}
	eng := NewEngine(catalog, tuning, NewRand(cfg.Seed))
	res := SimulationResult{Config: cfg}

	for i := 0; i < cfg.Companies; i++ {
		cr, err := eng.simulateCompany(i, cfg, rec)
		if err != nil {
			return res, err
		}
		res.Companies = append(res.Companies, cr)
	}

	var cash, users, level float64
	for _, cr := range res.Companies {
		if cr.Outcome == OutcomeActive || cr.Outcome == OutcomeCompleted {
			res.Survived++
		}
		if cr.Boss == BattleWon {
			res.BossWins++
		}
		cash += cr.Cash
		users += float64(cr.Users)
		level += float64(cr.Level)
	}
	n := float64(len(res.Companies))
	res.SurvivalRate = float64(res.Survived) / n
	res.AvgCash = roundCents(cash / n)
	res.AvgUsers = math.Round(users/n*100) / 100
	res.AvgLevel = math.Round(level/n*100) / 100
	return res, nil
}

func (e *Engine) simulateCompany(idx int, cfg SimulationConfig, rec Recorder) (CompanyResult, error) {
	c := NewCompany(NewCompanyParams{
		ID:         fmt.Sprintf("sim-%04d", idx+1),
		Name:       fmt.Sprintf("Sim Startup %d", idx+1),
		Difficulty: cfg.Difficulty,
		Role:       cfg.Role,
		Goals: []Goal{
			{ID: "users", Type: GoalReachUsers, Target: 1000},
			{ID: "survive", Type: GoalSurviveDays, Target: float64(cfg.Days)},
		},
	}, e.tuning)
	var loans []Loan
	var battle *BossBattle
	cr := CompanyResult{ID: c.ID}

	for c.Alive && c.Day <= cfg.Days {
		day := DayRecord{CompanyID: c.ID, Day: c.Day}
		var start DayStart
		var err error
		c, start, err = e.StartDay(c, battle, fmt.Sprintf("%s-boss", c.ID))
		if err != nil {
			return cr, err
		}
		for _, a := range start.Anomalies {
			day.Anomalies = append(day.Anomalies, a.Anomaly.ID)
		}
		if start.Battle != nil {
			battle = start.Battle
			c, *battle, day.Boss = e.autoFight(c, *battle)
		}
		if !c.Alive {
			day.Snapshot = c.Snapshot(0, 0)
			if err := record(rec, day); err != nil {
				return cr, err
			}
			break
		}

		c, day.Actions, day.Outcomes = e.autoPlay(c)
		if c, _, err = e.AutoAllocate(c); err != nil {
			return cr, err
		}
		if cfg.Lifeline && c.Cash < e.difficulty(c).BaseBurn*3 && !c.LifelineUsed {
			offers := GenerateLoanOffers(CredibilityScore(c))
			var loan Loan
			c, loan, err = e.AcceptLoan(c, offers[0], loans, fmt.Sprintf("%s-loan", c.ID))
			if err == nil {
				loans = append(loans, loan)
				cr.TookLoan = true
			}
		}

		var end DayEnd
		c, loans, end, err = e.EndDay(c, loans)
		if err != nil {
			return cr, err
		}
		day.Snapshot = end.Snapshot
		day.Tick = end.Tick
		day.Alive = c.Alive
		if err := record(rec, day); err != nil {
			return cr, err
		}
	}

	cr.Outcome = c.Outcome
	cr.Day = c.Day
	cr.Cash = c.Cash
	cr.Users = c.Users
	cr.Level = c.Level
	if battle != nil {
		cr.Boss = battle.Status
	}
	return cr, nil
}

func record(rec Recorder, d DayRecord) error {
	if rec == nil {
		return nil
	}
	return rec.Record(d)
}

// autoPlay clears carried-over events, then takes random affordable actions
// and resolves each event with a rolled outcome until action points run out.
func (e *Engine) autoPlay(c Company) (Company, []string, []OutcomeType) {
	var actions []string
	var outcomes []OutcomeType
	resolve := func() {
		for len(c.PendingEvents) > 0 {
			ev := c.PendingEvents[0]
			if ev.ActionID != BroadcastSpecialAction && c.ActionPoints <= 0 {
				return
			}
			want := e.rollOutcome(c, ev.Category, e.Multipliers(c))
			choiceID := ev.Choices[0].ID
			for _, ch := range ev.Choices {
				if ch.Type == want {
					choiceID = ch.ID
					break
				}
			}
			next, res, err := e.ResolveChoice(c, ev.EventID, choiceID)
			if err != nil {
				return
			}
			c = next
			outcomes = append(outcomes, res.Choice.Type)
			if !c.Alive {
				return
			}
		}
	}

	resolve()
	for c.Alive && c.ActionPoints > 0 {
		var open []DailyAction
		for _, a := range c.DailyActions {
			if a.Selected || a.Cost > c.ActionPoints || a.Category == c.Modifiers.LockedCategory {
				continue
			}
			open = append(open, a)
		}
		if len(open) == 0 {
			break
		}
		pick := open[e.rng.Intn(len(open))]
		next, _, err := e.TakeAction(c, pick.ActionID)
		if err != nil {
			break
		}
		c = next
		actions = append(actions, pick.ActionID)
		resolve()
	}
	return c, actions, outcomes
}

// autoFight attacks while cash allows, falling back to defend then an XP special.
func (e *Engine) autoFight(c Company, b BossBattle) (Company, BossBattle, *TurnResult) {
	var last *TurnResult
	for turn := 0; turn < maxBossTurns && b.Status == BattleActive && c.Alive; turn++ {
		var move PlayerMove
		var cost SpecialCost
		switch {
		case c.XP >= DefaultSpecialCost.XP*2:
			move, cost = MoveSpecial, DefaultSpecialCost
		case c.Cash >= attackCashCost*2:
			move = MoveAttack
		case c.Cash >= defendCashCost:
			move = MoveDefend
		case c.XP >= DefaultSpecialCost.XP:
			move, cost = MoveSpecial, DefaultSpecialCost
		default:
			b = ExpireBossBattle(b)
			return c, b, last
		}
		next, nb, res, err := e.ExecuteBossAction(c, b, move, cost)
		if err != nil {
			b = ExpireBossBattle(b)
			return c, b, last
		}
		c, b = next, nb
		last = &res
	}
	if b.Status == BattleActive {
		b = ExpireBossBattle(b)
	}
	return c, b, last
}
