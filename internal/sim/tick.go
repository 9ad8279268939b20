package sim

type TickReport struct {
	Day              int              `json:"day"`
	BroadcastStarted bool             `json:"broadcast_started"`
	Revenue          float64          `json:"revenue"`
	Burn             float64          `json:"burn"`
	Churned          int              `json:"churned"`
	Retained         int              `json:"retained"`
	Viral            ViralResult      `json:"viral"`
	Loans            []LoanEvent      `json:"loans,omitempty"`
	GoalsCompleted   []string         `json:"goals_completed,omitempty"`
	Bankruptcy       BankruptcyReason `json:"bankruptcy,omitempty"`
}

// ProcessDailyTick advances the economy by one day. Revenue, burn and churn
// all see the day's starting user count. Running it twice for the same day
// double-charges; callers must not.
func (e *Engine) ProcessDailyTick(c Company, loans []Loan) (Company, []Loan, TickReport) {
	rep := TickReport{Day: c.Day}
	if !c.Alive {
		return c, loans, rep
	}
	c, rep.BroadcastStarted = e.CheckAndStartBroadcast(c)
	c = c.Clone()

	d := e.difficulty(c)
	m := e.Multipliers(c)
	startUsers := c.Users

	loanMult := 1.0
	if c.LoanEffectDays > 0 && c.LoanRevenueMultiplier > 0 {
		loanMult = c.LoanRevenueMultiplier
	}
	rep.Revenue = roundCents(DailyRevenue(startUsers, c.Quality, m.RevenueMultiplier, loanMult))
	rep.Burn = roundCents(DailyBurn(startUsers, d, m))
	c.Cash = roundCents(c.Cash + rep.Revenue)
	debitCash(&c, rep.Burn)

	rep.Churned = DailyUserLoss(startUsers, Churn(c.Quality, d))
	c.Users = startUsers - rep.Churned
	rep.Retained = int(float64(c.Users) * HypeRetentionBonus(c.Hype))
	c.Users += rep.Retained

	viralityBonus := m.ViralityBonus + e.BroadcastEffects(c, CategoryMarketing).ViralityBonus
	rep.Viral = ViralGrowth(e.rng, c.Users, c.Hype, viralityBonus, m.HypeBonus)
	if rep.Viral.Triggered {
		c.Users += rep.Viral.NewUsers
		c.Hype = clampPercent(c.Hype + rep.Viral.HypeGain)
	}
	c.Hype = DecayHype(c.Hype)
	c.Virality = ViralityFromStats(c.Virality, c.Hype, c.Users, startUsers)
	if c.Users < MinUsers {
		c.Users = MinUsers
	}

	c, loans, rep.Loans = e.ProcessLoans(c, loans)
	if c.LoanEffectDays > 0 {
		c.LoanEffectDays--
		if c.LoanEffectDays == 0 {
			c.LoanRevenueMultiplier = 1
			c.LoanAnomalyBonus = 0
		}
	}

	before := make(map[string]bool, len(c.Goals))
	for _, g := range c.Goals {
		before[g.ID] = g.Completed
	}
	c.Goals = EvaluateAllGoals(c)
	for _, g := range c.Goals {
		if g.Completed && !before[g.ID] {
			rep.GoalsCompleted = append(rep.GoalsCompleted, g.ID)
		}
	}

	if reason := CheckBankruptcy(c, rep.Burn, d); reason != BankruptNone {
		rep.Bankruptcy = reason
		c.Alive = false
		c.Outcome = OutcomeBankrupt
	}
	syncProgression(&c)
	return c, loans, rep
}

type DayEnd struct {
	Tick      TickReport    `json:"tick"`
	Snapshot  StatsSnapshot `json:"snapshot"`
	Completed bool          `json:"completed"`
}

// EndDay ticks, records the day's snapshot and rolls the calendar forward.
// Unresolved events carry into the next day.
func (e *Engine) EndDay(c Company, loans []Loan) (Company, []Loan, DayEnd, error) {
	if err := c.checkActive(); err != nil {
		return c, loans, DayEnd{}, err
	}
	c, loans, rep := e.ProcessDailyTick(c, loans)
	snap := c.Snapshot(rep.Revenue, rep.Burn)
	c.StatsHistory = append(c.StatsHistory, snap)
	out := DayEnd{Tick: rep, Snapshot: snap}
	if !c.Alive {
		return c, loans, out, nil
	}

	c.Day++
	c.DailyActions = nil
	c.ActionPoints = 0
	c.Modifiers = Advisory{}
	if c.Day > e.tuning.MaxDay {
		c.Alive = false
		c.Outcome = OutcomeCompleted
		out.Completed = true
	}
	return c, loans, out, nil
}

type DayStart struct {
	Day              int           `json:"day"`
	Anomalies        []Activation  `json:"anomalies,omitempty"`
	Battle           *BossBattle   `json:"battle,omitempty"`
	Actions          []DailyAction `json:"actions"`
	ActionPoints     int           `json:"action_points"`
	BroadcastStarted bool          `json:"broadcast_started"`
}

// StartDay rolls the day's anomaly, opens the boss fight on its day and deals a fresh action set.
// It runs once per day, however the action points were spent.
func (e *Engine) StartDay(c Company, battle *BossBattle, battleID string) (Company, DayStart, error) {
	if err := c.checkActive(); err != nil {
		return c, DayStart{}, err
	}
	if c.StartedDay == c.Day {
		return c, DayStart{}, ErrDayAlreadyStarted
	}
	out := DayStart{Day: c.Day}
	c = c.Clone()
	c.Modifiers = Advisory{}

	for _, act := range e.RollDailyAnomalies(c) {
		c = e.applyActivation(c, act)
		out.Anomalies = append(out.Anomalies, act)
	}

	b, started, err := e.StartBossBattle(c, battle, battleID)
	if err != nil {
		return c, DayStart{}, err
	}
	if started {
		out.Battle = &b
	}

	c.DailyActions = e.GenerateDailyActionSet(c.Difficulty)
	c.ActionPoints = e.difficulty(c).ActionLimit
	c.StartedDay = c.Day
	c, out.BroadcastStarted = e.CheckAndStartBroadcast(c)
	out.Actions = c.DailyActions
	out.ActionPoints = c.ActionPoints
	return c, out, nil
}
