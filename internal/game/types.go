package game

import "github.com/KenThuan129/startup-simulation-game/internal/sim"

type CreateCompanyInput struct {
	OwnerID    string         `json:"owner_id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Difficulty sim.Difficulty `json:"difficulty"`
	Goals      []GoalInput    `json:"goals"`
}

type LevelReport struct {
	sim.LevelProgress
	SkillPoints      int `json:"skill_points"`
	EarnedPoints     int `json:"earned_points"`
	SpentPoints      int `json:"spent_points"`
	BonusSkillPoints int `json:"bonus_skill_points"`
}

type LoanOffers struct {
	CredibilityScore float64         `json:"credibility_score"`
	Offers           []sim.LoanOffer `json:"offers"`
	LifelineUsed     bool            `json:"lifeline_used"`
	HasActiveLoan    bool            `json:"has_active_loan"`
}

type ActionResult struct {
	Company sim.Company        `json:"company"`
	Events  []sim.PendingEvent `json:"events"`
}

type ChoiceResult struct {
	Company    sim.Company    `json:"company"`
	Resolution sim.Resolution `json:"resolution"`
}

type DayStartResult struct {
	Company sim.Company  `json:"company"`
	Start   sim.DayStart `json:"start"`
}

type DayEndResult struct {
	Company sim.Company `json:"company"`
	End     sim.DayEnd  `json:"end"`
}

type SkillResult struct {
	Company  sim.Company        `json:"company"`
	Upgrades []sim.SkillUpgrade `json:"upgrades,omitempty"`
}

type LoanResult struct {
	Company sim.Company  `json:"company"`
	Loan    sim.Loan     `json:"loan"`
	Payment *sim.Payment `json:"payment,omitempty"`
}

type BossResult struct {
	Company sim.Company    `json:"company"`
	Battle  sim.BossBattle `json:"battle"`
	Turn    sim.TurnResult `json:"turn"`
}
