package sim

import "time"

type Difficulty string

const (
	DifficultyEasy         Difficulty = "easy"
	DifficultyNormal       Difficulty = "normal"
	DifficultyHard         Difficulty = "hard"
	DifficultyAnotherStory Difficulty = "another_story"
)

func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyAnotherStory}
}

type Category string

const (
	CategoryProduct     Category = "product"
	CategoryMarketing   Category = "marketing"
	CategoryTech        Category = "tech"
	CategoryBusinessDev Category = "business_dev"
	CategoryOperations  Category = "operations"
	CategoryFinance     Category = "finance"
	CategoryResearch    Category = "research"
	CategoryHighRisk    Category = "high_risk"
)

func Categories() []Category {
	return []Category{
		CategoryProduct, CategoryMarketing, CategoryTech, CategoryBusinessDev,
		CategoryOperations, CategoryFinance, CategoryResearch, CategoryHighRisk,
	}
}

type Tree string

const (
	TreeProduct    Tree = "product"
	TreeMarketing  Tree = "marketing"
	TreeFinance    Tree = "finance"
	TreeTechnology Tree = "technology"
)

// TreeForCategory maps an action category onto the skill tree its role bonus comes from.
func TreeForCategory(c Category) Tree {
	switch c {
	case CategoryMarketing, CategoryBusinessDev:
		return TreeMarketing
	case CategoryFinance, CategoryOperations:
		return TreeFinance
	case CategoryTech, CategoryResearch:
		return TreeTechnology
	default:
		return TreeProduct
	}
}

type OutcomeType string

const (
	OutcomeCriticalSuccess OutcomeType = "critical_success"
	OutcomeSuccess         OutcomeType = "success"
	OutcomeFailure         OutcomeType = "failure"
	OutcomeCriticalFailure OutcomeType = "critical_failure"
)

func OutcomeTypes() []OutcomeType {
	return []OutcomeType{OutcomeCriticalSuccess, OutcomeSuccess, OutcomeFailure, OutcomeCriticalFailure}
}

func (o OutcomeType) Valid() bool {
	switch o {
	case OutcomeCriticalSuccess, OutcomeSuccess, OutcomeFailure, OutcomeCriticalFailure:
		return true
	}
	return false
}

// Effects is a sparse delta bundle. Every subsystem mutates a Company through one.
type Effects struct {
	Cash    float64        `json:"cash,omitempty" yaml:"cash,omitempty"`
	Users   int            `json:"users,omitempty" yaml:"users,omitempty"`
	Quality float64        `json:"quality,omitempty" yaml:"quality,omitempty"`
	Hype    float64        `json:"hype,omitempty" yaml:"hype,omitempty"`
	XP      int            `json:"xp,omitempty" yaml:"xp,omitempty"`
	Skills  map[string]int `json:"skills,omitempty" yaml:"skills,omitempty"`
	Flags   []string       `json:"flags,omitempty" yaml:"flags,omitempty"`
}

func (e Effects) HasFlag(flag string) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

type ActionDef struct {
	ID          string   `json:"id" yaml:"id"`
	Category    Category `json:"category" yaml:"category"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	EventPool   []string `json:"event_pool" yaml:"event_pool"`
	Weight      int      `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Cost is the action-point weight, defaulting to 1.
func (a ActionDef) Cost() int {
	if a.Weight <= 0 {
		return 1
	}
	return a.Weight
}

type ChoiceDef struct {
	ID      string      `json:"id" yaml:"id"`
	Type    OutcomeType `json:"type" yaml:"type"`
	Text    string      `json:"text" yaml:"text"`
	Effects Effects     `json:"effects" yaml:"effects"`
}

type EventDef struct {
	ID          string      `json:"id" yaml:"id"`
	Category    Category    `json:"category" yaml:"category"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Choices     []ChoiceDef `json:"choices" yaml:"choices"`
}

type AnomalyDef struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Effects     Effects  `json:"effects" yaml:"effects"`
	Triggers    []string `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	Flags       []string `json:"flags,omitempty" yaml:"flags,omitempty"`
}

func (a AnomalyDef) hasTag(tag string) bool {
	for _, t := range a.Triggers {
		if t == tag {
			return true
		}
	}
	return false
}

func (a AnomalyDef) hasFlag(flag string) bool {
	for _, f := range a.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

type SkillEffects struct {
	RevenueMultiplier float64 `json:"revenue_multiplier,omitempty" yaml:"revenue_multiplier,omitempty"`
	ViralityBonus     float64 `json:"virality_bonus,omitempty" yaml:"virality_bonus,omitempty"`
	ConversionBonus   float64 `json:"conversion_bonus,omitempty" yaml:"conversion_bonus,omitempty"`
	CostReduction     float64 `json:"cost_reduction,omitempty" yaml:"cost_reduction,omitempty"`
	EventOutcomeBonus float64 `json:"event_outcome_bonus,omitempty" yaml:"event_outcome_bonus,omitempty"`
}

type SkillDef struct {
	ID          string       `json:"id" yaml:"id"`
	Tree        Tree         `json:"tree" yaml:"tree"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	MaxLevel    int          `json:"max_level" yaml:"max_level"`
	Effects     SkillEffects `json:"effects" yaml:"effects"`
}

type RoleDef struct {
	ID                string           `json:"id" yaml:"id"`
	Name              string           `json:"name" yaml:"name"`
	Description       string           `json:"description" yaml:"description"`
	Strengths         []string         `json:"strengths,omitempty" yaml:"strengths,omitempty"`
	Weaknesses        []string         `json:"weaknesses,omitempty" yaml:"weaknesses,omitempty"`
	XPMultiplier      float64          `json:"xp_multiplier,omitempty" yaml:"xp_multiplier,omitempty"`
	EventOutcomeBonus float64          `json:"event_outcome_bonus,omitempty" yaml:"event_outcome_bonus,omitempty"`
	APCostReduction   float64          `json:"ap_cost_reduction,omitempty" yaml:"ap_cost_reduction,omitempty"`
	SkillTreeBonuses  map[Tree]float64 `json:"skill_tree_bonuses,omitempty" yaml:"skill_tree_bonuses,omitempty"`
}

type CategoryBoost struct {
	XPMultiplier     float64 `json:"xp_multiplier,omitempty" yaml:"xp_multiplier,omitempty"`
	SuccessRateBonus float64 `json:"success_rate_bonus,omitempty" yaml:"success_rate_bonus,omitempty"`
	ViralityBonus    float64 `json:"virality_bonus,omitempty" yaml:"virality_bonus,omitempty"`
}

type BroadcastDef struct {
	ID                 string                     `json:"id" yaml:"id"`
	Name               string                     `json:"name" yaml:"name"`
	Description        string                     `json:"description" yaml:"description"`
	Effects            map[Category]CategoryBoost `json:"effects,omitempty" yaml:"effects,omitempty"`
	SpecialEventChance float64                    `json:"special_event_chance" yaml:"special_event_chance"`
	SpecialEvents      []string                   `json:"special_events,omitempty" yaml:"special_events,omitempty"`
}

type BossMoveKind string

const (
	BossMoveAttack   BossMoveKind = "attack"
	BossMoveSabotage BossMoveKind = "sabotage"
)

type BossMove struct {
	ID          string       `json:"id" yaml:"id"`
	Kind        BossMoveKind `json:"kind" yaml:"kind"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	Effects     Effects      `json:"effects" yaml:"effects"`
}

type BossTemplate struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Difficulty  Difficulty  `json:"difficulty" yaml:"difficulty"`
	CompanyType string      `json:"company_type" yaml:"company_type"`
	MaxHealth   int         `json:"max_health" yaml:"max_health"`
	Moves       []BossMove  `json:"moves" yaml:"moves"`
	Rewards     BossRewards `json:"rewards" yaml:"rewards"`
}

type BossRewards struct {
	Cash        float64  `json:"cash" yaml:"cash"`
	Investors   []string `json:"investors,omitempty" yaml:"investors,omitempty"`
	Quality     float64  `json:"quality,omitempty" yaml:"quality,omitempty"`
	SkillPoints int      `json:"skill_points,omitempty" yaml:"skill_points,omitempty"`
}

// Catalog is the read-only content repository the engine consults.
type Catalog interface {
	Action(id string) (ActionDef, bool)
	ActionsByCategory(c Category) []ActionDef
	Event(id string) (EventDef, bool)
	Anomalies() []AnomalyDef
	Skill(id string) (SkillDef, bool)
	Skills() []SkillDef
	Role(id string) (RoleDef, bool)
	Broadcast(id string) (BroadcastDef, bool)
	Broadcasts() []BroadcastDef
	BossTemplate(d Difficulty, companyType string) (BossTemplate, bool)
}

type DifficultyConfig struct {
	ActionLimit    int     `json:"action_limit" yaml:"action_limit"`
	RetentionBonus float64 `json:"retention_bonus" yaml:"retention_bonus"`
	ChurnPenalty   float64 `json:"churn_penalty" yaml:"churn_penalty"`
	BurnMultiplier float64 `json:"burn_multiplier" yaml:"burn_multiplier"`
	PositiveBias   float64 `json:"positive_bias" yaml:"positive_bias"`
	BaseBurn       float64 `json:"base_burn" yaml:"base_burn"`
	InitialCash    float64 `json:"initial_cash" yaml:"initial_cash"`
}

// Tuning holds the campaign-wide constants.
type Tuning struct {
	MaxDay            int                             `json:"max_day" yaml:"max_day"`
	BossDay           int                             `json:"boss_day" yaml:"boss_day"`
	AnomalyChance     float64                         `json:"anomaly_chance" yaml:"anomaly_chance"`
	BroadcastStartDay int                             `json:"broadcast_start_day" yaml:"broadcast_start_day"`
	BroadcastDuration int                             `json:"broadcast_duration" yaml:"broadcast_duration"`
	BossTurnTimeout   time.Duration                   `json:"boss_turn_timeout" yaml:"boss_turn_timeout"`
	Difficulties      map[Difficulty]DifficultyConfig `json:"difficulties" yaml:"difficulties"`
}

func DefaultTuning() Tuning {
	return Tuning{
		MaxDay:            90,
		BossDay:           45,
		AnomalyChance:     0.25,
		BroadcastStartDay: 3,
		BroadcastDuration: 10,
		BossTurnTimeout:   24 * time.Hour,
		Difficulties: map[Difficulty]DifficultyConfig{
			DifficultyEasy:         {ActionLimit: 5, RetentionBonus: 0.05, ChurnPenalty: -0.02, BurnMultiplier: 0.9, PositiveBias: 0.20, BaseBurn: 80, InitialCash: 15000},
			DifficultyNormal:       {ActionLimit: 4, RetentionBonus: 0, ChurnPenalty: 0, BurnMultiplier: 1.0, PositiveBias: 0, BaseBurn: 100, InitialCash: 10000},
			DifficultyHard:         {ActionLimit: 3, RetentionBonus: -0.05, ChurnPenalty: 0.02, BurnMultiplier: 1.15, PositiveBias: -0.10, BaseBurn: 120, InitialCash: 8000},
			DifficultyAnotherStory: {ActionLimit: 3, RetentionBonus: -0.08, ChurnPenalty: 0.03, BurnMultiplier: 1.25, PositiveBias: -0.15, BaseBurn: 140, InitialCash: 6000},
		},
	}
}

// Difficulty returns the config for d, falling back to normal.
func (t Tuning) Difficulty(d Difficulty) DifficultyConfig {
	if cfg, ok := t.Difficulties[d]; ok {
		return cfg
	}
	if cfg, ok := t.Difficulties[DifficultyNormal]; ok {
		return cfg
	}
	return DefaultTuning().Difficulties[DifficultyNormal]
}

func ValidDifficulty(d Difficulty) bool {
	for _, v := range Difficulties() {
		if v == d {
			return true
		}
	}
	return false
}
