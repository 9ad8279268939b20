package sim

import "sort"

type Multipliers struct {
	RevenueMultiplier float64 `json:"revenue_multiplier"`
	ViralityBonus     float64 `json:"virality_bonus"`
	ConversionBonus   float64 `json:"conversion_bonus"`
	CostReduction     float64 `json:"cost_reduction"`
	EventOutcomeBonus float64 `json:"event_outcome_bonus"`
	QualityGainBonus  float64 `json:"quality_gain_bonus"`
	HypeBonus         float64 `json:"hype_bonus"`
	BurnReduction     float64 `json:"burn_reduction"`
	OutageReduction   float64 `json:"outage_reduction"`
}

func (e *Engine) RoleXPMultiplier(roleID string) float64 {
	if roleID == "" || e.catalog == nil {
		return 1
	}
	role, ok := e.catalog.Role(roleID)
	if !ok || role.XPMultiplier <= 0 {
		return 1
	}
	return role.XPMultiplier
}

func (e *Engine) roleTreeBonus(roleID string, tree Tree) float64 {
	if roleID == "" || e.catalog == nil {
		return 1
	}
	role, ok := e.catalog.Role(roleID)
	if !ok {
		return 1
	}
	if b, ok := role.SkillTreeBonuses[tree]; ok && b > 0 {
		return b
	}
	return 1
}

func (e *Engine) roleOutcomeBonus(roleID string) float64 {
	if roleID == "" || e.catalog == nil {
		return 0
	}
	role, _ := e.catalog.Role(roleID)
	return role.EventOutcomeBonus
}

// Multipliers aggregates every skill level into economic modifiers.
// A role's tree bonus scales the effective level of skills in that tree.
func (e *Engine) Multipliers(c Company) Multipliers {
	m := Multipliers{RevenueMultiplier: 1}
	if e.catalog == nil {
		return m
	}
	ids := make([]string, 0, len(c.Skills))
	for id := range c.Skills {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		def, ok := e.catalog.Skill(id)
		if !ok {
			continue
		}
		lvl := float64(c.Skills[id]) * e.roleTreeBonus(c.Role, def.Tree)
		if lvl <= 0 {
			continue
		}
		fx := def.Effects
		switch def.Tree {
		case TreeProduct:
			m.QualityGainBonus += 0.005 * lvl
			m.CostReduction += 0.03 * lvl
		case TreeMarketing:
			m.HypeBonus += 0.02 * lvl
			m.ViralityBonus += fx.ViralityBonus * lvl
			m.CostReduction += 0.05 * lvl
		case TreeFinance:
			m.BurnReduction += 0.02 * lvl
			m.CostReduction += fx.CostReduction * lvl
		case TreeTechnology:
			m.CostReduction += 0.05 * lvl
			m.OutageReduction += 0.02 * lvl
		}
		if fx.RevenueMultiplier != 0 {
			m.RevenueMultiplier *= 1 + fx.RevenueMultiplier*lvl
		}
		if def.Tree != TreeMarketing {
			m.ViralityBonus += fx.ViralityBonus * lvl
		}
		m.ConversionBonus += fx.ConversionBonus * lvl
		m.EventOutcomeBonus += fx.EventOutcomeBonus * lvl
	}
	return m
}

// SpendSkillPoints buys levels of a skill. It is the only path that raises SkillPointsSpent.
func (e *Engine) SpendSkillPoints(c Company, skillID string, levels int) (Company, error) {
	if err := c.checkActive(); err != nil {
		return c, err
	}
	if levels <= 0 {
		return c, ErrInvalidAmount
	}
	def, ok := e.catalog.Skill(skillID)
	if !ok {
		return c, ErrUnknownSkill
	}
	info := RecalculateLevelAndSkillPoints(c)
	if levels > info.Available {
		return c, fail(ErrInsufficientSkillPoints, float64(levels), float64(info.Available))
	}
	current := c.Skills[skillID]
	if current+levels > def.MaxLevel {
		return c, fail(ErrSkillMaxed, float64(current+levels), float64(def.MaxLevel))
	}

	c = c.Clone()
	c.Skills[skillID] = current + levels
	c.SkillPointsSpent += levels
	syncProgression(&c)
	return c, nil
}

type SkillUpgrade struct {
	SkillID  string  `json:"skill_id"`
	NewLevel int     `json:"new_level"`
	Weight   float64 `json:"weight"`
}

var goalTreeWeights = map[GoalType]map[Tree]float64{
	GoalReachUsers:        {TreeMarketing: 2, TreeProduct: 2},
	GoalReachCash:         {TreeFinance: 1.5, TreeProduct: 1.5},
	GoalReachQuality:      {TreeProduct: 2, TreeTechnology: 2},
	GoalReachHype:         {TreeMarketing: 3},
	GoalReachVirality:     {TreeMarketing: 3},
	GoalReachDailyRevenue: {TreeFinance: 2, TreeProduct: 2},
	GoalReachSkillLevel:   {TreeProduct: 1, TreeMarketing: 1, TreeFinance: 1, TreeTechnology: 1},
}

// AutoAllocate spends all available points on the skills that best serve unfinished goals.
func (e *Engine) AutoAllocate(c Company) (Company, []SkillUpgrade, error) {
	if err := c.checkActive(); err != nil {
		return c, nil, err
	}
	available := RecalculateLevelAndSkillPoints(c).Available
	if available == 0 {
		return c, nil, nil
	}

	type candidate struct {
		def    SkillDef
		weight float64
	}
	goals := EvaluateAllGoals(c)
	var cands []candidate
	for _, def := range e.catalog.Skills() {
		if c.Skills[def.ID] >= def.MaxLevel {
			continue
		}
		weight := 0.0
		for _, g := range goals {
			if g.Completed {
				continue
			}
			remaining := 100 - GoalProgressPercent(g)
			if remaining <= 0 {
				continue
			}
			weight += remaining * goalTreeWeights[g.Type][def.Tree]
		}
		if weight > 0 {
			cands = append(cands, candidate{def: def, weight: weight})
		}
	}
	if len(cands) == 0 {
		return c, nil, nil
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].weight != cands[j].weight {
			return cands[i].weight > cands[j].weight
		}
		return cands[i].def.ID < cands[j].def.ID
	})

	c = c.Clone()
	var upgrades []SkillUpgrade
	for available > 0 {
		progressed := false
		for _, cand := range cands {
			if available == 0 {
				break
			}
			if c.Skills[cand.def.ID] >= cand.def.MaxLevel {
				continue
			}
			c.Skills[cand.def.ID]++
			c.SkillPointsSpent++
			available--
			progressed = true
			upgrades = append(upgrades, SkillUpgrade{SkillID: cand.def.ID, NewLevel: c.Skills[cand.def.ID], Weight: cand.weight})
		}
		if !progressed {
			break
		}
	}
	syncProgression(&c)
	return c, upgrades, nil
}
