package sim

import "fmt"

type fixtureCatalog struct {
	actions    map[string]ActionDef
	events     map[string]EventDef
	anomalies  []AnomalyDef
	skills     []SkillDef
	roles      map[string]RoleDef
	broadcasts []BroadcastDef
	bosses     map[Difficulty]BossTemplate
}

func (f *fixtureCatalog) Action(id string) (ActionDef, bool) {
	a, ok := f.actions[id]
	return a, ok
}

func (f *fixtureCatalog) ActionsByCategory(c Category) []ActionDef {
	var out []ActionDef
	for _, cat := range Categories() {
		if cat != c {
			continue
		}
		for i := 1; i <= 2; i++ {
			if a, ok := f.actions[fmt.Sprintf("%s_action_%d", c, i)]; ok {
				out = append(out, a)
			}
		}
	}
	return out
}

func (f *fixtureCatalog) Event(id string) (EventDef, bool) {
	e, ok := f.events[id]
	return e, ok
}

func (f *fixtureCatalog) Anomalies() []AnomalyDef { return f.anomalies }

func (f *fixtureCatalog) Skill(id string) (SkillDef, bool) {
	for _, s := range f.skills {
		if s.ID == id {
			return s, true
		}
	}
	return SkillDef{}, false
}

func (f *fixtureCatalog) Skills() []SkillDef { return f.skills }

func (f *fixtureCatalog) Role(id string) (RoleDef, bool) {
	r, ok := f.roles[id]
	return r, ok
}

func (f *fixtureCatalog) Broadcast(id string) (BroadcastDef, bool) {
	for _, b := range f.broadcasts {
		if b.ID == id {
			return b, true
		}
	}
	return BroadcastDef{}, false
}

func (f *fixtureCatalog) Broadcasts() []BroadcastDef { return f.broadcasts }

func (f *fixtureCatalog) BossTemplate(d Difficulty, _ string) (BossTemplate, bool) {
	if t, ok := f.bosses[d]; ok {
		return t, true
	}
	t, ok := f.bosses[DifficultyNormal]
	return t, ok
}

func fourChoices(prefix string, scale float64) []ChoiceDef {
	return []ChoiceDef{
		{ID: prefix + "_cs", Type: OutcomeCriticalSuccess, Text: "bold", Effects: Effects{Cash: 400 * scale, Users: 40, Hype: 6, XP: 40}},
		{ID: prefix + "_s", Type: OutcomeSuccess, Text: "steady", Effects: Effects{Cash: 150 * scale, Users: 15, Quality: 2, XP: 25}},
		{ID: prefix + "_f", Type: OutcomeFailure, Text: "cautious", Effects: Effects{Cash: -100 * scale, Users: -5, XP: 10}},
		{ID: prefix + "_cf", Type: OutcomeCriticalFailure, Text: "reckless", Effects: Effects{Cash: -300 * scale, Users: -20, Hype: -5, XP: 5}},
	}
}

func newFixtureCatalog() *fixtureCatalog {
	f := &fixtureCatalog{
		actions: map[string]ActionDef{},
		events:  map[string]EventDef{},
		roles: map[string]RoleDef{
			"founder":            {ID: "founder", Name: "Founder", XPMultiplier: 1.15, EventOutcomeBonus: 0.1},
			"operations_manager": {ID: "operations_manager", Name: "Operations Manager", XPMultiplier: 0.9, APCostReduction: 0.1},
			"growth_hacker": {ID: "growth_hacker", Name: "Growth Hacker", SkillTreeBonuses: map[Tree]float64{
				TreeMarketing: 1.5, TreeProduct: 1, TreeFinance: 0.8, TreeTechnology: 1,
			}},
		},
	}
	for _, cat := range Categories() {
		for i := 1; i <= 2; i++ {
			id := fmt.Sprintf("%s_action_%d", cat, i)
			var pool []string
			for j := 1; j <= 3; j++ {
				evID := fmt.Sprintf("%s_event_%d_%d", cat, i, j)
				pool = append(pool, evID)
				f.events[evID] = EventDef{ID: evID, Category: cat, Name: evID, Choices: fourChoices(evID, 1)}
			}
			f.actions[id] = ActionDef{ID: id, Category: cat, Name: id, EventPool: pool}
		}
	}
	f.events["special_launch"] = EventDef{ID: "special_launch", Category: CategoryMarketing, Name: "Launch Day", Choices: fourChoices("special_launch", 2)}

	f.anomalies = []AnomalyDef{
		{ID: "server_outage", Name: "Server Outage", Effects: Effects{Users: -10, Quality: -5}, Triggers: []string{"saas"}},
		{ID: "viral_tweet", Name: "Viral Tweet", Effects: Effects{Hype: 10}, Flags: []string{flagModifyMarketing}},
		{ID: "tax_audit", Name: "Tax Audit", Effects: Effects{Cash: -2000}, Triggers: []string{"loan", "penalty"}},
		{ID: "strike", Name: "Team Strike", Effects: Effects{Quality: -3}, Flags: []string{flagLockAction}},
	}
	f.skills = []SkillDef{
		{ID: "rapid_prototyping", Tree: TreeProduct, Name: "Rapid Prototyping", MaxLevel: 5, Effects: SkillEffects{RevenueMultiplier: 0.05}},
		{ID: "viral_loops", Tree: TreeMarketing, Name: "Viral Loops", MaxLevel: 5, Effects: SkillEffects{ViralityBonus: 0.1}},
		{ID: "lean_budgeting", Tree: TreeFinance, Name: "Lean Budgeting", MaxLevel: 5, Effects: SkillEffects{CostReduction: 0.02}},
		{ID: "cloud_scaling", Tree: TreeTechnology, Name: "Cloud Scaling", MaxLevel: 3},
	}
	f.broadcasts = []BroadcastDef{{
		ID:                 "marketing_frenzy",
		Name:               "Marketing Frenzy",
		Effects:            map[Category]CategoryBoost{CategoryMarketing: {XPMultiplier: 2, SuccessRateBonus: 0.1, ViralityBonus: 0.2}},
		SpecialEventChance: 1,
		SpecialEvents:      []string{"special_launch"},
	}}
	f.bosses = map[Difficulty]BossTemplate{
		DifficultyNormal: {
			ID: "boss_normal_saas", Name: "TechGiant Corp", Difficulty: DifficultyNormal, MaxHealth: 150,
			Moves: []BossMove{
				{ID: "blitz", Kind: BossMoveAttack, Name: "Marketing Blitz", Effects: Effects{Users: -50, Hype: -15, Cash: -2000}},
				{ID: "lockout", Kind: BossMoveSabotage, Name: "API Lockout", Effects: Effects{Quality: -15, Users: -40}},
			},
			Rewards: BossRewards{Cash: 50000, Investors: []string{"Black Hole Ventures", "Strategic Capital Partners"}, Quality: 10, SkillPoints: 5},
		},
	}
	return f
}

func newTestEngine(seed int64) *Engine {
	return NewEngine(newFixtureCatalog(), DefaultTuning(), NewRand(seed))
}

func newTestCompany() Company {
	return NewCompany(NewCompanyParams{ID: "c1", OwnerID: "u1", Name: "Acme", Difficulty: DifficultyNormal}, DefaultTuning())
}

// seqRand replays fixed floats and always picks index 0.
type seqRand struct {
	floats []float64
	i      int
}

func (s *seqRand) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[s.i%len(s.floats)]
	s.i++
	return v
}

func (s *seqRand) Intn(int) int { return 0 }

func (s *seqRand) Shuffle(int, func(i, j int)) {}
