package sim

// applyEffects is the one mutation path for effect bundles. Cash is floored at zero
// here; burn and loan charges go through debitCash instead.
func (e *Engine) applyEffects(c *Company, eff Effects, xpMultiplier float64) *LevelUp {
	c.Cash += eff.Cash
	if c.Cash < 0 {
		c.Cash = 0
	}
	c.Users += eff.Users
	if c.Users < MinUsers {
		c.Users = MinUsers
	}
	c.Quality = clampPercent(c.Quality + eff.Quality)
	c.Hype = clampPercent(c.Hype + eff.Hype)
	c.Virality = clampPercent(c.Virality)

	for id, n := range eff.Skills {
		e.grantCappedSkill(c, id, n)
	}
	return grantXP(c, eff.XP, xpMultiplier)
}

func (e *Engine) grantCappedSkill(c *Company, id string, n int) {
	if n <= 0 {
		return
	}
	if e.catalog != nil {
		if def, ok := e.catalog.Skill(id); ok && def.MaxLevel > 0 {
			room := def.MaxLevel - c.Skills[id]
			if room <= 0 {
				return
			}
			if n > room {
				n = room
			}
		}
	}
	grantSkill(c, id, n)
}

// debitCash subtracts without the zero floor so a day's burn can push cash negative.
func debitCash(c *Company, amount float64) {
	c.Cash = roundCents(c.Cash - amount)
}

// ApplyOutcome applies an effect bundle with the company's role XP multiplier.
func (e *Engine) ApplyOutcome(c Company, eff Effects) (Company, *LevelUp, error) {
	if err := c.checkActive(); err != nil {
		return c, nil, err
	}
	c = c.Clone()
	up := e.applyEffects(&c, eff, e.RoleXPMultiplier(c.Role))
	return c, up, nil
}

// ApplyCategoryOutcome is ApplyOutcome with the active broadcast's XP multiplier for category.
func (e *Engine) ApplyCategoryOutcome(c Company, eff Effects, category Category) (Company, *LevelUp, error) {
	if err := c.checkActive(); err != nil {
		return c, nil, err
	}
	c = c.Clone()
	mult := e.RoleXPMultiplier(c.Role) * e.BroadcastEffects(c, category).XPMultiplier
	up := e.applyEffects(&c, eff, mult)
	return c, up, nil
}
