package sim

import "math"

// GenerateDailyActionSet samples each category evenly then trims to the difficulty's action limit.
func (e *Engine) GenerateDailyActionSet(d Difficulty) []DailyAction {
	limit := e.tuning.Difficulty(d).ActionLimit
	cats := Categories()
	perCategory := int(math.Ceil(float64(limit) / float64(len(cats))))

	var all []DailyAction
	for _, cat := range cats {
		defs := append([]ActionDef(nil), e.catalog.ActionsByCategory(cat)...)
		shuffle(e.rng, defs)
		if len(defs) > perCategory {
			defs = defs[:perCategory]
		}
		for _, def := range defs {
			all = append(all, DailyAction{
				ActionID:    def.ID,
				Category:    def.Category,
				Name:        def.Name,
				Description: def.Description,
				Cost:        def.Cost(),
			})
		}
	}
	shuffle(e.rng, all)
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

func (e *Engine) actionCost(c Company, def ActionDef) int {
	cost := def.Cost()
	if e.catalog == nil || c.Role == "" {
		return cost
	}
	role, ok := e.catalog.Role(c.Role)
	if !ok || role.APCostReduction <= 0 {
		return cost
	}
	reduced := int(math.Round(float64(cost) * (1 - role.APCostReduction)))
	if reduced < 1 {
		return 1
	}
	return reduced
}

// TakeAction spends the action's weight and queues 1 to 3 of its events.
// An active broadcast may add one free special event.
func (e *Engine) TakeAction(c Company, actionID string) (Company, []PendingEvent, error) {
	if err := c.checkActive(); err != nil {
		return c, nil, err
	}
	idx := -1
	for i, a := range c.DailyActions {
		if a.ActionID == actionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return c, nil, ErrActionNotOffered
	}
	if c.DailyActions[idx].Selected {
		return c, nil, ErrActionAlreadyTaken
	}
	def, ok := e.catalog.Action(actionID)
	if !ok {
		return c, nil, ErrUnknownAction
	}
	if c.Modifiers.LockedCategory != "" && c.Modifiers.LockedCategory == def.Category {
		return c, nil, ErrActionLocked
	}
	cost := e.actionCost(c, def)
	if c.ActionPoints < cost {
		return c, nil, fail(ErrInsufficientAP, float64(cost), float64(c.ActionPoints))
	}

	c = c.Clone()
	c.DailyActions[idx].Selected = true
	c.ActionPoints -= cost

	count := 1 + e.rng.Intn(3)
	events := e.GenerateEvents(actionID, def.EventPool, count)
	if e.ShouldTriggerSpecialEvent(c) || c.Modifiers.SpawnsSpecialEvent {
		if ev, ok := e.RandomSpecialEvent(c.BroadcastID); ok {
			events = append(events, e.pendingFromDef(ev, BroadcastSpecialAction))
		}
		c.Modifiers.SpawnsSpecialEvent = false
	}
	c.PendingEvents = append(c.PendingEvents, events...)
	return c, events, nil
}
