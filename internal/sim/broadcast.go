package sim

import "strings"

func (e *Engine) IsBroadcastActive(c Company) bool {
	if c.BroadcastID == "" || c.BroadcastStartDay == 0 {
		return false
	}
	since := c.Day - c.BroadcastStartDay
	return since >= 0 && since < e.tuning.BroadcastDuration
}

func (e *Engine) BroadcastDaysRemaining(c Company) int {
	if !e.IsBroadcastActive(c) {
		return 0
	}
	return e.tuning.BroadcastDuration - (c.Day - c.BroadcastStartDay)
}

// CheckAndStartBroadcast opens a new window on the start day or whenever the previous one lapsed.
func (e *Engine) CheckAndStartBroadcast(c Company) (Company, bool) {
	if c.Day < e.tuning.BroadcastStartDay || e.IsBroadcastActive(c) {
		return c, false
	}
	all := e.catalog.Broadcasts()
	if len(all) == 0 {
		return c, false
	}
	b := all[e.rng.Intn(len(all))]
	c = c.Clone()
	c.BroadcastID = b.ID
	c.BroadcastStartDay = c.Day
	return c, true
}

// BroadcastEffects returns the category boost, or a neutral boost outside a window.
func (e *Engine) BroadcastEffects(c Company, category Category) CategoryBoost {
	neutral := CategoryBoost{XPMultiplier: 1}
	if !e.IsBroadcastActive(c) {
		return neutral
	}
	b, ok := e.catalog.Broadcast(c.BroadcastID)
	if !ok {
		return neutral
	}
	boost, ok := b.Effects[category]
	if !ok {
		return neutral
	}
	if boost.XPMultiplier <= 0 {
		boost.XPMultiplier = 1
	}
	return boost
}

func (e *Engine) ShouldTriggerSpecialEvent(c Company) bool {
	if !e.IsBroadcastActive(c) {
		return false
	}
	b, ok := e.catalog.Broadcast(c.BroadcastID)
	if !ok {
		return false
	}
	return e.rng.Float64() < b.SpecialEventChance
}

// RandomSpecialEvent prefers the broadcast's own specials, then any broadcast's.
func (e *Engine) RandomSpecialEvent(broadcastID string) (EventDef, bool) {
	var pool []string
	if b, ok := e.catalog.Broadcast(broadcastID); ok {
		pool = append(pool, b.SpecialEvents...)
		if len(pool) == 0 {
			prefix, _, _ := strings.Cut(b.ID, "_")
			for _, other := range e.catalog.Broadcasts() {
				for _, id := range other.SpecialEvents {
					if strings.Contains(id, prefix) {
						pool = append(pool, id)
					}
				}
			}
		}
	}
	if len(pool) == 0 {
		for _, other := range e.catalog.Broadcasts() {
			pool = append(pool, other.SpecialEvents...)
		}
	}
	if len(pool) == 0 {
		return EventDef{}, false
	}
	return e.catalog.Event(pool[e.rng.Intn(len(pool))])
}
