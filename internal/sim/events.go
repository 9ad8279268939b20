package sim

import (
	"fmt"
	"math"
)

// BroadcastSpecialAction marks pending events that cost no action point.
const BroadcastSpecialAction = "broadcast_special"

var choiceLabels = [...]string{"Option A", "Option B", "Option C", "Option D"}

// GenerateEvents draws up to count events from pool and hides outcome types behind shuffled labels.
func (e *Engine) GenerateEvents(actionID string, pool []string, count int) []PendingEvent {
	ids := append([]string(nil), pool...)
	shuffle(e.rng, ids)
	if count > len(ids) {
		count = len(ids)
	}
	out := make([]PendingEvent, 0, count)
	for _, id := range ids {
		if len(out) == count {
			break
		}
		def, ok := e.catalog.Event(id)
		if !ok {
			continue
		}
		out = append(out, e.pendingFromDef(def, actionID))
	}
	return out
}

func (e *Engine) pendingFromDef(def EventDef, actionID string) PendingEvent {
	choices := make([]EventChoice, len(def.Choices))
	for i, ch := range def.Choices {
		choices[i] = EventChoice{ID: ch.ID, Type: ch.Type, Text: ch.Text, Effects: ch.Effects}
	}
	shuffle(e.rng, choices)
	for i := range choices {
		if i < len(choiceLabels) {
			choices[i].Label = choiceLabels[i]
		} else {
			choices[i].Label = fmt.Sprintf("Option %c", 'A'+i)
		}
	}
	return PendingEvent{
		EventID:     def.ID,
		ActionID:    actionID,
		Category:    def.Category,
		Name:        def.Name,
		Description: def.Description,
		Choices:     choices,
	}
}

func SelectChoice(ev PendingEvent, choiceID string) (EventChoice, bool) {
	for _, ch := range ev.Choices {
		if ch.ID == choiceID || ch.Label == choiceID {
			return ch, true
		}
	}
	return EventChoice{}, false
}

// Redacted hides outcome types and effects of unresolved choices.
func (ev PendingEvent) Redacted() PendingEvent {
	out := ev
	out.Choices = make([]EventChoice, len(ev.Choices))
	for i, ch := range ev.Choices {
		out.Choices[i] = EventChoice{ID: ch.ID, Label: ch.Label, Text: ch.Text}
	}
	return out
}

type Resolution struct {
	EventID string      `json:"event_id"`
	Choice  EventChoice `json:"choice"`
	LevelUp *LevelUp    `json:"level_up,omitempty"`
	Anomaly *Activation `json:"anomaly,omitempty"`
	Free    bool        `json:"free"`
}

// ResolveChoice applies the chosen option and removes the event from the queue.
func (e *Engine) ResolveChoice(c Company, eventID, choiceID string) (Company, Resolution, error) {
	if err := c.checkActive(); err != nil {
		return c, Resolution{}, err
	}
	ev, idx, ok := c.PendingEvent(eventID)
	if !ok {
		return c, Resolution{}, ErrUnknownEvent
	}
	choice, ok := SelectChoice(ev, choiceID)
	if !ok {
		return c, Resolution{}, ErrUnknownChoice
	}
	free := ev.ActionID == BroadcastSpecialAction

	c = c.Clone()
	c.PendingEvents = append(c.PendingEvents[:idx], c.PendingEvents[idx+1:]...)
	if !free && c.ActionPoints > 0 {
		c.ActionPoints--
	}
	mult := e.RoleXPMultiplier(c.Role) * e.BroadcastEffects(c, ev.Category).XPMultiplier
	up := e.applyEffects(&c, choice.Effects, mult)

	choice.Revealed = true
	res := Resolution{EventID: eventID, Choice: choice, LevelUp: up, Free: free}
	if len(choice.Effects.Flags) > 0 {
		if act := e.ContextAnomaly(c, choice.Effects.Flags); act != nil {
			c = e.applyActivation(c, *act)
			res.Anomaly = act
		}
	}
	return c, res, nil
}

// rollOutcome picks an outcome type for automated play.
func (e *Engine) rollOutcome(c Company, category Category, m Multipliers) OutcomeType {
	d := e.difficulty(c)
	bonus := d.PositiveBias + e.roleOutcomeBonus(c.Role) + m.EventOutcomeBonus +
		e.BroadcastEffects(c, category).SuccessRateBonus
	critBonus := 0.0
	if c.Modifiers.BoostCategory == category {
		bonus += c.Modifiers.SuccessBonus
		critBonus = c.Modifiers.CriticalSuccessBonus
	}

	roll := e.rng.Float64()
	var out OutcomeType
	switch {
	case roll < 0.5:
		out = OutcomeSuccess
	case roll < 0.65:
		out = OutcomeCriticalSuccess
	case roll < 0.8:
		out = OutcomeFailure
	default:
		out = OutcomeCriticalFailure
	}
	if bonus > 0 && (out == OutcomeFailure || out == OutcomeCriticalFailure) && e.rng.Float64() < bonus {
		out = OutcomeSuccess
	}
	if critBonus > 0 && out == OutcomeSuccess && e.rng.Float64() < critBonus {
		out = OutcomeCriticalSuccess
	}
	if bonus < 0 && out == OutcomeSuccess && e.rng.Float64() < math.Abs(bonus) {
		out = OutcomeFailure
	}
	return out
}
