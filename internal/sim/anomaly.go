package sim

const (
	flagModifyMarketing = "modify_marketing"
	flagLockAction      = "lock_action"
	flagSpecialEvent    = "special_event"
)

// Advisory is what an anomaly's flags ask of later event resolution.
type Advisory struct {
	BoostCategory        Category `json:"boost_category,omitempty"`
	CriticalSuccessBonus float64  `json:"critical_success_bonus,omitempty"`
	SuccessBonus         float64  `json:"success_bonus,omitempty"`
	LockedCategory       Category `json:"locked_category,omitempty"`
	SpawnsSpecialEvent   bool     `json:"spawns_special_event,omitempty"`
}

type AnomalyLogEntry struct {
	CompanyID string  `json:"company_id"`
	AnomalyID string  `json:"anomaly_id"`
	Day       int     `json:"day"`
	Effects   Effects `json:"effects"`
}

type Activation struct {
	Anomaly  AnomalyDef      `json:"anomaly"`
	Advisory Advisory        `json:"advisory"`
	Log      AnomalyLogEntry `json:"log"`
}

// RollDailyAnomaly fires at most one anomaly per day.
func (e *Engine) RollDailyAnomaly(c Company) *Activation {
	chance := e.tuning.AnomalyChance
	if c.LoanEffectDays > 0 {
		chance += c.LoanAnomalyBonus
	}
	if e.rng.Float64() >= chance {
		return nil
	}
	def, ok := e.selectAnomaly(c, e.catalog.Anomalies())
	if !ok {
		return nil
	}
	return e.activation(c, def)
}

func (e *Engine) RollDailyAnomalies(c Company) []Activation {
	if act := e.RollDailyAnomaly(c); act != nil {
		return []Activation{*act}
	}
	return nil
}

// ContextAnomaly picks an anomaly whose triggers overlap tags, used for penalties and choice flags.
func (e *Engine) ContextAnomaly(c Company, tags []string) *Activation {
	var pool []AnomalyDef
	for _, def := range e.catalog.Anomalies() {
		for _, tag := range tags {
			if def.hasTag(tag) {
				pool = append(pool, def)
				break
			}
		}
	}
	if len(pool) == 0 {
		return nil
	}
	def, ok := e.selectAnomaly(c, pool)
	if !ok {
		return nil
	}
	return e.activation(c, def)
}

func (e *Engine) selectAnomaly(c Company, defs []AnomalyDef) (AnomalyDef, bool) {
	if len(defs) == 0 {
		return AnomalyDef{}, false
	}
	weights := make([]float64, len(defs))
	total := 0.0
	for i, def := range defs {
		w := 1.0
		if def.hasTag(c.Type) {
			w *= 1.5
		}
		if def.Effects.Cash != 0 && c.Cash+def.Effects.Cash < 0 {
			w *= 0.3
		}
		weights[i] = w
		total += w
	}
	r := e.rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return defs[i], true
		}
	}
	return defs[len(defs)-1], true
}

func (e *Engine) activation(c Company, def AnomalyDef) *Activation {
	return &Activation{
		Anomaly:  def,
		Advisory: e.parseFlags(def),
		Log: AnomalyLogEntry{
			CompanyID: c.ID,
			AnomalyID: def.ID,
			Day:       c.Day,
			Effects:   def.Effects,
		},
	}
}

func (e *Engine) parseFlags(def AnomalyDef) Advisory {
	var adv Advisory
	if def.hasFlag(flagModifyMarketing) {
		adv.BoostCategory = CategoryMarketing
		adv.CriticalSuccessBonus = 0.2
		adv.SuccessBonus = 0.15
	}
	if def.hasFlag(flagLockAction) {
		cats := Categories()
		adv.LockedCategory = cats[e.rng.Intn(len(cats))]
	}
	if def.hasFlag(flagSpecialEvent) {
		adv.SpawnsSpecialEvent = true
	}
	return adv
}

// ApplyActivation applies the anomaly's bundle and records its advisories for the day.
func (e *Engine) ApplyActivation(c Company, act Activation) (Company, error) {
	if err := c.checkActive(); err != nil {
		return c, err
	}
	return e.applyActivation(c, act), nil
}

func (e *Engine) applyActivation(c Company, act Activation) Company {
	c = c.Clone()
	e.applyEffects(&c, act.Anomaly.Effects, e.RoleXPMultiplier(c.Role))
	adv := act.Advisory
	if adv.BoostCategory != "" {
		c.Modifiers.BoostCategory = adv.BoostCategory
		c.Modifiers.CriticalSuccessBonus = adv.CriticalSuccessBonus
		c.Modifiers.SuccessBonus = adv.SuccessBonus
	}
	if adv.LockedCategory != "" {
		c.Modifiers.LockedCategory = adv.LockedCategory
	}
	if adv.SpawnsSpecialEvent {
		c.Modifiers.SpawnsSpecialEvent = true
	}
	return c
}
