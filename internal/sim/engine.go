package sim

// Engine runs the simulation rules against an injected catalog and rng.
// It holds no company state and is not safe for concurrent use unless rng is.
type Engine struct {
	catalog Catalog
	rng     Rand
	tuning  Tuning
}

func NewEngine(catalog Catalog, tuning Tuning, rng Rand) *Engine {
	if rng == nil {
		rng = NewRand(1)
	}
	if tuning.MaxDay == 0 {
		tuning = DefaultTuning()
	}
	return &Engine{catalog: catalog, rng: rng, tuning: tuning}
}

func (e *Engine) Tuning() Tuning { return e.tuning }

func (e *Engine) Catalog() Catalog { return e.catalog }

func (e *Engine) difficulty(c Company) DifficultyConfig {
	return e.tuning.Difficulty(c.Difficulty)
}
