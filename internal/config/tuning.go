package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

var ErrInvalidTuning = errors.New("invalid tuning")

type tuningFile struct {
	MaxDay            *int                         `yaml:"max_day"`
	BossDay           *int                         `yaml:"boss_day"`
	AnomalyChance     *float64                     `yaml:"anomaly_chance"`
	BroadcastStartDay *int                         `yaml:"broadcast_start_day"`
	BroadcastDuration *int                         `yaml:"broadcast_duration"`
	BossTurnTimeout   string                       `yaml:"boss_turn_timeout"`
	Difficulties      map[sim.Difficulty]yaml.Node `yaml:"difficulties"`
}

// LoadTuning overlays the YAML file at path on the default tuning. An empty
// path or a missing file yields the defaults.
func LoadTuning(path string) (sim.Tuning, error) {
	t := sim.DefaultTuning()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return t, err
	}
	return ParseTuning(raw)
}

func ParseTuning(raw []byte) (sim.Tuning, error) {
	t := sim.DefaultTuning()
	var f tuningFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return t, fmt.Errorf("tuning: %w", err)
	}
	if f.MaxDay != nil {
		t.MaxDay = *f.MaxDay
	}
	if f.BossDay != nil {
		t.BossDay = *f.BossDay
	}
	if f.AnomalyChance != nil {
		t.AnomalyChance = *f.AnomalyChance
	}
	if f.BroadcastStartDay != nil {
		t.BroadcastStartDay = *f.BroadcastStartDay
	}
	if f.BroadcastDuration != nil {
		t.BroadcastDuration = *f.BroadcastDuration
	}
	if f.BossTurnTimeout != "" {
		d, err := time.ParseDuration(f.BossTurnTimeout)
		if err != nil {
			return t, fmt.Errorf("tuning: boss_turn_timeout: %w", err)
		}
		t.BossTurnTimeout = d
	}
	for d, node := range f.Difficulties {
		if !sim.ValidDifficulty(d) {
			return t, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidTuning, d)
		}
		cfg := t.Difficulties[d]
		if err := node.Decode(&cfg); err != nil {
			return t, fmt.Errorf("tuning: difficulties.%s: %w", d, err)
		}
		t.Difficulties[d] = cfg
	}
	return t, validateTuning(t)
}

func validateTuning(t sim.Tuning) error {
	switch {
	case t.MaxDay < 1:
		return fmt.Errorf("%w: max_day must be >= 1", ErrInvalidTuning)
	case t.BossDay < 1 || t.BossDay > t.MaxDay:
		return fmt.Errorf("%w: boss_day must be within 1..max_day", ErrInvalidTuning)
	case t.AnomalyChance < 0 || t.AnomalyChance > 1:
		return fmt.Errorf("%w: anomaly_chance must be within 0..1", ErrInvalidTuning)
	case t.BroadcastDuration < 1:
		return fmt.Errorf("%w: broadcast_duration must be >= 1", ErrInvalidTuning)
	case t.BossTurnTimeout <= 0:
		return fmt.Errorf("%w: boss_turn_timeout must be > 0", ErrInvalidTuning)
	}
	for d, cfg := range t.Difficulties {
		if cfg.ActionLimit < 1 {
			return fmt.Errorf("%w: %s action_limit must be >= 1", ErrInvalidTuning, d)
		}
		if cfg.InitialCash <= 0 {
			return fmt.Errorf("%w: %s initial_cash must be > 0", ErrInvalidTuning, d)
		}
	}
	return nil
}
