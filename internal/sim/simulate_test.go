package sim

import (
	"reflect"
	"testing"
)

type memRecorder struct {
	records []DayRecord
}

func (m *memRecorder) Record(d DayRecord) error {
	m.records = append(m.records, d)
	return nil
}

func TestSimulateIsDeterministic(t *testing.T) {
	cfg := SimulationConfig{Difficulty: DifficultyNormal, Companies: 3, Days: 50, Seed: 99, Lifeline: true}
	a, err := Simulate(newFixtureCatalog(), DefaultTuning(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Simulate(newFixtureCatalog(), DefaultTuning(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed gave different results:\n%+v\n%+v", a, b)
	}
	if len(a.Companies) != 3 {
		t.Fatalf("got %d companies want 3", len(a.Companies))
	}
}

func TestSimulateRecordsValidDays(t *testing.T) {
	rec := &memRecorder{}
	cfg := SimulationConfig{Difficulty: DifficultyHard, Companies: 2, Days: 20, Seed: 7}
	res, err := Simulate(newFixtureCatalog(), DefaultTuning(), cfg, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.records) == 0 {
		t.Fatalf("no records")
	}
	for _, r := range rec.records {
		s := r.Snapshot
		if s.Users < MinUsers || s.Quality < 0 || s.Quality > 100 || s.Hype < 0 || s.Hype > 100 {
			t.Fatalf("snapshot out of range: %+v", s)
		}
		if s.Level != CalculateLevel(s.XP) {
			t.Fatalf("level %d does not match xp %d", s.Level, s.XP)
		}
	}
	if res.SurvivalRate < 0 || res.SurvivalRate > 1 {
		t.Fatalf("survival rate %v", res.SurvivalRate)
	}
}
