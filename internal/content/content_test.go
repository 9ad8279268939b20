package content

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

func defaultFiles(t *testing.T) fstest.MapFS {
	t.Helper()
	out := fstest.MapFS{}
	for _, name := range Tables {
		raw, err := fs.ReadFile(defaultData, "data/"+name+".yaml")
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		out[name+".yaml"] = &fstest.MapFile{Data: raw}
	}
	return out
}

func TestLoadDefault(t *testing.T) {
	repo, err := LoadDefault()
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	for _, cat := range sim.Categories() {
		if got := len(repo.ActionsByCategory(cat)); got == 0 {
			t.Fatalf("no actions for %s", cat)
		}
	}
	for _, d := range sim.Difficulties() {
		if _, ok := repo.BossTemplate(d, "saas"); !ok {
			t.Fatalf("no boss for %s", d)
		}
	}
	if _, ok := repo.Role("founder"); !ok {
		t.Fatalf("founder role missing")
	}
	if len(repo.Digest()) != 64 {
		t.Fatalf("digest got %q", repo.Digest())
	}
}

func TestDigestIsStable(t *testing.T) {
	a, err := LoadDefault()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := Load(defaultFiles(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if a.Digest() != b.Digest() {
		t.Fatalf("digest changed between loads: %s vs %s", a.Digest(), b.Digest())
	}

	files := defaultFiles(t)
	files["roles.yaml"].Data = []byte(strings.Replace(string(files["roles.yaml"].Data), "xp_multiplier: 1.15", "xp_multiplier: 1.2", 1))
	c, err := Load(files)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Digest() == a.Digest() {
		t.Fatalf("digest must change when content changes")
	}
	if c.Summary().Tables["roles"].Digest == a.Summary().Tables["roles"].Digest {
		t.Fatalf("roles table digest must change")
	}
	if c.Summary().Tables["events"].Digest != a.Summary().Tables["events"].Digest {
		t.Fatalf("untouched table digest changed")
	}
}

func TestBossTemplateFallback(t *testing.T) {
	repo, err := LoadDefault()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tpl, ok := repo.BossTemplate(sim.DifficultyHard, "ecommerce")
	if !ok || tpl.ID != "boss_hard_saas" {
		t.Fatalf("got %+v", tpl)
	}
	if tpl.Rewards.Cash != 75000 {
		t.Fatalf("hard reward cash got %v want 75000", tpl.Rewards.Cash)
	}
	tpl, ok = repo.BossTemplate(sim.Difficulty("nightmare"), "saas")
	if !ok || tpl.ID != "boss_normal_saas" {
		t.Fatalf("got %+v", tpl)
	}
}

func TestLoadRejectsInvalidContent(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		replace [2]string
	}{
		{name: "unknown event in pool", table: "actions", replace: [2]string{"event_pool: [product_feature_freeze,", "event_pool: [ghost_event,"}},
		{name: "negative xp", table: "anomalies", replace: [2]string{"xp: 40", "xp: -40"}},
		{name: "duplicate outcome type", table: "events", replace: [2]string{"type: critical_failure", "type: failure"}},
		{name: "unknown category", table: "actions", replace: [2]string{"category: product", "category: gardening"}},
		{name: "unknown skill grant", table: "events", replace: [2]string{"skills: {rapid_prototyping: 1}", "skills: {time_travel: 1}"}},
		{name: "unknown flag", table: "anomalies", replace: [2]string{"flags: [lock_action]", "flags: [explode]"}},
	}
	for _, tc := range tests {
		files := defaultFiles(t)
		raw := string(files[tc.table+".yaml"].Data)
		if !strings.Contains(raw, tc.replace[0]) {
			t.Fatalf("%s: fixture text %q not found", tc.name, tc.replace[0])
		}
		files[tc.table+".yaml"].Data = []byte(strings.Replace(raw, tc.replace[0], tc.replace[1], 1))
		_, err := Load(files)
		if !errors.Is(err, ErrInvalidContent) {
			t.Fatalf("%s: expected invalid content, got %v", tc.name, err)
		}
	}
}

func TestLoadMissingTable(t *testing.T) {
	files := defaultFiles(t)
	delete(files, "bosses.yaml")
	if _, err := Load(files); err == nil {
		t.Fatalf("expected error for missing table")
	}
}

func TestDefaultContentPlaysDeterministically(t *testing.T) {
	repo, err := LoadDefault()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := sim.SimulationConfig{Difficulty: sim.DifficultyNormal, Companies: 4, Days: 60, Seed: 2024, Lifeline: true}
	a, err := sim.Simulate(repo, sim.DefaultTuning(), cfg, nil)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	b, err := sim.Simulate(repo, sim.DefaultTuning(), cfg, nil)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if a.AvgCash != b.AvgCash || a.Survived != b.Survived || a.AvgLevel != b.AvgLevel {
		t.Fatalf("same seed diverged: %+v vs %+v", a, b)
	}
}
