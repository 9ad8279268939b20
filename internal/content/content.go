package content

import (
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"lukechampine.com/blake3"

	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

//go:embed data/*.yaml
var defaultData embed.FS

// Tables lists the content files in load order. Each is <name>.yaml.
var Tables = []string{"skills", "events", "actions", "anomalies", "roles", "broadcasts", "bosses"}

type Repository struct {
	actions    map[string]sim.ActionDef
	byCategory map[sim.Category][]sim.ActionDef
	events     map[string]sim.EventDef
	anomalies  []sim.AnomalyDef
	skills     []sim.SkillDef
	skillIndex map[string]int
	roles      []sim.RoleDef
	broadcasts []sim.BroadcastDef
	bosses     map[bossKey]sim.BossTemplate

	digests map[string]string
	digest  string
}

type bossKey struct {
	difficulty  sim.Difficulty
	companyType string
}

type TableInfo struct {
	Count  int    `json:"count"`
	Digest string `json:"digest"`
}

type Summary struct {
	Digest string               `json:"digest"`
	Tables map[string]TableInfo `json:"tables"`
}

type files struct {
	Actions    []sim.ActionDef    `yaml:"actions"`
	Events     []sim.EventDef     `yaml:"events"`
	Anomalies  []sim.AnomalyDef   `yaml:"anomalies"`
	Skills     []sim.SkillDef     `yaml:"skills"`
	Roles      []sim.RoleDef      `yaml:"roles"`
	Broadcasts []sim.BroadcastDef `yaml:"broadcasts"`
	Bosses     []sim.BossTemplate `yaml:"bosses"`
}

// LoadDefault loads the content tables compiled into the binary.
func LoadDefault() (*Repository, error) {
	sub, err := fs.Sub(defaultData, "data")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

func LoadDir(dir string) (*Repository, error) {
	return Load(os.DirFS(dir))
}

// Load reads every table from the root of fsys, validates it against its
// schema and cross-checks references before building the repository.
func Load(fsys fs.FS) (*Repository, error) {
	schemas, err := compiledSchemas()
	if err != nil {
		return nil, err
	}

	var f files
	digests := make(map[string]string, len(Tables))
	for _, name := range Tables {
		raw, err := fs.ReadFile(fsys, name+".yaml")
		if err != nil {
			return nil, fmt.Errorf("%s.yaml: %w", name, err)
		}
		canonical, err := validateTable(schemas[name], raw)
		if err != nil {
			return nil, fmt.Errorf("%s.yaml: %w", name, err)
		}
		digests[name] = blake3Hex(canonical)
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("%s.yaml: %w", name, err)
		}
	}
	if err := crossCheck(f); err != nil {
		return nil, err
	}
	return build(f, digests), nil
}

// validateTable normalises YAML into JSON, checks it against the schema and
// returns the canonical JSON bytes used for digesting.
func validateTable(schema interface{ Validate(any) error }, raw []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	canonical, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}
	var generic any
	if err := json.Unmarshal(canonical, &generic); err != nil {
		return nil, err
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return canonical, nil
}

func build(f files, digests map[string]string) *Repository {
	r := &Repository{
		actions:    make(map[string]sim.ActionDef, len(f.Actions)),
		byCategory: map[sim.Category][]sim.ActionDef{},
		events:     make(map[string]sim.EventDef, len(f.Events)),
		anomalies:  f.Anomalies,
		skills:     f.Skills,
		skillIndex: make(map[string]int, len(f.Skills)),
		roles:      f.Roles,
		broadcasts: f.Broadcasts,
		bosses:     make(map[bossKey]sim.BossTemplate, len(f.Bosses)),
		digests:    digests,
	}
	for _, a := range f.Actions {
		r.actions[a.ID] = a
		r.byCategory[a.Category] = append(r.byCategory[a.Category], a)
	}
	for cat := range r.byCategory {
		defs := r.byCategory[cat]
		sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	}
	for _, e := range f.Events {
		r.events[e.ID] = e
	}
	for i, s := range f.Skills {
		r.skillIndex[s.ID] = i
	}
	for _, b := range f.Bosses {
		r.bosses[bossKey{b.Difficulty, b.CompanyType}] = b
	}

	var sb strings.Builder
	for _, name := range Tables {
		fmt.Fprintf(&sb, "%s:%s\n", name, digests[name])
	}
	r.digest = blake3Hex([]byte(sb.String()))
	return r
}

func blake3Hex(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Digest fingerprints the loaded content. Equal digests mean equal tables.
func (r *Repository) Digest() string { return r.digest }

func (r *Repository) Summary() Summary {
	counts := map[string]int{
		"actions":    len(r.actions),
		"events":     len(r.events),
		"anomalies":  len(r.anomalies),
		"skills":     len(r.skills),
		"roles":      len(r.roles),
		"broadcasts": len(r.broadcasts),
		"bosses":     len(r.bosses),
	}
	s := Summary{Digest: r.digest, Tables: make(map[string]TableInfo, len(Tables))}
	for _, name := range Tables {
		s.Tables[name] = TableInfo{Count: counts[name], Digest: r.digests[name]}
	}
	return s
}

func (r *Repository) Action(id string) (sim.ActionDef, bool) {
	a, ok := r.actions[id]
	return a, ok
}

func (r *Repository) ActionsByCategory(c sim.Category) []sim.ActionDef {
	return r.byCategory[c]
}

func (r *Repository) ActionIDs() []string {
	ids := make([]string, 0, len(r.actions))
	for id := range r.actions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Repository) Event(id string) (sim.EventDef, bool) {
	e, ok := r.events[id]
	return e, ok
}

func (r *Repository) Anomalies() []sim.AnomalyDef { return r.anomalies }

func (r *Repository) Skill(id string) (sim.SkillDef, bool) {
	i, ok := r.skillIndex[id]
	if !ok {
		return sim.SkillDef{}, false
	}
	return r.skills[i], true
}

func (r *Repository) Skills() []sim.SkillDef { return r.skills }

func (r *Repository) Role(id string) (sim.RoleDef, bool) {
	for _, role := range r.roles {
		if role.ID == id {
			return role, true
		}
	}
	return sim.RoleDef{}, false
}

func (r *Repository) Roles() []sim.RoleDef { return r.roles }

func (r *Repository) Broadcast(id string) (sim.BroadcastDef, bool) {
	for _, b := range r.broadcasts {
		if b.ID == id {
			return b, true
		}
	}
	return sim.BroadcastDef{}, false
}

func (r *Repository) Broadcasts() []sim.BroadcastDef { return r.broadcasts }

// BossTemplate falls back to the difficulty's saas template, then to normal saas.
func (r *Repository) BossTemplate(d sim.Difficulty, companyType string) (sim.BossTemplate, bool) {
	for _, k := range []bossKey{{d, companyType}, {d, "saas"}, {sim.DifficultyNormal, "saas"}} {
		if t, ok := r.bosses[k]; ok {
			return t, true
		}
	}
	return sim.BossTemplate{}, false
}

var _ sim.Catalog = (*Repository)(nil)
