package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

var ErrInvalidContent = errors.New("invalid content")

//go:embed schema/*.json
var schemaFS embed.FS

const schemaBase = "https://startupsim.local/schema/"

var compiledSchemas = sync.OnceValues(func() (map[string]*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	entries, err := fs.ReadDir(schemaFS, "schema")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		raw, err := schemaFS.ReadFile(path.Join("schema", e.Name()))
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBase+e.Name(), bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", e.Name(), err)
		}
	}
	out := make(map[string]*jsonschema.Schema, len(Tables))
	for _, name := range Tables {
		s, err := c.Compile(schemaBase + name + ".schema.json")
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}
		out[name] = s
	}
	return out, nil
})

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidContent, fmt.Sprintf(format, args...))
}

// crossCheck enforces what a per-table schema cannot see: references between
// tables, unique ids and one choice per outcome type.
func crossCheck(f files) error {
	var errs []error
	dup := func(table string) func(string) {
		seen := map[string]bool{}
		return func(id string) {
			if seen[id] {
				errs = append(errs, invalid("%s: duplicate id %q", table, id))
			}
			seen[id] = true
		}
	}

	skills := map[string]bool{}
	check := dup("skills")
	for _, s := range f.Skills {
		check(s.ID)
		skills[s.ID] = true
		if s.MaxLevel < 1 {
			errs = append(errs, invalid("skill %s: max_level must be >= 1", s.ID))
		}
	}

	checkEffects := func(owner string, eff sim.Effects) {
		if eff.XP < 0 {
			errs = append(errs, invalid("%s: xp cannot be negative", owner))
		}
		for id := range eff.Skills {
			if !skills[id] {
				errs = append(errs, invalid("%s: unknown skill %q", owner, id))
			}
		}
	}

	events := map[string]bool{}
	check = dup("events")
	for _, e := range f.Events {
		check(e.ID)
		events[e.ID] = true
		seen := map[sim.OutcomeType]bool{}
		for _, ch := range e.Choices {
			if !ch.Type.Valid() {
				errs = append(errs, invalid("event %s: choice %s has unknown type %q", e.ID, ch.ID, ch.Type))
			}
			seen[ch.Type] = true
			checkEffects("event "+e.ID+" choice "+ch.ID, ch.Effects)
		}
		for _, want := range sim.OutcomeTypes() {
			if !seen[want] {
				errs = append(errs, invalid("event %s: missing %s choice", e.ID, want))
			}
		}
	}

	check = dup("actions")
	for _, a := range f.Actions {
		check(a.ID)
		for _, id := range a.EventPool {
			if !events[id] {
				errs = append(errs, invalid("action %s: unknown event %q", a.ID, id))
			}
		}
	}

	check = dup("anomalies")
	for _, a := range f.Anomalies {
		check(a.ID)
		checkEffects("anomaly "+a.ID, a.Effects)
	}

	check = dup("roles")
	for _, r := range f.Roles {
		check(r.ID)
	}

	check = dup("broadcasts")
	for _, b := range f.Broadcasts {
		check(b.ID)
		for _, id := range b.SpecialEvents {
			if !events[id] {
				errs = append(errs, invalid("broadcast %s: unknown special event %q", b.ID, id))
			}
		}
	}

	check = dup("bosses")
	hasNormal := false
	for _, b := range f.Bosses {
		check(b.ID)
		if b.Difficulty == sim.DifficultyNormal && b.CompanyType == "saas" {
			hasNormal = true
		}
		moves := dup("boss " + b.ID + " moves")
		for _, m := range b.Moves {
			moves(m.ID)
			checkEffects("boss move "+m.ID, m.Effects)
		}
	}
	if !hasNormal {
		errs = append(errs, invalid("bosses: a normal saas template is required"))
	}
	return errors.Join(errs...)
}
