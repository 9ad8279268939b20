package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/KenThuan129/startup-simulation-game/internal/content"
	"github.com/KenThuan129/startup-simulation-game/internal/db"
	"github.com/KenThuan129/startup-simulation-game/internal/game"
	"github.com/KenThuan129/startup-simulation-game/internal/lock"
	"github.com/KenThuan129/startup-simulation-game/internal/sim"
	"github.com/KenThuan129/startup-simulation-game/internal/store"
)

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	handle, err := db.OpenSQLite(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	st := store.NewSQLite(handle)
	t.Cleanup(func() { _ = st.Close() })
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo, err := content.LoadDefault()
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Bot{
		log:     logger,
		game:    game.NewService(st, lock.NewLocal(), repo, sim.DefaultTuning(), sim.NewRand(5), logger),
		catalog: repo,
		limiter: newLimiterSet(1000, 1000),
	}
}

func run(t *testing.T, b *Bot, user string, cmd command) reply {
	t.Helper()
	if cmd.Args == nil {
		cmd.Args = map[string]any{}
	}
	r, err := b.dispatch(context.Background(), user, cmd)
	if err != nil {
		t.Fatalf("/%s %s: %v", cmd.Name, cmd.Sub, err)
	}
	return r
}

func createCmd() command {
	return command{Name: "create-startup", Args: map[string]any{
		"name":       "Rocket",
		"type":       "saas",
		"difficulty": "normal",
		"goal":       "reach_users",
		"target":     1000.0,
		"goal2":      "survive_days",
		"target2":    30.0,
	}}
}

func firstButton(t *testing.T, components []discordgo.MessageComponent) string {
	t.Helper()
	if len(components) == 0 {
		t.Fatalf("expected components")
	}
	row, ok := components[0].(discordgo.ActionsRow)
	if !ok || len(row.Components) == 0 {
		t.Fatalf("unexpected component %#v", components[0])
	}
	btn, ok := row.Components[0].(discordgo.Button)
	if !ok {
		t.Fatalf("unexpected button %#v", row.Components[0])
	}
	return btn.CustomID
}

func TestPlayThroughBot(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()

	r := run(t, b, "u1", createCmd())
	if !strings.Contains(r.Content, "Rocket") || len(r.Embeds) != 1 {
		t.Fatalf("unexpected create reply %+v", r)
	}
	if _, err := b.dispatch(ctx, "u1", createCmd()); !errors.Is(err, store.ErrExists) {
		t.Fatalf("got %v want ErrExists", err)
	}

	r = run(t, b, "u1", command{Name: "role", Args: map[string]any{"role": "Growth Hacker"}})
	if !strings.Contains(r.Content, "Growth Hacker") {
		t.Fatalf("unexpected role reply %q", r.Content)
	}

	r = run(t, b, "u1", command{Name: "start-day"})
	if len(r.Embeds) != 1 || len(r.Components) == 0 {
		t.Fatalf("unexpected start-day reply %+v", r)
	}

	c, err := b.game.ActiveCompany(ctx, "u1")
	if err != nil {
		t.Fatalf("active company: %v", err)
	}
	var pick sim.DailyAction
	for _, a := range c.DailyActions {
		if a.Category != c.Modifiers.LockedCategory {
			pick = a
			break
		}
	}
	typed := strings.ToUpper(strings.ReplaceAll(pick.ActionID, "_", " "))
	r = run(t, b, "u1", command{Name: "action", Args: map[string]any{"id": typed}})
	if len(r.Embeds) == 0 {
		t.Fatalf("expected event embeds, got %+v", r)
	}

	choose, ok := fromButton(firstButton(t, r.Components))
	if !ok || choose.Name != "choose" {
		t.Fatalf("unexpected choice button %+v", choose)
	}
	r = run(t, b, "u1", choose)
	if len(r.Embeds) != 1 || r.Embeds[0].Title == "" {
		t.Fatalf("unexpected resolution reply %+v", r)
	}

	r = run(t, b, "u1", command{Name: "end-day"})
	if len(r.Embeds) != 1 || r.Embeds[0].Title != "Day 1 closed" {
		t.Fatalf("unexpected end-day reply %+v", r.Embeds)
	}

	r = run(t, b, "u1", command{Name: "stats"})
	if !strings.Contains(r.Embeds[0].Description, "Day 2") {
		t.Fatalf("got %q want day 2", r.Embeds[0].Description)
	}
}

func TestLoanThroughBot(t *testing.T) {
	b := newTestBot(t)
	run(t, b, "u2", createCmd())

	r := run(t, b, "u2", command{Name: "loan", Sub: "offers"})
	if len(r.Embeds[0].Fields) == 0 {
		t.Fatalf("expected offers, got %+v", r.Embeds[0])
	}
	accept, ok := fromButton(firstButton(t, r.Components))
	if !ok {
		t.Fatalf("bad accept button")
	}
	r = run(t, b, "u2", accept)
	if !strings.Contains(r.Content, "accepted") {
		t.Fatalf("unexpected accept reply %q", r.Content)
	}

	r = run(t, b, "u2", command{Name: "loan", Sub: "pay", Args: map[string]any{"amount": 500.0}})
	if !strings.Contains(r.Content, "Paid $500.00") {
		t.Fatalf("unexpected pay reply %q", r.Content)
	}

	r = run(t, b, "u2", command{Name: "loan", Sub: "status"})
	if len(r.Embeds[0].Fields) != 1 {
		t.Fatalf("expected one loan, got %+v", r.Embeds[0].Fields)
	}
}

func TestSkillsThroughBot(t *testing.T) {
	b := newTestBot(t)
	run(t, b, "u3", createCmd())

	_, err := b.dispatch(context.Background(), "u3", command{Name: "skills", Sub: "spend", Args: map[string]any{"skill": "viral loopz"}})
	var failure *sim.Failure
	if !errors.Is(err, sim.ErrInsufficientSkillPoints) || !errors.As(err, &failure) || failure.Need != 1 {
		t.Fatalf("got %v want insufficient skill points for viral_loops", err)
	}
	r := run(t, b, "u3", command{Name: "skills", Sub: "spend", Args: map[string]any{"skill": "qqqqqq"}})
	if !r.Ephemeral || !strings.HasPrefix(r.Content, "Unknown skill") {
		t.Fatalf("unexpected reply %+v", r)
	}
	r = run(t, b, "u3", command{Name: "skills", Sub: "auto"})
	if r.Content != "No skill points to spend." {
		t.Fatalf("got %q", r.Content)
	}
}

func TestSkillsListShowsCatalogAgainstLevels(t *testing.T) {
	b := newTestBot(t)
	run(t, b, "u7", createCmd())

	r := run(t, b, "u7", command{Name: "skills", Sub: "list"})
	if len(r.Embeds) != 1 {
		t.Fatalf("got %d embeds want 1", len(r.Embeds))
	}
	e := r.Embeds[0]
	if !strings.HasPrefix(e.Description, "0 skill points") {
		t.Fatalf("got description %q", e.Description)
	}
	var body strings.Builder
	for _, f := range e.Fields {
		body.WriteString(f.Value + "\n")
	}
	for _, def := range b.catalog.Skills() {
		want := fmt.Sprintf("`%s` %s 0/%d", def.ID, def.Name, def.MaxLevel)
		if !strings.Contains(body.String(), want) {
			t.Fatalf("skills list is missing %q", want)
		}
	}
}

func TestSkillsEmbedMarksLevels(t *testing.T) {
	defs := []sim.SkillDef{
		{ID: "viral_loops", Tree: sim.TreeMarketing, Name: "Viral Loops", MaxLevel: 5},
		{ID: "design_system", Tree: sim.TreeProduct, Name: "Design System", MaxLevel: 5},
		{ID: "brand_voice", Tree: sim.TreeMarketing, Name: "Brand Voice", MaxLevel: 2},
	}
	e := skillsEmbed(defs, map[string]int{"viral_loops": 3, "brand_voice": 2}, 4)
	if len(e.Fields) != 2 || e.Fields[0].Name != "Marketing" || e.Fields[1].Name != "Product" {
		t.Fatalf("unexpected fields %+v", e.Fields)
	}
	want := "`viral_loops` Viral Loops 3/5\n`brand_voice` Brand Voice 2/2 (max)"
	if got := e.Fields[0].Value; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got := e.Fields[1].Value; got != "`design_system` Design System 0/5" {
		t.Fatalf("got %q", got)
	}
}

func TestHelpNeedsNoCompany(t *testing.T) {
	b := newTestBot(t)

	r := run(t, b, "nobody", command{Name: "help"})
	if !r.Ephemeral || len(r.Embeds) != 1 {
		t.Fatalf("unexpected reply %+v", r)
	}
	for _, want := range []string{"`/create-startup`", "`/skills`", "list, spend, auto"} {
		if !strings.Contains(r.Embeds[0].Description, want) {
			t.Fatalf("help is missing %q in %q", want, r.Embeds[0].Description)
		}
	}
}

func TestHandleErrorsBecomeMessages(t *testing.T) {
	b := newTestBot(t)

	r := b.handle("nobody", command{Name: "stats", Args: map[string]any{}})
	if !r.Ephemeral || !strings.Contains(r.Content, "/create-startup") {
		t.Fatalf("unexpected reply %+v", r)
	}

	run(t, b, "u4", createCmd())
	r = b.handle("u4", command{Name: "boss", Sub: "status", Args: map[string]any{}})
	if r.Content != "There is no boss battle yet." {
		t.Fatalf("got %q", r.Content)
	}

	b.limiter = newLimiterSet(0.001, 1)
	_ = b.handle("u4", command{Name: "stats", Args: map[string]any{}})
	r = b.handle("u4", command{Name: "stats", Args: map[string]any{}})
	if !strings.HasPrefix(r.Content, "Slow down") {
		t.Fatalf("got %q want rate limit message", r.Content)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err      error
		want     string
		expected bool
	}{
		{&sim.Failure{Reason: sim.ErrInsufficientAP, Need: 2, Have: 1}, "Not enough action points (need 2, have 1).", true},
		{fmt.Errorf("wrap: %w", game.ErrRoleAlreadyChosen), "", true},
		{store.ErrConflict, "Someone else changed your company at the same moment. Try again.", true},
		{errors.New("disk on fire"), "Something went wrong. Please try again.", false},
	}
	for _, tt := range tests {
		got, expected := userMessage(tt.err)
		if expected != tt.expected {
			t.Fatalf("%v: expected=%v want %v", tt.err, expected, tt.expected)
		}
		if tt.want != "" && got != tt.want {
			t.Fatalf("%v: got %q want %q", tt.err, got, tt.want)
		}
	}
}

func TestMoney(t *testing.T) {
	tests := map[float64]string{
		0:       "$0.00",
		1234.5:  "$1234.50",
		-10.004: "-$10.00",
		99.999:  "$100.00",
	}
	for in, want := range tests {
		if got := money(in); got != want {
			t.Fatalf("money(%v) got %q want %q", in, got, want)
		}
	}
}
