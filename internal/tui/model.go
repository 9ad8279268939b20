// Package tui is a terminal front end for playing one company locally.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/KenThuan129/startup-simulation-game/internal/game"
	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

const (
	maxMessages = 8
	repayStep   = 1000
	opTimeout   = 5 * time.Second
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("12")).Padding(0, 1)
	bossStyle   = panelStyle.BorderForeground(lipgloss.Color("5"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	chosenStyle = dimStyle.Strikethrough(true)
)

type Model struct {
	svc       *game.Service
	companyID string
	company   sim.Company
	battle    *sim.BossBattle
	offers    *game.LoanOffers
	messages  []string
	keys      keyMap
	help      help.Model
	width     int
	quitting  bool
}

func New(ctx context.Context, svc *game.Service, companyID string) (Model, error) {
	m := Model{svc: svc, companyID: companyID, keys: defaultKeys(), help: help.New()}
	if err := m.reload(ctx); err != nil {
		return Model{}, err
	}
	m.notify("Welcome to %s. Press s to start the day.", m.company.Name)
	return m, nil
}

// Run blocks until the player quits.
func Run(ctx context.Context, svc *game.Service, companyID string) error {
	m, err := New(ctx, svc, companyID)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m *Model) reload(ctx context.Context) error {
	c, err := m.svc.Company(ctx, m.companyID)
	if err != nil {
		return err
	}
	m.company = game.Redact(c)
	b, err := m.svc.BossStatus(ctx, m.companyID)
	switch {
	case errors.Is(err, game.ErrNoBossBattle):
		m.battle = nil
	case err != nil:
		return err
	default:
		m.battle = &b
	}
	return nil
}

func (m *Model) notify(format string, args ...any) {
	m.messages = append(m.messages, fmt.Sprintf(format, args...))
	if len(m.messages) > maxMessages {
		m.messages = m.messages[len(m.messages)-maxMessages:]
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Help) {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := m.handleKey(ctx, msg); err != nil {
			m.notify("%s", badStyle.Render(err.Error()))
		}
		if err := m.reload(ctx); err != nil {
			m.notify("%s", badStyle.Render(err.Error()))
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(ctx context.Context, msg tea.KeyMsg) error {
	switch {
	case key.Matches(msg, m.keys.Start):
		out, err := m.svc.StartDay(ctx, m.companyID)
		if err != nil {
			return err
		}
		m.offers = nil
		m.notify("Day %d begins with %d AP.", out.Start.Day, out.Start.ActionPoints)
		for _, a := range out.Start.Anomalies {
			m.notify("%s", warnStyle.Render("Anomaly: "+a.Anomaly.Name))
		}
		if out.Start.Battle != nil {
			m.notify("%s", warnStyle.Render(out.Start.Battle.BossName+" appears!"))
		}
	case key.Matches(msg, m.keys.Pick):
		n := int(msg.Runes[0] - '1')
		if len(m.company.PendingEvents) > 0 {
			return m.choose(ctx, n)
		}
		return m.takeAction(ctx, n)
	case key.Matches(msg, m.keys.End):
		out, err := m.svc.EndDay(ctx, m.companyID)
		if err != nil {
			return err
		}
		t := out.End.Tick
		m.notify("Day %d closed: revenue %.2f, burn %.2f, cash %.2f.", t.Day, t.Revenue, t.Burn, out.Company.Cash)
		if t.Bankruptcy != sim.BankruptNone {
			m.notify("%s", badStyle.Render("Bankrupt: "+string(t.Bankruptcy)))
		}
		if out.End.Completed {
			m.notify("%s", goodStyle.Render("Run complete!"))
		}
	case key.Matches(msg, m.keys.Auto):
		out, err := m.svc.AutoAllocate(ctx, m.companyID)
		if err != nil {
			return err
		}
		if len(out.Upgrades) == 0 {
			m.notify("No skill points to spend.")
		}
		for _, u := range out.Upgrades {
			m.notify("%s → level %d", u.SkillID, u.NewLevel)
		}
	case key.Matches(msg, m.keys.Offers):
		out, err := m.svc.LoanOffers(ctx, m.companyID)
		if err != nil {
			return err
		}
		m.offers = &out
	case key.Matches(msg, m.keys.Borrow):
		out, err := m.svc.AcceptLoan(ctx, m.companyID, 0)
		if err != nil {
			return err
		}
		m.offers = nil
		m.notify("Borrowed %.2f, due day %d.", out.Loan.Amount, out.Loan.DueDay)
	case key.Matches(msg, m.keys.Repay):
		out, err := m.svc.PayLoan(ctx, m.companyID, "", repayStep)
		if err != nil {
			return err
		}
		m.notify("Repaid %.2f, %.2f remaining.", out.Payment.Paid, out.Payment.Remaining)
	case key.Matches(msg, m.keys.Attack):
		return m.bossMove(ctx, sim.MoveAttack)
	case key.Matches(msg, m.keys.Defend):
		return m.bossMove(ctx, sim.MoveDefend)
	case key.Matches(msg, m.keys.Special):
		return m.bossMove(ctx, sim.MoveSpecial)
	}
	return nil
}

func (m *Model) takeAction(ctx context.Context, n int) error {
	if n < 0 || n >= len(m.company.DailyActions) {
		return nil
	}
	a := m.company.DailyActions[n]
	out, err := m.svc.TakeAction(ctx, m.companyID, a.ActionID)
	if err != nil {
		return err
	}
	m.notify("%s: %d event(s) to answer.", a.Name, len(out.Events))
	return nil
}

func (m *Model) choose(ctx context.Context, n int) error {
	ev := m.company.PendingEvents[0]
	if n < 0 || n >= len(ev.Choices) {
		return nil
	}
	out, err := m.svc.Choose(ctx, m.companyID, ev.EventID, ev.Choices[n].ID)
	if err != nil {
		return err
	}
	style := goodStyle
	switch out.Resolution.Choice.Type {
	case sim.OutcomeFailure:
		style = warnStyle
	case sim.OutcomeCriticalFailure:
		style = badStyle
	}
	m.notify("%s", style.Render(fmt.Sprintf("%s: %s", strings.ReplaceAll(string(out.Resolution.Choice.Type), "_", " "), out.Resolution.Choice.Text)))
	if lu := out.Resolution.LevelUp; lu != nil {
		m.notify("%s", goodStyle.Render(fmt.Sprintf("Level up! %d → %d", lu.OldLevel, lu.NewLevel)))
	}
	return nil
}

func (m *Model) bossMove(ctx context.Context, move sim.PlayerMove) error {
	out, err := m.svc.BossAction(ctx, m.companyID, move, sim.DefaultSpecialCost)
	if err != nil {
		return err
	}
	m.notify("%s", out.Turn.Message)
	return nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	c := m.company
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s · day %d · %s", c.Name, c.Day, c.Difficulty)))
	b.WriteString("\n")

	stats := fmt.Sprintf("%s %.2f   %s %d   %s %.1f   %s %.1f\n%s %d (%d XP)   %s %d   %s %d",
		labelStyle.Render("cash"), c.Cash,
		labelStyle.Render("users"), c.Users,
		labelStyle.Render("quality"), c.Quality,
		labelStyle.Render("hype"), c.Hype,
		labelStyle.Render("level"), c.Level, c.XP,
		labelStyle.Render("skill pts"), c.SkillPoints,
		labelStyle.Render("AP"), c.ActionPoints,
	)
	if !c.Alive {
		stats += "\n" + badStyle.Render("Company is "+string(c.Outcome))
	}
	b.WriteString(panelStyle.Render(stats))
	b.WriteString("\n")

	switch {
	case len(c.PendingEvents) > 0:
		ev := c.PendingEvents[0]
		lines := []string{titleStyle.Render(ev.Name), ev.Description}
		for i, ch := range ev.Choices {
			lines = append(lines, fmt.Sprintf("%d) %s", i+1, ch.Text))
		}
		if more := len(c.PendingEvents) - 1; more > 0 {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("+%d more pending", more)))
		}
		b.WriteString(panelStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	case len(c.DailyActions) > 0:
		var lines []string
		for i, a := range c.DailyActions {
			line := fmt.Sprintf("%d) %s [%s, %d AP]", i+1, a.Name, a.Category, a.Cost)
			if a.Selected {
				line = chosenStyle.Render(line)
			}
			lines = append(lines, line)
		}
		b.WriteString(panelStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	if bt := m.battle; bt != nil && bt.Status == sim.BattleActive {
		b.WriteString(bossStyle.Render(fmt.Sprintf("%s  HP %d/%d  your HP %d  turn %d",
			bt.BossName, bt.BossHealth, bt.MaxHealth, bt.PlayerHealth, bt.CurrentTurn)))
		b.WriteString("\n")
	}

	if o := m.offers; o != nil {
		lines := []string{fmt.Sprintf("credibility %.0f", o.CredibilityScore)}
		for i, off := range o.Offers {
			lines = append(lines, fmt.Sprintf("%d) %.2f at %.0f%% for %d days", i+1, off.Amount, off.InterestRate*100, off.Duration))
		}
		b.WriteString(panelStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	for _, msg := range m.messages {
		b.WriteString(msg)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
