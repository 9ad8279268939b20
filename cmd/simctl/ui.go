package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/KenThuan129/startup-simulation-game/internal/content"
	"github.com/KenThuan129/startup-simulation-game/internal/replay"
	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)

	reportBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("6")).Padding(0, 2)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

// quietLogger discards logs so they do not draw over the TUI.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func promptSecret(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		text, err := stdinReader.ReadString('\n')
		if err != nil && text == "" {
			return "", err
		}
		return strings.TrimSpace(text), nil
	}
	for {
		fmt.Printf("%s: ", label)
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		if text := strings.TrimSpace(string(raw)); text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func renderSimulation(res sim.SimulationResult) {
	cfg := res.Config
	lines := []string{
		accent.Sprintf("%d × %s, %d days, seed %d", len(res.Companies), cfg.Difficulty, cfg.Days, cfg.Seed),
		fmt.Sprintf("survived   %d (%s)", res.Survived, formatPercent(res.SurvivalRate)),
		fmt.Sprintf("avg cash   %s", colorizeMoney(res.AvgCash)),
		fmt.Sprintf("avg users  %.2f", res.AvgUsers),
		fmt.Sprintf("avg level  %.2f", res.AvgLevel),
		fmt.Sprintf("boss wins  %d", res.BossWins),
	}
	fmt.Println(reportBox.Render(strings.Join(lines, "\n")))

	fmt.Printf("%-14s %-10s %5s %14s %8s %5s %-8s\n", "ID", "OUTCOME", "DAY", "CASH", "USERS", "LVL", "BOSS")
	for _, c := range res.Companies {
		fmt.Printf("%-14s %-10s %5d %14s %8d %5d %-8s\n",
			truncate(c.ID, 14), colorizeOutcome(c.Outcome), c.Day, formatMoney(c.Cash), c.Users, c.Level, c.Boss)
	}
}

func renderReplay(s replay.Summary) {
	h := s.Header
	accent.Printf("Replay v%d, %s, %d companies, seed %d\n", h.Version, h.Config.Difficulty, h.Config.Companies, h.Config.Seed)
	printInfo(fmt.Sprintf("content %s, recorded %s, %d day records", shortDigest(h.ContentDigest), h.CreatedAt.Format("2006-01-02 15:04"), s.Records))
	fmt.Printf("%-14s %5s %5s %14s %8s %-6s %9s %5s\n", "ID", "DAYS", "LAST", "CASH", "USERS", "ALIVE", "ANOMALIES", "BOSS")
	for _, c := range s.Companies {
		alive := success.Sprint("yes")
		if !c.Alive {
			alive = danger.Sprint("no")
		}
		fmt.Printf("%-14s %5d %5d %14s %8d %-6s %9d %5d\n",
			truncate(c.ID, 14), c.Days, c.LastDay, formatMoney(c.Cash), c.Users, alive, c.Anomalies, c.BossTurns)
	}
}

func renderDayRecord(d sim.DayRecord) {
	t := d.Tick
	fmt.Printf("%s day %3d  cash %s  users %d  rev %s  burn %s",
		truncate(d.CompanyID, 14), d.Day, formatMoney(d.Snapshot.Cash), d.Snapshot.Users, formatMoney(t.Revenue), formatMoney(t.Burn))
	if len(d.Actions) > 0 {
		fmt.Printf("  actions %s", strings.Join(d.Actions, ","))
	}
	if len(d.Anomalies) > 0 {
		fmt.Printf("  %s", warn.Sprint("anomalies "+strings.Join(d.Anomalies, ",")))
	}
	if d.Boss != nil {
		fmt.Printf("  boss %s", d.Boss.Status)
	}
	if t.Bankruptcy != sim.BankruptNone {
		fmt.Printf("  %s", danger.Sprint("bankrupt: "+string(t.Bankruptcy)))
	}
	fmt.Println()
}

func renderContent(s content.Summary) {
	accent.Printf("Content %s\n", s.Digest)
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := s.Tables[name]
		fmt.Printf("  %-12s %4d  %s\n", name, t.Count, shortDigest(t.Digest))
	}
}

func renderDifficulties(t sim.Tuning) {
	accent.Printf("Campaign: %d days, boss on day %d, anomaly chance %s\n", t.MaxDay, t.BossDay, formatPercent(t.AnomalyChance))
	fmt.Printf("%-14s %5s %10s %6s %8s %8s %8s %12s\n", "DIFFICULTY", "AP", "BASE BURN", "BURN×", "RETAIN", "CHURN", "BIAS", "START CASH")
	for _, d := range sim.Difficulties() {
		c := t.Difficulty(d)
		fmt.Printf("%-14s %5d %10s %6.2f %8s %8s %8s %12s\n",
			d, c.ActionLimit, formatMoney(c.BaseBurn), c.BurnMultiplier,
			signedPercent(c.RetentionBonus), signedPercent(c.ChurnPenalty), signedPercent(c.PositiveBias), formatMoney(c.InitialCash))
	}
}

func renderCompany(c sim.Company) {
	accent.Printf("%s (%s, %s)\n", c.Name, c.Type, c.Difficulty)
	fmt.Printf("  id %s  owner %s  day %d  %s\n", c.ID, c.OwnerID, c.Day, colorizeOutcome(c.Outcome))
	fmt.Printf("  cash %s  users %d  quality %.1f  hype %.1f  virality %.2f\n", colorizeMoney(c.Cash), c.Users, c.Quality, c.Hype, c.Virality)
	fmt.Printf("  level %d  xp %d  skill points %d  AP %d\n", c.Level, c.XP, c.SkillPoints, c.ActionPoints)
	for _, g := range c.Goals {
		mark := neutral.Sprint("·")
		if g.Completed {
			mark = success.Sprint("✓")
		}
		fmt.Printf("  %s %-18s %s / %s\n", mark, g.Type, trimNumber(g.Progress), trimNumber(g.Target))
	}
}

func renderLoans(loans []sim.Loan) {
	if len(loans) == 0 {
		return
	}
	accent.Println("Loans")
	for _, l := range loans {
		fmt.Printf("  %-10s %s at %s, due day %d, paid %s\n",
			l.Status, formatMoney(l.Amount), formatPercent(l.InterestRate), l.DueDay, formatMoney(l.PaidAmount))
	}
}

func renderBattle(b sim.BossBattle) {
	accent.Printf("Boss: %s (%s)\n", b.BossName, b.Status)
	fmt.Printf("  HP %d/%d  player HP %d  turn %d\n", b.BossHealth, b.MaxHealth, b.PlayerHealth, b.CurrentTurn)
	if b.Status == sim.BattleActive && !b.TurnDeadline.IsZero() {
		fmt.Printf("  turn deadline %s\n", b.TurnDeadline.Format("2006-01-02 15:04 MST"))
	}
}

func renderAnomalies(entries []sim.AnomalyLogEntry) {
	if len(entries) == 0 {
		return
	}
	accent.Println("Recent anomalies")
	for _, e := range entries {
		fmt.Printf("  day %3d  %s\n", e.Day, e.AnomalyID)
	}
}

func colorizeMoney(v float64) string {
	text := formatMoney(v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizeOutcome(o sim.Outcome) string {
	switch o {
	case sim.OutcomeActive, sim.OutcomeCompleted:
		return success.Sprint(o)
	case sim.OutcomeBankrupt, sim.OutcomeDefeated:
		return danger.Sprint(o)
	default:
		return warn.Sprint(o)
	}
}

func formatPercent(v float64) string {
	return trimNumber(v*100) + "%"
}

func signedPercent(v float64) string {
	if v > 0 {
		return "+" + formatPercent(v)
	}
	return formatPercent(v)
}

func trimNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// formatMoney renders cents with thousands separators, e.g. -1,234.50.
func formatMoney(v float64) string {
	cents := int64(math.Round(v * 100))
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s.%02d", sign, comma(cents/100), cents%100)
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		b.WriteByte(',')
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func shortDigest(d string) string {
	if len(d) <= 12 {
		return d
	}
	return d[:12]
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
