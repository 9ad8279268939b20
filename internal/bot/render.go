package bot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"

	"github.com/KenThuan129/startup-simulation-game/internal/game"
	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

const (
	colorInfo    = 0x3498db
	colorGood    = 0x2ecc71
	colorBad     = 0xe74c3c
	colorWarning = 0xf1c40f
	colorBoss    = 0x9b59b6
)

func money(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func field(name, value string, inline bool) *discordgo.MessageEmbedField {
	if value == "" {
		value = "-"
	}
	return &discordgo.MessageEmbedField{Name: name, Value: truncate(value, 1024), Inline: inline}
}

// rows packs buttons into action rows of five, the most Discord allows.
func rows(buttons []discordgo.MessageComponent) []discordgo.MessageComponent {
	var out []discordgo.MessageComponent
	for len(buttons) > 0 && len(out) < 5 {
		n := min(5, len(buttons))
		out = append(out, discordgo.ActionsRow{Components: buttons[:n]})
		buttons = buttons[n:]
	}
	return out
}

func roleName(roles []sim.RoleDef, id string) string {
	for _, r := range roles {
		if r.ID == id {
			return r.Name
		}
	}
	return id
}

func companyEmbed(c sim.Company) *discordgo.MessageEmbed {
	color := colorInfo
	if !c.Alive {
		color = colorBad
	}
	e := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s (%s)", c.Name, c.Type),
		Description: fmt.Sprintf("Day %d · %s · %s", c.Day, c.Difficulty, c.Outcome),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			field("Cash", money(c.Cash), true),
			field("Users", strconv.Itoa(c.Users), true),
			field("Quality", trimFloat(c.Quality), true),
			field("Hype", trimFloat(c.Hype), true),
			field("Virality", trimFloat(c.Virality), true),
			field("Level", fmt.Sprintf("%d (%d XP)", c.Level, c.XP), true),
			field("Action points", strconv.Itoa(c.ActionPoints), true),
			field("Skill points", strconv.Itoa(c.SkillPoints), true),
			field("Role", c.Role, true),
		},
	}
	var goals []string
	for _, g := range c.Goals {
		mark := "⬜"
		if g.Completed {
			mark = "✅"
		}
		goals = append(goals, fmt.Sprintf("%s %s %s / %s (%.0f%%)", mark, g.Type, trimFloat(g.Progress), trimFloat(g.Target), sim.GoalProgressPercent(g)))
	}
	e.Fields = append(e.Fields, field("Goals", strings.Join(goals, "\n"), false))
	if n := len(c.PendingEvents); n > 0 {
		e.Fields = append(e.Fields, field("Pending events", strconv.Itoa(n), true))
	}
	return e
}

func levelEmbed(lv game.LevelReport) *discordgo.MessageEmbed {
	next := fmt.Sprintf("%d / %d XP (%.0f%%)", lv.XP, lv.NextAt, lv.Percent)
	if lv.MaxedOut {
		next = "Max level"
	}
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Level %d", lv.Level),
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			field("Progress", next, false),
			field("Available points", strconv.Itoa(lv.SkillPoints), true),
			field("Earned", strconv.Itoa(lv.EarnedPoints), true),
			field("Spent", strconv.Itoa(lv.SpentPoints), true),
			field("Boss bonus", strconv.Itoa(lv.BonusSkillPoints), true),
		},
	}
}

func anomalyLines(acts []sim.Activation) string {
	var lines []string
	for _, a := range acts {
		lines = append(lines, fmt.Sprintf("**%s**: %s", a.Anomaly.Name, a.Anomaly.Description))
	}
	return strings.Join(lines, "\n")
}

func dayStartEmbed(s sim.DayStart) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Day %d", s.Day),
		Color: colorInfo,
	}
	if s.BroadcastStarted {
		e.Description = "A broadcast event has begun!"
	}
	if len(s.Anomalies) > 0 {
		e.Color = colorWarning
		e.Fields = append(e.Fields, field("Anomalies", anomalyLines(s.Anomalies), false))
	}
	if s.Battle != nil {
		e.Fields = append(e.Fields, field("Boss battle", fmt.Sprintf("%s appears! Use /boss action.", s.Battle.BossName), false))
	}
	var actions []string
	for _, a := range s.Actions {
		actions = append(actions, fmt.Sprintf("`%s` %s [%s, %d AP]", a.ActionID, a.Name, a.Category, a.Cost))
	}
	e.Fields = append(e.Fields,
		field(fmt.Sprintf("Actions (%d AP)", s.ActionPoints), strings.Join(actions, "\n"), false))
	return e
}

// eventEmbed shows a pending event. Callers pass redacted events, so outcome
// types and effects never reach the player.
func eventEmbed(ev sim.PendingEvent) *discordgo.MessageEmbed {
	var choices []string
	for _, ch := range ev.Choices {
		choices = append(choices, fmt.Sprintf("`%s` %s", ch.ID, ch.Text))
	}
	return &discordgo.MessageEmbed{
		Title:       ev.Name,
		Description: ev.Description,
		Color:       colorInfo,
		Fields:      []*discordgo.MessageEmbedField{field("Choices", strings.Join(choices, "\n"), false)},
		Footer:      &discordgo.MessageEmbedFooter{Text: "event " + ev.EventID},
	}
}

func choiceRow(ev sim.PendingEvent) discordgo.MessageComponent {
	var buttons []discordgo.MessageComponent
	for _, ch := range ev.Choices {
		label := ch.Label
		if label == "" {
			label = ch.ID
		}
		buttons = append(buttons, discordgo.Button{
			Label:    truncate(label, 80),
			Style:    discordgo.SecondaryButton,
			CustomID: buttonID("choose", ev.EventID, ch.ID),
		})
		if len(buttons) == 5 {
			break
		}
	}
	return discordgo.ActionsRow{Components: buttons}
}

func effectsLine(e sim.Effects) string {
	var parts []string
	if e.Cash != 0 {
		parts = append(parts, "cash "+money(e.Cash))
	}
	if e.Users != 0 {
		parts = append(parts, fmt.Sprintf("users %+d", e.Users))
	}
	if e.Quality != 0 {
		parts = append(parts, "quality "+signed(e.Quality))
	}
	if e.Hype != 0 {
		parts = append(parts, "hype "+signed(e.Hype))
	}
	if e.XP != 0 {
		parts = append(parts, fmt.Sprintf("xp %+d", e.XP))
	}
	return strings.Join(parts, ", ")
}

func signed(v float64) string {
	if v > 0 {
		return "+" + trimFloat(v)
	}
	return trimFloat(v)
}

func resolutionEmbed(r sim.Resolution) *discordgo.MessageEmbed {
	color := colorGood
	switch r.Choice.Type {
	case sim.OutcomeFailure:
		color = colorWarning
	case sim.OutcomeCriticalFailure:
		color = colorBad
	}
	e := &discordgo.MessageEmbed{
		Title:       strings.ReplaceAll(string(r.Choice.Type), "_", " "),
		Description: r.Choice.Text,
		Color:       color,
		Fields:      []*discordgo.MessageEmbedField{field("Effects", effectsLine(r.Choice.Effects), false)},
	}
	if r.LevelUp != nil {
		e.Fields = append(e.Fields, field("Level up!", fmt.Sprintf("%d → %d (+%d points)", r.LevelUp.OldLevel, r.LevelUp.NewLevel, r.LevelUp.PointsGained), false))
	}
	if r.Anomaly != nil {
		e.Fields = append(e.Fields, field("Anomaly", anomalyLines([]sim.Activation{*r.Anomaly}), false))
	}
	return e
}

func dayEndEmbed(c sim.Company, end sim.DayEnd) *discordgo.MessageEmbed {
	t := end.Tick
	e := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Day %d closed", t.Day),
		Color: colorGood,
		Fields: []*discordgo.MessageEmbedField{
			field("Revenue", money(t.Revenue), true),
			field("Burn", money(t.Burn), true),
			field("Cash", money(c.Cash), true),
			field("Users", fmt.Sprintf("%d (%+d churn)", c.Users, -t.Churned), true),
		},
	}
	if t.Viral.Triggered {
		e.Fields = append(e.Fields, field("Viral!", fmt.Sprintf("+%d users", t.Viral.NewUsers), true))
	}
	for _, le := range t.Loans {
		line := string(le.Status)
		if le.Payment > 0 {
			line += " · paid " + money(le.Payment)
		}
		if le.Penalty > 0 {
			line += " · penalty " + money(le.Penalty)
		}
		e.Fields = append(e.Fields, field("Loan "+le.LoanID, line, false))
	}
	if len(t.GoalsCompleted) > 0 {
		e.Fields = append(e.Fields, field("Goals completed", strings.Join(t.GoalsCompleted, ", "), false))
	}
	switch {
	case t.Bankruptcy != sim.BankruptNone:
		e.Color = colorBad
		e.Description = "Bankrupt: " + strings.ReplaceAll(string(t.Bankruptcy), "_", " ")
	case end.Completed:
		e.Description = "You made it to the end of the run!"
	case !c.Alive:
		e.Color = colorBad
		e.Description = "Your company is no longer active."
	}
	return e
}

func offersEmbed(o game.LoanOffers) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       "Loan offers",
		Description: fmt.Sprintf("Credibility score %s", trimFloat(o.CredibilityScore)),
		Color:       colorInfo,
	}
	switch {
	case o.LifelineUsed:
		e.Description += "\nYour lifeline has already been used."
	case o.HasActiveLoan:
		e.Description += "\nRepay your active loan before borrowing again."
	}
	for i, off := range o.Offers {
		e.Fields = append(e.Fields, field(
			fmt.Sprintf("#%d %s", i+1, money(off.Amount)),
			fmt.Sprintf("%.0f%% interest · %d days · -%.0f%% XP", off.InterestRate*100, off.Duration, off.Sacrifice.XPPenaltyPercent),
			true))
	}
	return e
}

func loansEmbed(loans []sim.Loan, day int) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{Title: "Loans", Color: colorInfo}
	if len(loans) == 0 {
		e.Description = "No loans."
		return e
	}
	for _, l := range loans {
		line := fmt.Sprintf("%s · owed %s · paid %s", l.Status, money(l.TotalOwed()), money(l.PaidAmount))
		if l.Status == sim.LoanActive {
			line += fmt.Sprintf(" · due day %d", l.DueDay)
			if day > l.DueDay {
				line += fmt.Sprintf(" (%d days overdue)", day-l.DueDay)
			}
		}
		e.Fields = append(e.Fields, field(money(l.Amount), line, false))
	}
	return e
}

func battleEmbed(b sim.BossBattle) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title: b.BossName,
		Color: colorBoss,
		Fields: []*discordgo.MessageEmbedField{
			field("Boss HP", fmt.Sprintf("%d / %d", b.BossHealth, b.MaxHealth), true),
			field("Your HP", strconv.Itoa(b.PlayerHealth), true),
			field("Turn", strconv.Itoa(b.CurrentTurn), true),
			field("Status", string(b.Status), true),
		},
	}
	if b.Status == sim.BattleActive && !b.TurnDeadline.IsZero() {
		e.Footer = &discordgo.MessageEmbedFooter{Text: "Next move due " + b.TurnDeadline.UTC().Format("2006-01-02 15:04 MST")}
	}
	return e
}

func moveRow() discordgo.MessageComponent {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "Attack", Style: discordgo.DangerButton, CustomID: buttonID("boss", string(sim.MoveAttack))},
		discordgo.Button{Label: "Defend", Style: discordgo.PrimaryButton, CustomID: buttonID("boss", string(sim.MoveDefend))},
		discordgo.Button{Label: "Special (XP)", Style: discordgo.SuccessButton, CustomID: buttonID("boss", string(sim.MoveSpecial))},
	}}
}

func anomalyEmbed(entries []sim.AnomalyLogEntry) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{Title: "Recent anomalies", Color: colorWarning}
	if len(entries) == 0 {
		e.Description = "Nothing unusual so far."
		return e
	}
	var lines []string
	for _, a := range entries {
		lines = append(lines, fmt.Sprintf("Day %d `%s` %s", a.Day, a.AnomalyID, effectsLine(a.Effects)))
	}
	e.Description = strings.Join(lines, "\n")
	return e
}

// skillsEmbed groups the catalog by tree, in catalog order, with the company's level beside each skill.
func skillsEmbed(defs []sim.SkillDef, levels map[string]int, points int) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       "Skills",
		Description: fmt.Sprintf("%d skill points available. Use /skills spend or /skills auto.", points),
		Color:       colorInfo,
	}
	var trees []sim.Tree
	byTree := map[sim.Tree][]string{}
	for _, d := range defs {
		if _, seen := byTree[d.Tree]; !seen {
			trees = append(trees, d.Tree)
		}
		line := fmt.Sprintf("`%s` %s %d/%d", d.ID, d.Name, levels[d.ID], d.MaxLevel)
		if levels[d.ID] >= d.MaxLevel {
			line += " (max)"
		}
		byTree[d.Tree] = append(byTree[d.Tree], line)
	}
	for _, t := range trees {
		e.Fields = append(e.Fields, field(capitalize(string(t)), strings.Join(byTree[t], "\n"), false))
	}
	return e
}

func helpEmbed(cmds []*discordgo.ApplicationCommand) *discordgo.MessageEmbed {
	var lines []string
	for _, c := range cmds {
		var subs []string
		for _, o := range c.Options {
			if o.Type == discordgo.ApplicationCommandOptionSubCommand {
				subs = append(subs, o.Name)
			}
		}
		line := fmt.Sprintf("`/%s` %s", c.Name, c.Description)
		if len(subs) > 0 {
			line += " (" + strings.Join(subs, ", ") + ")"
		}
		lines = append(lines, line)
	}
	return &discordgo.MessageEmbed{Title: "Commands", Description: strings.Join(lines, "\n"), Color: colorInfo}
}
