package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/KenThuan129/startup-simulation-game/internal/game"
	"github.com/KenThuan129/startup-simulation-game/internal/sim"
	"github.com/KenThuan129/startup-simulation-game/internal/store"
)

const specialCashCost = 2000

var errUnknownCommand = errors.New("unknown command")

type reply struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Ephemeral  bool
}

func textReply(format string, args ...any) reply {
	return reply{Content: fmt.Sprintf(format, args...)}
}

func (b *Bot) dispatch(ctx context.Context, userID string, cmd command) (reply, error) {
	if cmd.Name == "create-startup" {
		return b.createStartup(ctx, userID, cmd)
	}
	if cmd.Name == "help" {
		return reply{Embeds: []*discordgo.MessageEmbed{helpEmbed(applicationCommands(b.catalog.Roles()))}, Ephemeral: true}, nil
	}
	if cmd.Name == "reset" {
		c, err := b.game.Reset(ctx, userID)
		if err != nil {
			return reply{}, err
		}
		return textReply("**%s** was abandoned on day %d. Use /create-startup to begin again.", c.Name, c.Day), nil
	}

	c, err := b.game.ActiveCompany(ctx, userID)
	if err != nil {
		return reply{}, err
	}

	switch cmd.Name {
	case "role":
		return b.chooseRole(ctx, c, cmd)
	case "start-day":
		return b.startDay(ctx, c)
	case "action":
		return b.takeAction(ctx, c, cmd)
	case "choose":
		return b.choose(ctx, c, cmd)
	case "end-day":
		return b.endDay(ctx, c)
	case "stats":
		return reply{Embeds: []*discordgo.MessageEmbed{companyEmbed(game.Redact(c))}}, nil
	case "level":
		lv, err := b.game.LevelInfo(ctx, c.ID)
		if err != nil {
			return reply{}, err
		}
		return reply{Embeds: []*discordgo.MessageEmbed{levelEmbed(lv)}}, nil
	case "skills":
		return b.skills(ctx, c, cmd)
	case "loan":
		return b.loan(ctx, c, cmd)
	case "boss":
		return b.boss(ctx, c, cmd)
	case "anomalies":
		entries, err := b.game.AnomalyLog(ctx, c.ID, 10)
		if err != nil {
			return reply{}, err
		}
		return reply{Embeds: []*discordgo.MessageEmbed{anomalyEmbed(entries)}}, nil
	}
	return reply{}, fmt.Errorf("%w: %s", errUnknownCommand, cmd.Name)
}

func (b *Bot) createStartup(ctx context.Context, userID string, cmd command) (reply, error) {
	in := game.CreateCompanyInput{
		OwnerID:    userID,
		Name:       cmd.str("name"),
		Type:       cmd.str("type"),
		Difficulty: sim.Difficulty(cmd.str("difficulty")),
	}
	for i := 1; i <= game.MaxGoals; i++ {
		suffix := ""
		if i > 1 {
			suffix = fmt.Sprint(i)
		}
		goal := cmd.str("goal" + suffix)
		if goal == "" {
			continue
		}
		in.Goals = append(in.Goals, game.GoalInput{Type: sim.GoalType(goal), Target: cmd.number("target" + suffix)})
	}
	c, err := b.game.CreateCompany(ctx, in)
	if err != nil {
		return reply{}, err
	}
	b.log.Info("startup created", "owner_id", userID, "company_id", c.ID)
	return reply{
		Content: fmt.Sprintf("**%s** is open for business. Pick a role with /role, then /start-day.", c.Name),
		Embeds:  []*discordgo.MessageEmbed{companyEmbed(c)},
	}, nil
}

func (b *Bot) chooseRole(ctx context.Context, c sim.Company, cmd command) (reply, error) {
	var ids []string
	for _, r := range b.catalog.Roles() {
		ids = append(ids, r.ID)
	}
	id, sugg, ok := resolveID(cmd.str("role"), ids)
	if !ok {
		return notFound("role", cmd.str("role"), sugg), nil
	}
	next, err := b.game.ChooseRole(ctx, c.ID, id)
	if err != nil {
		return reply{}, err
	}
	return textReply("You are now the **%s** of %s.", roleName(b.catalog.Roles(), next.Role), next.Name), nil
}

func (b *Bot) startDay(ctx context.Context, c sim.Company) (reply, error) {
	out, err := b.game.StartDay(ctx, c.ID)
	if err != nil {
		return reply{}, err
	}
	r := reply{Embeds: []*discordgo.MessageEmbed{dayStartEmbed(out.Start)}}
	var buttons []discordgo.MessageComponent
	for _, a := range out.Start.Actions {
		buttons = append(buttons, discordgo.Button{
			Label:    truncate(a.Name, 80),
			Style:    discordgo.PrimaryButton,
			CustomID: buttonID("action", a.ActionID),
		})
	}
	r.Components = rows(buttons)
	return r, nil
}

func (b *Bot) takeAction(ctx context.Context, c sim.Company, cmd command) (reply, error) {
	var ids []string
	for _, a := range c.DailyActions {
		if !a.Selected {
			ids = append(ids, a.ActionID)
		}
	}
	if len(ids) == 0 {
		return textReply("No actions left today. Use /start-day or /end-day."), nil
	}
	id, sugg, ok := resolveID(cmd.str("id"), ids)
	if !ok {
		return notFound("action", cmd.str("id"), sugg), nil
	}
	out, err := b.game.TakeAction(ctx, c.ID, id)
	if err != nil {
		return reply{}, err
	}
	r := reply{Content: fmt.Sprintf("Action taken. %d AP left.", out.Company.ActionPoints)}
	for _, ev := range out.Events {
		r.Embeds = append(r.Embeds, eventEmbed(ev))
		r.Components = append(r.Components, choiceRow(ev))
	}
	if len(out.Events) == 0 {
		r.Content += " Nothing happened."
	}
	return r, nil
}

func (b *Bot) choose(ctx context.Context, c sim.Company, cmd command) (reply, error) {
	var eventIDs []string
	for _, ev := range c.PendingEvents {
		eventIDs = append(eventIDs, ev.EventID)
	}
	if len(eventIDs) == 0 {
		return textReply("There are no pending events."), nil
	}
	eventID, sugg, ok := resolveID(cmd.str("event"), eventIDs)
	if !ok {
		return notFound("event", cmd.str("event"), sugg), nil
	}
	ev, _, _ := c.PendingEvent(eventID)
	var choiceIDs []string
	for _, ch := range ev.Choices {
		choiceIDs = append(choiceIDs, ch.ID)
	}
	choiceID, sugg, ok := resolveID(cmd.str("choice"), choiceIDs)
	if !ok {
		return notFound("choice", cmd.str("choice"), sugg), nil
	}
	out, err := b.game.Choose(ctx, c.ID, eventID, choiceID)
	if err != nil {
		return reply{}, err
	}
	return reply{Embeds: []*discordgo.MessageEmbed{resolutionEmbed(out.Resolution)}}, nil
}

func (b *Bot) endDay(ctx context.Context, c sim.Company) (reply, error) {
	out, err := b.game.EndDay(ctx, c.ID)
	if err != nil {
		return reply{}, err
	}
	r := reply{Embeds: []*discordgo.MessageEmbed{dayEndEmbed(out.Company, out.End)}}
	if out.Company.Alive {
		r.Components = rows([]discordgo.MessageComponent{
			discordgo.Button{Label: "Start next day", Style: discordgo.SuccessButton, CustomID: buttonID("start-day")},
		})
	}
	return r, nil
}

func (b *Bot) skills(ctx context.Context, c sim.Company, cmd command) (reply, error) {
	switch cmd.Sub {
	case "list":
		return reply{Embeds: []*discordgo.MessageEmbed{skillsEmbed(b.catalog.Skills(), c.Skills, c.SkillPoints)}}, nil
	case "spend":
		var ids []string
		for _, s := range b.catalog.Skills() {
			ids = append(ids, s.ID)
		}
		id, sugg, ok := resolveID(cmd.str("skill"), ids)
		if !ok {
			return notFound("skill", cmd.str("skill"), sugg), nil
		}
		levels := cmd.integer("levels")
		if levels <= 0 {
			levels = 1
		}
		next, err := b.game.SpendSkill(ctx, c.ID, id, levels)
		if err != nil {
			return reply{}, err
		}
		return textReply("**%s** is now level %d. %d skill points left.", id, next.Skills[id], next.SkillPoints), nil
	case "auto":
		out, err := b.game.AutoAllocate(ctx, c.ID)
		if err != nil {
			return reply{}, err
		}
		if len(out.Upgrades) == 0 {
			return textReply("No skill points to spend."), nil
		}
		var lines []string
		for _, u := range out.Upgrades {
			lines = append(lines, fmt.Sprintf("`%s` → level %d", u.SkillID, u.NewLevel))
		}
		return textReply("Auto-allocated:\n%s", strings.Join(lines, "\n")), nil
	}
	return reply{}, fmt.Errorf("%w: skills %s", errUnknownCommand, cmd.Sub)
}

func (b *Bot) loan(ctx context.Context, c sim.Company, cmd command) (reply, error) {
	switch cmd.Sub {
	case "offers":
		out, err := b.game.LoanOffers(ctx, c.ID)
		if err != nil {
			return reply{}, err
		}
		r := reply{Embeds: []*discordgo.MessageEmbed{offersEmbed(out)}}
		if !out.LifelineUsed && !out.HasActiveLoan {
			var buttons []discordgo.MessageComponent
			for i := range out.Offers {
				buttons = append(buttons, discordgo.Button{
					Label:    fmt.Sprintf("Accept #%d", i+1),
					Style:    discordgo.SecondaryButton,
					CustomID: buttonID("loan", fmt.Sprint(i+1)),
				})
			}
			r.Components = rows(buttons)
		}
		return r, nil
	case "accept":
		out, err := b.game.AcceptLoan(ctx, c.ID, cmd.integer("offer")-1)
		if err != nil {
			return reply{}, err
		}
		return textReply("Loan of %s accepted. Total owed %s, due day %d.", money(out.Loan.Amount), money(out.Loan.TotalOwed()), out.Loan.DueDay), nil
	case "pay":
		out, err := b.game.PayLoan(ctx, c.ID, "", cmd.number("amount"))
		if err != nil {
			return reply{}, err
		}
		msg := fmt.Sprintf("Paid %s. Remaining %s.", money(out.Payment.Paid), money(out.Payment.Remaining))
		if out.Payment.PaidOff {
			msg += " Loan paid off!"
		}
		return textReply("%s", msg), nil
	case "status":
		loans, err := b.game.Loans(ctx, c.ID)
		if err != nil {
			return reply{}, err
		}
		return reply{Embeds: []*discordgo.MessageEmbed{loansEmbed(loans, c.Day)}}, nil
	}
	return reply{}, fmt.Errorf("%w: loan %s", errUnknownCommand, cmd.Sub)
}

func (b *Bot) boss(ctx context.Context, c sim.Company, cmd command) (reply, error) {
	switch cmd.Sub {
	case "status":
		battle, err := b.game.BossStatus(ctx, c.ID)
		if err != nil {
			return reply{}, err
		}
		r := reply{Embeds: []*discordgo.MessageEmbed{battleEmbed(battle)}}
		if battle.Status == sim.BattleActive {
			r.Components = []discordgo.MessageComponent{moveRow()}
		}
		return r, nil
	case "action":
		move, err := game.ParseMove(cmd.str("move"))
		if err != nil {
			return reply{}, err
		}
		cost := sim.DefaultSpecialCost
		if cmd.str("pay") == "cash" {
			cost = sim.SpecialCost{Cash: specialCashCost}
		}
		out, err := b.game.BossAction(ctx, c.ID, move, cost)
		if errors.Is(err, game.ErrBattleExpired) {
			return textReply("You waited too long. %s walked away and the battle expired.", out.Battle.BossName), nil
		}
		if err != nil {
			return reply{}, err
		}
		r := reply{Content: out.Turn.Message, Embeds: []*discordgo.MessageEmbed{battleEmbed(out.Battle)}}
		if out.Battle.Status == sim.BattleActive {
			r.Components = []discordgo.MessageComponent{moveRow()}
		}
		return r, nil
	}
	return reply{}, fmt.Errorf("%w: boss %s", errUnknownCommand, cmd.Sub)
}

func notFound(kind, input string, suggestions []string) reply {
	msg := fmt.Sprintf("Unknown %s `%s`.", kind, input)
	if len(suggestions) > 0 {
		msg += " Did you mean: `" + strings.Join(suggestions, "`, `") + "`?"
	}
	return reply{Content: msg, Ephemeral: true}
}

// userMessage turns a service error into something a player can act on.
// The bool reports whether the error was expected.
func userMessage(err error) (string, bool) {
	var failure *sim.Failure
	switch {
	case errors.As(err, &failure):
		if failure.Need == 0 && failure.Have == 0 {
			return capitalize(failure.Reason.Error()) + ".", true
		}
		return fmt.Sprintf("%s (need %s, have %s).", capitalize(failure.Reason.Error()), trimFloat(failure.Need), trimFloat(failure.Have)), true
	case errors.Is(err, game.ErrNoActiveCompany):
		return "You don't have an active startup. Use /create-startup.", true
	case errors.Is(err, store.ErrExists):
		return "You already run a startup. Use /reset to abandon it first.", true
	case errors.Is(err, store.ErrConflict):
		return "Someone else changed your company at the same moment. Try again.", true
	case errors.Is(err, game.ErrNoBossBattle):
		return "There is no boss battle yet.", true
	}
	for _, known := range expectedErrors {
		if errors.Is(err, known) {
			return capitalize(err.Error()) + ".", true
		}
	}
	return "Something went wrong. Please try again.", false
}

var expectedErrors = []error{
	game.ErrInvalidName, game.ErrUnknownCompanyType, game.ErrUnknownDifficulty,
	game.ErrInvalidGoal, game.ErrRoleAlreadyChosen, game.ErrUnknownOffer,
	game.ErrNoActiveLoan, game.ErrUnknownMove, game.ErrBattleExpired,
	sim.ErrCompanyInactive, sim.ErrUnknownSkill, sim.ErrUnknownAction,
	sim.ErrUnknownEvent, sim.ErrUnknownChoice, sim.ErrSkillMaxed,
	sim.ErrInsufficientSkillPoints, sim.ErrInvalidAmount, sim.ErrActionNotOffered,
	sim.ErrActionAlreadyTaken, sim.ErrActionLocked, sim.ErrInsufficientAP,
	sim.ErrLifelineActive, sim.ErrLoanNotActive, sim.ErrInsufficientCash,
	sim.ErrInsufficientXP, sim.ErrBattleNotActive, sim.ErrUnknownBossMove,
	sim.ErrUnknownRole, sim.ErrDayAlreadyStarted, errUnknownCommand,
}
