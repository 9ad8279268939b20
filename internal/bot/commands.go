package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/KenThuan129/startup-simulation-game/internal/game"
	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

// command is one player request, decoupled from how it arrived (slash
// command or button).
type command struct {
	Name string
	Sub  string
	Args map[string]any
}

func (c command) str(name string) string {
	switch v := c.Args[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (c command) integer(name string) int {
	switch v := c.Args[name].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func (c command) number(name string) float64 {
	switch v := c.Args[name].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func fromSlash(data discordgo.ApplicationCommandInteractionData) command {
	cmd := command{Name: data.Name, Args: map[string]any{}}
	opts := data.Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		cmd.Sub = opts[0].Name
		opts = opts[0].Options
	}
	for _, o := range opts {
		switch o.Type {
		case discordgo.ApplicationCommandOptionString:
			cmd.Args[o.Name] = o.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			cmd.Args[o.Name] = o.IntValue()
		case discordgo.ApplicationCommandOptionNumber:
			cmd.Args[o.Name] = o.FloatValue()
		case discordgo.ApplicationCommandOptionBoolean:
			cmd.Args[o.Name] = o.BoolValue()
		}
	}
	return cmd
}

// Button custom ids are "name|arg|arg".
func buttonID(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), "|")
}

func fromButton(customID string) (command, bool) {
	parts := strings.Split(customID, "|")
	cmd := command{Name: parts[0], Args: map[string]any{}}
	switch parts[0] {
	case "choose":
		if len(parts) != 3 {
			return command{}, false
		}
		cmd.Args["event"], cmd.Args["choice"] = parts[1], parts[2]
	case "action":
		if len(parts) != 2 {
			return command{}, false
		}
		cmd.Args["id"] = parts[1]
	case "boss":
		if len(parts) != 2 {
			return command{}, false
		}
		cmd.Sub = "action"
		cmd.Args["move"] = parts[1]
	case "loan":
		if len(parts) != 2 {
			return command{}, false
		}
		cmd.Sub = "accept"
		cmd.Args["offer"] = parts[1]
	case "end-day", "start-day":
		if len(parts) != 1 {
			return command{}, false
		}
	default:
		return command{}, false
	}
	return cmd, true
}

func stringChoices[T ~string](values []T) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(values))
	for _, v := range values {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: string(v), Value: string(v)})
	}
	return out
}

func goalOptions() []*discordgo.ApplicationCommandOption {
	var out []*discordgo.ApplicationCommandOption
	for i := 1; i <= game.MaxGoals; i++ {
		suffix := ""
		if i > 1 {
			suffix = strconv.Itoa(i)
		}
		out = append(out,
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "goal" + suffix,
				Description: fmt.Sprintf("Goal %d", i),
				Required:    i == 1,
				Choices:     stringChoices(sim.GoalTypes()),
			},
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        "target" + suffix,
				Description: fmt.Sprintf("Target for goal %d", i),
				Required:    i == 1,
			},
		)
	}
	// Discord wants every required option before the optional ones.
	var req, opt []*discordgo.ApplicationCommandOption
	for _, o := range out {
		if o.Required {
			req = append(req, o)
		} else {
			opt = append(opt, o)
		}
	}
	return append(req, opt...)
}

func applicationCommands(roles []sim.RoleDef) []*discordgo.ApplicationCommand {
	roleChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(roles))
	for _, r := range roles {
		roleChoices = append(roleChoices, &discordgo.ApplicationCommandOptionChoice{Name: r.Name, Value: r.ID})
	}
	moves := stringChoices([]sim.PlayerMove{sim.MoveAttack, sim.MoveDefend, sim.MoveSpecial})

	create := []*discordgo.ApplicationCommandOption{
		{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Company name", Required: true},
		{Type: discordgo.ApplicationCommandOptionString, Name: "type", Description: "Company type", Required: true, Choices: stringChoices(game.CompanyTypes())},
		{Type: discordgo.ApplicationCommandOptionString, Name: "difficulty", Description: "Difficulty", Required: true, Choices: stringChoices(sim.Difficulties())},
	}
	create = append(create, goalOptions()...)

	return []*discordgo.ApplicationCommand{
		{Name: "create-startup", Description: "Found a new startup", Options: create},
		{Name: "help", Description: "List the commands"},
		{Name: "role", Description: "Pick your founder role (once per company)", Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "role", Description: "Role", Required: true, Choices: roleChoices},
		}},
		{Name: "start-day", Description: "Start the day and see today's actions"},
		{Name: "action", Description: "Take one of today's actions", Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "id", Description: "Action id", Required: true},
		}},
		{Name: "choose", Description: "Answer a pending event", Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "event", Description: "Event id", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "choice", Description: "Choice id", Required: true},
		}},
		{Name: "end-day", Description: "Close the books for today"},
		{Name: "stats", Description: "Show your company"},
		{Name: "level", Description: "Show level and skill points"},
		{Name: "skills", Description: "Browse and spend skill points", Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "list", Description: "Show every skill and your levels"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "spend", Description: "Upgrade one skill", Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "skill", Description: "Skill id", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "levels", Description: "Levels to buy (default 1)"},
			}},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "auto", Description: "Spend all points toward your goals"},
		}},
		{Name: "loan", Description: "Borrow and repay", Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "offers", Description: "Show current offers"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "accept", Description: "Accept an offer", Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "offer", Description: "Offer number", Required: true},
			}},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "pay", Description: "Repay your active loan", Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionNumber, Name: "amount", Description: "Amount", Required: true},
			}},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "status", Description: "Show your loans"},
		}},
		{Name: "boss", Description: "Boss battle", Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "status", Description: "Show the battle"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "action", Description: "Play a turn", Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "move", Description: "Move", Required: true, Choices: moves},
				{Type: discordgo.ApplicationCommandOptionString, Name: "pay", Description: "Special move payment", Choices: stringChoices([]string{"xp", "cash"})},
			}},
		}},
		{Name: "anomalies", Description: "Recent anomalies that hit your company"},
		{Name: "reset", Description: "Abandon your current company"},
	}
}
