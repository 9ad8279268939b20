package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestFromButton(t *testing.T) {
	tests := []struct {
		id   string
		ok   bool
		name string
		sub  string
		arg  string
		val  string
	}{
		{id: "choose|evt-1|c2", ok: true, name: "choose", arg: "choice", val: "c2"},
		{id: "action|ship_feature", ok: true, name: "action", arg: "id", val: "ship_feature"},
		{id: "boss|defend", ok: true, name: "boss", sub: "action", arg: "move", val: "defend"},
		{id: "loan|2", ok: true, name: "loan", sub: "accept", arg: "offer", val: "2"},
		{id: "start-day", ok: true, name: "start-day"},
		{id: "choose|evt-1", ok: false},
		{id: "launch|rocket", ok: false},
	}
	for _, tt := range tests {
		cmd, ok := fromButton(tt.id)
		if ok != tt.ok {
			t.Fatalf("%q: got ok=%v want %v", tt.id, ok, tt.ok)
		}
		if !ok {
			continue
		}
		if cmd.Name != tt.name || cmd.Sub != tt.sub {
			t.Fatalf("%q: got %s/%s want %s/%s", tt.id, cmd.Name, cmd.Sub, tt.name, tt.sub)
		}
		if tt.arg != "" && cmd.str(tt.arg) != tt.val {
			t.Fatalf("%q: got %s=%q want %q", tt.id, tt.arg, cmd.str(tt.arg), tt.val)
		}
	}
}

func TestButtonIDRoundTrip(t *testing.T) {
	cmd, ok := fromButton(buttonID("choose", "evt-9", "bold"))
	if !ok || cmd.str("event") != "evt-9" || cmd.str("choice") != "bold" {
		t.Fatalf("got %+v ok=%v", cmd, ok)
	}
}

func TestFromSlashSubcommand(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Name: "loan",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name: "pay",
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "amount", Type: discordgo.ApplicationCommandOptionNumber, Value: 250.5},
			},
		}},
	}
	cmd := fromSlash(data)
	if cmd.Name != "loan" || cmd.Sub != "pay" || cmd.number("amount") != 250.5 {
		t.Fatalf("got %+v", cmd)
	}

	data = discordgo.ApplicationCommandInteractionData{
		Name: "skills",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name: "spend",
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "skill", Type: discordgo.ApplicationCommandOptionString, Value: "viral_loops"},
				{Name: "levels", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(2)},
			},
		}},
	}
	cmd = fromSlash(data)
	if cmd.str("skill") != "viral_loops" || cmd.integer("levels") != 2 {
		t.Fatalf("got %+v", cmd)
	}
}

func TestApplicationCommandsRequiredFirst(t *testing.T) {
	for _, c := range applicationCommands(nil) {
		seenOptional := false
		for _, o := range c.Options {
			if o.Type == discordgo.ApplicationCommandOptionSubCommand {
				continue
			}
			if !o.Required {
				seenOptional = true
			} else if seenOptional {
				t.Fatalf("/%s: required option %q after an optional one", c.Name, o.Name)
			}
		}
	}
}
