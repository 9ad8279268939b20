package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/KenThuan129/startup-simulation-game/internal/config"
	"github.com/KenThuan129/startup-simulation-game/internal/game"
	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

const commandTimeout = 10 * time.Second

type Catalog interface {
	Skills() []sim.SkillDef
	Roles() []sim.RoleDef
}

type Bot struct {
	cfg      config.BotConfig
	log      *slog.Logger
	game     *game.Service
	catalog  Catalog
	limiter  *limiterSet
	session  *discordgo.Session
	commands []*discordgo.ApplicationCommand
}

func New(cfg config.BotConfig, logger *slog.Logger, gameSvc *game.Service, catalog Catalog) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	b := &Bot{
		cfg:      cfg,
		log:      logger,
		game:     gameSvc,
		catalog:  catalog,
		limiter:  newLimiterSet(cfg.CommandRate, cfg.CommandBurst),
		session:  session,
		commands: applicationCommands(catalog.Roles()),
	}
	session.AddHandler(b.onInteraction)
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.log.Info("discord connected", "user", r.User.Username, "guilds", len(r.Guilds))
	})
	return b, nil
}

// Open connects to the gateway and registers the slash commands, scoped to
// the configured guild when one is set.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	registered, err := b.session.ApplicationCommandBulkOverwrite(b.cfg.AppID, b.cfg.GuildID, b.commands)
	if err != nil {
		_ = b.session.Close()
		return fmt.Errorf("register commands: %w", err)
	}
	b.log.Info("slash commands registered", "count", len(registered), "guild_id", b.cfg.GuildID)
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func interactionUser(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var (
		cmd command
		ok  = true
	)
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		cmd = fromSlash(i.ApplicationCommandData())
	case discordgo.InteractionMessageComponent:
		cmd, ok = fromButton(i.MessageComponentData().CustomID)
	default:
		return
	}
	userID := interactionUser(i)
	if !ok || userID == "" {
		b.respond(s, i, reply{Content: "That button is no longer valid.", Ephemeral: true})
		return
	}
	b.respond(s, i, b.handle(userID, cmd))
}

// handle runs one command for userID under the per-user rate limit and turns
// errors into player-facing replies.
func (b *Bot) handle(userID string, cmd command) reply {
	if !b.limiter.Allow(userID) {
		return reply{Content: "Slow down a little and try again in a moment.", Ephemeral: true}
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	r, err := b.dispatch(ctx, userID, cmd)
	if err == nil {
		return r
	}
	msg, expected := userMessage(err)
	if expected {
		b.log.Debug("command rejected", "owner_id", userID, "command", cmd.Name, "err", err)
	} else {
		b.log.Error("command failed", "owner_id", userID, "command", cmd.Name, "sub", cmd.Sub, "err", err)
	}
	return reply{Content: msg, Ephemeral: true}
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, r reply) {
	data := &discordgo.InteractionResponseData{
		Content:    r.Content,
		Embeds:     r.Embeds,
		Components: r.Components,
	}
	if r.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.log.Error("interaction respond failed", "err", err)
	}
}
