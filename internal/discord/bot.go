package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"seerrbot/internal/config"
	"seerrbot/internal/overseerr"
	"seerrbot/internal/request"
	"seerrbot/internal/store"
)

// Bot is the chat adapter: it owns the gateway session, registers the
// slash commands and routes interactions into the request workflow.
type Bot struct {
	session  *discordgo.Session
	workflow *request.Workflow
	store    store.Store
	api      overseerr.API

	// serverURL is the media server address shown in health embeds.
	serverURL string

	clientID   string
	guildID    string
	authorized map[string]struct{}

	log zerolog.Logger
}

// New builds the bot and wires its event handlers. The session is not
// opened until Start.
func New(cfg config.DiscordConfig, wf *request.Workflow, st store.Store, api overseerr.API, serverURL string, log zerolog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	// Slash commands and DMs need no privileged intents.
	session.Identify.Intents = discordgo.IntentsGuilds

	authorized := make(map[string]struct{}, len(cfg.AuthorizedUsers))
	for _, id := range cfg.AuthorizedUsers {
		authorized[id] = struct{}{}
	}

	b := &Bot{
		session:    session,
		workflow:   wf,
		store:      st,
		api:        api,
		serverURL:  serverURL,
		clientID:   cfg.ClientID,
		guildID:    cfg.GuildID,
		authorized: authorized,
		log:        log.With().Str("component", "discord").Logger(),
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)

	return b, nil
}

// Start opens the gateway session and synchronizes the slash commands.
// Commands are guild-scoped when a guild id is configured, which makes
// them visible immediately instead of after Discord's global rollout.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord session: %w", err)
	}

	appID := b.clientID
	if appID == "" {
		appID = b.session.State.User.ID
	}

	cmds := commandDefinitions()
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, cmds); err != nil {
		b.session.Close()
		return fmt.Errorf("registering slash commands: %w", err)
	}

	b.log.Info().
		Int("commands", len(cmds)).
		Str("guild_id", b.guildID).
		Msg("slash commands synchronized")

	return nil
}

// Stop closes the gateway session. Registered commands are left in
// place so a restart does not flicker them for users.
func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().
		Str("username", r.User.Username).
		Str("user_id", r.User.ID).
		Int("guilds", len(r.Guilds)).
		Msg("discord session ready")

	if err := s.UpdateListeningStatus("/request | /help"); err != nil {
		b.log.Warn().Err(err).Msg("setting presence")
	}
}

// interactionUser returns the invoking user for both guild and DM
// interactions; discordgo populates a different field for each.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// isAuthorized checks the whitelist. An empty whitelist allows
// everyone.
func (b *Bot) isAuthorized(userID string) bool {
	if len(b.authorized) == 0 {
		return true
	}
	_, ok := b.authorized[userID]
	return ok
}
