package discord

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"seerrbot/internal/model"
	"seerrbot/internal/overseerr"
	"seerrbot/internal/request"
)

// commandDefinitions is the full slash-command surface, synchronized
// with Discord at startup.
func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "request",
			Description: "Request a movie or TV show",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "title",
					Description: "Title of the movie or TV show to request",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "4k",
					Description: "Request the 4K edition",
				},
			},
		},
		{
			Name:        "request-movie",
			Description: "Request a movie, skipping TV shows with the same name",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "title",
					Description: "Title of the movie to request",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "4k",
					Description: "Request the 4K edition",
				},
			},
		},
		{
			Name:        "pending",
			Description: "List the requests you'll be notified about",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "clear",
					Description: "Stop tracking all of your pending requests",
				},
			},
		},
		{
			Name:        "overseerr-health",
			Description: "Check Overseerr connection and health",
		},
		{
			Name:        "ping",
			Description: "Check if the bot is alive",
		},
		{
			Name:        "help",
			Description: "Show available commands and how to use them",
		},
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.onCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.onComponent(s, i)
	}
}

func (b *Bot) onCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	user := interactionUser(i)

	log := b.log.With().
		Str("command", data.Name).
		Str("user_id", user.ID).
		Str("username", user.Username).
		Logger()

	// Ping and help answer from local state, no deferral needed.
	switch data.Name {
	case "ping":
		b.respondEmbed(s, i, log, pongEmbed(s.HeartbeatLatency()))
		return
	case "help":
		b.respondEmbed(s, i, log, helpEmbed(len(b.authorized) > 0))
		return
	}

	// Everything else talks to the media server or the database, so
	// the response is deferred within Discord's three second window.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		log.Error().Err(err).Msg("deferring interaction response")
		return
	}

	ctx := context.Background()

	switch data.Name {
	case "request":
		if !b.requireAuthorized(s, i, user, log) {
			return
		}
		title, want4k := requestArgs(data)
		b.runSearch(ctx, s, i, log, title, want4k, "")
	case "request-movie":
		if !b.requireAuthorized(s, i, user, log) {
			return
		}
		title, want4k := requestArgs(data)
		b.runSearch(ctx, s, i, log, title, want4k, model.KindMovie)
	case "pending":
		if !b.requireAuthorized(s, i, user, log) {
			return
		}
		b.runPending(ctx, s, i, log, user, clearArg(data))
	case "overseerr-health":
		b.runHealth(ctx, s, i, log)
	default:
		log.Warn().Msg("unknown command")
	}
}

// requestArgs extracts the title and the optional 4k flag from a
// request-style command invocation.
func requestArgs(data discordgo.ApplicationCommandInteractionData) (string, bool) {
	var title string
	var want4k bool
	for _, opt := range data.Options {
		switch opt.Name {
		case "title":
			title = opt.StringValue()
		case "4k":
			want4k = opt.BoolValue()
		}
	}
	return title, want4k
}

func clearArg(data discordgo.ApplicationCommandInteractionData) bool {
	for _, opt := range data.Options {
		if opt.Name == "clear" {
			return opt.BoolValue()
		}
	}
	return false
}

// requireAuthorized enforces the whitelist on a deferred interaction.
// It renders the refusal itself; callers just stop.
func (b *Bot) requireAuthorized(s *discordgo.Session, i *discordgo.InteractionCreate, user *discordgo.User, log zerolog.Logger) bool {
	if b.isAuthorized(user.ID) {
		return true
	}
	log.Warn().Msg("unauthorized command attempt")
	b.editEmbed(s, i, log, notAuthorizedEmbed())
	return false
}

func (b *Bot) runSearch(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, log zerolog.Logger, title string, want4k bool, kind model.MediaKind) {
	outcome, err := b.workflow.Begin(ctx, title, want4k, kind)
	if err != nil {
		log.Error().Err(err).Str("query", title).Msg("search failed")
		b.editEmbed(s, i, log, searchErrorEmbed(title))
		return
	}

	switch {
	case outcome.Detail != nil:
		b.showDetail(s, i, log, *outcome.Detail)
	case len(outcome.Matches) == 0:
		b.editEmbed(s, i, log, noResultsEmbed(outcome.Query))
	default:
		content := "Please select a movie or TV show:"
		components := selectionComponents(outcome.Matches, want4k)
		if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content:    &content,
			Components: &components,
		}); err != nil {
			log.Error().Err(err).Msg("sending selection menu")
		}
	}
}

// showDetail replaces the deferred or menu message with a title's
// detail card, attaching the request button only when the title can
// actually be requested.
func (b *Bot) showDetail(s *discordgo.Session, i *discordgo.InteractionCreate, log zerolog.Logger, d request.Detail) {
	content := ""
	embeds := []*discordgo.MessageEmbed{detailEmbed(d)}
	components := []discordgo.MessageComponent{}
	if d.State == request.Requestable {
		components = requestButton(d.Item)
	}

	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	}); err != nil {
		log.Error().Err(err).Str("title", d.Item.Title).Msg("sending detail card")
	}
}

func (b *Bot) runPending(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, log zerolog.Logger, user *discordgo.User, clear bool) {
	if clear {
		count, err := b.store.RemoveUser(ctx, user.ID)
		if err != nil {
			log.Error().Err(err).Msg("clearing pending requests")
			b.editEmbed(s, i, log, storageErrorEmbed())
			return
		}
		log.Info().Int("removed", count).Msg("pending requests cleared")
		b.editEmbed(s, i, log, pendingClearedEmbed(count))
		return
	}

	entries, err := b.store.ForUser(ctx, user.ID)
	if err != nil {
		log.Error().Err(err).Msg("listing pending requests")
		b.editEmbed(s, i, log, storageErrorEmbed())
		return
	}
	b.editEmbed(s, i, log, pendingEmbed(entries, time.Now()))
}

func (b *Bot) runHealth(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, log zerolog.Logger) {
	if err := b.api.TestConnection(ctx); err != nil {
		log.Error().Err(err).Msg("health check failed")
		b.editEmbed(s, i, log, unhealthyEmbed(b.serverURL, err))
		return
	}
	b.editEmbed(s, i, log, healthyEmbed(b.serverURL))
}

func (b *Bot) onComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	user := interactionUser(i)

	log := b.log.With().
		Str("custom_id", data.CustomID).
		Str("user_id", user.ID).
		Str("username", user.Username).
		Logger()

	// Components live on ephemeral messages, so only the original
	// invoker can reach them; this triggers only if the whitelist
	// shrank after the message was shown.
	if !b.isAuthorized(user.ID) {
		log.Warn().Msg("unauthorized component interaction")
		return
	}

	// Acknowledge first; the detail lookup can outlast Discord's
	// response window.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		log.Error().Err(err).Msg("acknowledging component")
		return
	}

	ctx := context.Background()

	switch {
	case strings.HasPrefix(data.CustomID, selectIDPrefix):
		b.onSelect(ctx, s, i, log, data)
	case strings.HasPrefix(data.CustomID, submitIDPrefix):
		b.onSubmit(ctx, s, i, log, data.CustomID)
	default:
		log.Warn().Msg("unknown component")
	}
}

func (b *Bot) onSelect(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, log zerolog.Logger, data discordgo.MessageComponentInteractionData) {
	want4k, err := parseSelectID(data.CustomID)
	if err != nil || len(data.Values) == 0 {
		log.Warn().Err(err).Msg("malformed selection")
		return
	}
	kind, tmdbID, err := parseOptionValue(data.Values[0])
	if err != nil {
		log.Warn().Err(err).Msg("malformed selection value")
		return
	}

	d, err := b.workflow.Describe(ctx, kind, tmdbID, want4k)
	if err != nil {
		log.Error().Err(err).Int("tmdb_id", tmdbID).Msg("loading details")
		b.editEmbed(s, i, log, lookupErrorEmbed())
		return
	}

	log.Info().
		Str("title", d.Item.Title).
		Str("kind", string(kind)).
		Int("tmdb_id", tmdbID).
		Msg("selection resolved")

	b.showDetail(s, i, log, d)
}

func (b *Bot) onSubmit(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, log zerolog.Logger, customID string) {
	kind, tmdbID, want4k, err := parseSubmitID(customID)
	if err != nil {
		log.Warn().Err(err).Msg("malformed submit id")
		return
	}

	// Fresh snapshot before submitting: if the title became available
	// or was requested while the button sat on screen, show that
	// instead of filing a duplicate.
	d, err := b.workflow.Describe(ctx, kind, tmdbID, want4k)
	if err != nil {
		log.Error().Err(err).Int("tmdb_id", tmdbID).Msg("loading details before submit")
		b.editEmbed(s, i, log, lookupErrorEmbed())
		return
	}
	if d.State != request.Requestable {
		b.showDetail(s, i, log, d)
		return
	}

	user := interactionUser(i)
	who := request.Requester{ID: user.ID, Username: user.Username}

	// Series requests cover every season; movies ignore the selection.
	outcome := b.workflow.Submit(ctx, who, d.Item, overseerr.AllSeasons())

	b.editEmbed(s, i, log, outcomeEmbed(d.Item, outcome))
}

// respondEmbed answers an interaction immediately with one ephemeral
// embed.
func (b *Bot) respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, log zerolog.Logger, embed *discordgo.MessageEmbed) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		log.Error().Err(err).Msg("responding to interaction")
	}
}

// editEmbed replaces a deferred or component message with one embed
// and no components.
func (b *Bot) editEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, log zerolog.Logger, embed *discordgo.MessageEmbed) {
	content := ""
	embeds := []*discordgo.MessageEmbed{embed}
	components := []discordgo.MessageComponent{}

	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	}); err != nil {
		log.Error().Err(err).Msg("editing interaction response")
	}
}
