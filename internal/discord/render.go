package discord

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"seerrbot/internal/model"
	"seerrbot/internal/request"
	"seerrbot/internal/tracker"
)

// Embed accent colors.
const (
	colorBlue   = 0x3498db
	colorGreen  = 0x2ecc71
	colorOrange = 0xe67e22
	colorRed    = 0xe74c3c
)

// Discord caps select menus at 25 options and option text at 100
// characters.
const (
	maxSelectOptions = 25
	maxOptionText    = 100
)

const maxOverviewLen = 500

// Component custom-id prefixes. The ids carry everything a later
// interaction needs, so no per-user state lives in memory between the
// search and the click.
const (
	selectIDPrefix = "request:select"
	submitIDPrefix = "request:submit"
)

// selectID builds the custom id of a disambiguation menu. The 4k flag
// rides along because option values only carry the chosen title.
func selectID(want4k bool) string {
	return fmt.Sprintf("%s:%s", selectIDPrefix, flagString(want4k))
}

// parseSelectID recovers the 4k flag from a menu custom id.
func parseSelectID(id string) (bool, error) {
	rest, ok := strings.CutPrefix(id, selectIDPrefix+":")
	if !ok {
		return false, fmt.Errorf("malformed select id %q", id)
	}
	return parseFlag(rest)
}

// submitID builds the custom id of a request button: media kind, TMDB
// id and the 4k flag, enough to resume the workflow from scratch.
func submitID(kind model.MediaKind, tmdbID int, want4k bool) string {
	return fmt.Sprintf("%s:%s:%d:%s", submitIDPrefix, kind, tmdbID, flagString(want4k))
}

// parseSubmitID recovers kind, TMDB id and the 4k flag from a request
// button custom id.
func parseSubmitID(id string) (model.MediaKind, int, bool, error) {
	rest, ok := strings.CutPrefix(id, submitIDPrefix+":")
	if !ok {
		return "", 0, false, fmt.Errorf("malformed submit id %q", id)
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return "", 0, false, fmt.Errorf("malformed submit id %q", id)
	}

	kind, err := parseKind(parts[0])
	if err != nil {
		return "", 0, false, fmt.Errorf("submit id %q: %w", id, err)
	}
	tmdbID, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, false, fmt.Errorf("submit id %q: %w", id, err)
	}
	want4k, err := parseFlag(parts[2])
	if err != nil {
		return "", 0, false, fmt.Errorf("submit id %q: %w", id, err)
	}

	return kind, tmdbID, want4k, nil
}

// optionValue packs a search hit into a menu option value.
func optionValue(item model.MediaItem) string {
	return fmt.Sprintf("%s:%d", item.Kind, item.TmdbID)
}

// parseOptionValue recovers kind and TMDB id from a menu selection.
func parseOptionValue(v string) (model.MediaKind, int, error) {
	kindStr, idStr, ok := strings.Cut(v, ":")
	if !ok {
		return "", 0, fmt.Errorf("malformed option value %q", v)
	}

	kind, err := parseKind(kindStr)
	if err != nil {
		return "", 0, fmt.Errorf("option value %q: %w", v, err)
	}
	tmdbID, err := strconv.Atoi(idStr)
	if err != nil {
		return "", 0, fmt.Errorf("option value %q: %w", v, err)
	}

	return kind, tmdbID, nil
}

func parseKind(s string) (model.MediaKind, error) {
	switch model.MediaKind(s) {
	case model.KindMovie:
		return model.KindMovie, nil
	case model.KindTV:
		return model.KindTV, nil
	}
	return "", fmt.Errorf("unknown media kind %q", s)
}

func flagString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseFlag(s string) (bool, error) {
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("unknown flag %q", s)
}

// truncate shortens s to at most max characters, marking the cut with
// an ellipsis.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}

func kindEmoji(kind model.MediaKind) string {
	if kind == model.KindTV {
		return "📺"
	}
	return "🎬"
}

// selectionComponents renders the disambiguation menu for a
// multi-match search, capped at the platform's option limit.
func selectionComponents(items []model.MediaItem, want4k bool) []discordgo.MessageComponent {
	if len(items) > maxSelectOptions {
		items = items[:maxSelectOptions]
	}

	options := make([]discordgo.SelectMenuOption, 0, len(items))
	for _, item := range items {
		kindLabel := "[Movie]"
		if item.Kind == model.KindTV {
			kindLabel = "[TV]"
		}
		label := fmt.Sprintf("%s %s %s", kindEmoji(item.Kind), kindLabel, item.FormatTitle())

		description := item.Overview
		if cast := item.CastLine(); cast != "" {
			description = "★ " + cast
		}

		options = append(options, discordgo.SelectMenuOption{
			Label:       truncate(label, maxOptionText),
			Value:       optionValue(item),
			Description: truncate(description, maxOptionText),
		})
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    selectID(want4k),
					Placeholder: "Choose a movie or TV show...",
					Options:     options,
				},
			},
		},
	}
}

// detailEmbed renders a title's detail card. The accent color follows
// the snapshot state: green for available, orange for already
// requested, blue for requestable.
func detailEmbed(d request.Detail) *discordgo.MessageEmbed {
	item := d.Item

	description := item.Overview
	if description == "" {
		description = "No description available"
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %s", kindEmoji(item.Kind), item.Title),
		Description: truncate(description, maxOverviewLen),
		Color:       colorBlue,
	}

	if year := item.ReleaseYear(); year != "" {
		yearLabel := "Release Year"
		if item.Kind == model.KindTV {
			yearLabel = "First Aired"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: yearLabel, Value: year, Inline: true,
		})
	}
	if cast := item.CastLine(); cast != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Starring", Value: cast, Inline: false,
		})
	}
	if item.Is4K {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Quality", Value: "4K UHD", Inline: true,
		})
	}
	if url := item.PosterURL(); url != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: url}
	}

	switch d.State {
	case request.AlreadyAvailable:
		embed.Color = colorGreen
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Status", Value: "✅ Available", Inline: false,
		})
	case request.AlreadyRequested:
		embed.Color = colorOrange
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Status", Value: "⏳ Already Requested", Inline: false,
		})
	}

	return embed
}

// requestButton renders the submit button for a requestable title.
func requestButton(item model.MediaItem) []discordgo.MessageComponent {
	label := "🎬 Request This Movie"
	if item.Kind == model.KindTV {
		label = "📺 Request This Show"
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Style:    discordgo.PrimaryButton,
					Label:    label,
					CustomID: submitID(item.Kind, item.TmdbID, item.Is4K),
				},
			},
		},
	}
}

// outcomeEmbed renders the result of a submitted request.
func outcomeEmbed(item model.MediaItem, outcome model.RequestOutcome) *discordgo.MessageEmbed {
	switch outcome.Status {
	case model.RequestAccepted:
		description := fmt.Sprintf("**%s** has been requested successfully!", item.FormatTitle())
		if outcome.Tracked {
			description += "\n\nYou'll receive a notification when it's available."
		}
		return &discordgo.MessageEmbed{
			Title:       "✅ Request Submitted",
			Description: description,
			Color:       colorGreen,
		}
	case model.RequestDenied:
		reason := outcome.Reason
		if reason == "" {
			reason = "The server declined this request."
		}
		return &discordgo.MessageEmbed{
			Title:       "🚫 Request Denied",
			Description: fmt.Sprintf("**%s** was not accepted: %s", item.FormatTitle(), reason),
			Color:       colorOrange,
		}
	default:
		return &discordgo.MessageEmbed{
			Title:       "❌ Request Failed",
			Description: fmt.Sprintf("Failed to request **%s**. Please try again or contact an administrator if the problem persists.", item.FormatTitle()),
			Color:       colorRed,
		}
	}
}

func noResultsEmbed(query string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ No Results",
		Description: fmt.Sprintf("No movies or TV shows found matching: **%s**", query),
		Color:       colorRed,
	}
}

func searchErrorEmbed(query string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Search Failed",
		Description: fmt.Sprintf("An error occurred while searching for **%s**. Please try again later.", query),
		Color:       colorRed,
	}
}

func lookupErrorEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Error",
		Description: "Could not load details for that title. Please try again later.",
		Color:       colorRed,
	}
}

func storageErrorEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Error",
		Description: "Could not read your pending requests. Please try again later.",
		Color:       colorRed,
	}
}

func notAuthorizedEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🚫 Not Authorized",
		Description: "Sorry, you're not authorized to use this bot.",
		Color:       colorRed,
	}
}

func pongEmbed(latency time.Duration) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🏓 Pong!",
		Description: fmt.Sprintf("Bot is alive and responding.\nLatency: %dms", latency.Milliseconds()),
		Color:       colorGreen,
	}
}

// helpEmbed lists the available commands. The authorization note only
// appears when a whitelist is configured.
func helpEmbed(restricted bool) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🎬 Media Request Bot",
		Description: "Request movies and TV shows directly from Discord!",
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "/request <title>",
				Value: "Search for and request movies or TV shows\nExample: `/request The Matrix` or `/request The Office`",
			},
			{
				Name:  "/request-movie <title>",
				Value: "Search movies only, skipping TV shows with the same name",
			},
			{
				Name:  "/pending",
				Value: "List the requests you'll be notified about, or clear them",
			},
			{
				Name:  "/overseerr-health",
				Value: "Check Overseerr connection and health status",
			},
			{
				Name:  "/ping",
				Value: "Check if the bot is alive and responding",
			},
			{
				Name:  "/help",
				Value: "Show this help message",
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Powered by Overseerr"},
	}

	if restricted {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "ℹ️ Authorization",
			Value: "This bot is restricted to authorized users only.",
		})
	}

	return embed
}

func healthyEmbed(serverURL string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ Overseerr Health Check",
		Description: "Overseerr is reachable and healthy!",
		Color:       colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Overseerr URL", Value: serverURL},
			{Name: "Connection", Value: "✅ Connected", Inline: true},
			{Name: "API Status", Value: "✅ Responding", Inline: true},
		},
	}
}

func unhealthyEmbed(serverURL string, err error) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Overseerr Health Check Failed",
		Description: "Unable to connect to Overseerr",
		Color:       colorRed,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Error", Value: truncate(err.Error(), maxOverviewLen)},
			{Name: "Configured URL", Value: serverURL},
		},
	}
}

// pendingEmbed lists a user's tracked requests with how long each has
// been waiting and the last status the tracker observed.
func pendingEmbed(entries []model.PendingNotification, now time.Time) *discordgo.MessageEmbed {
	if len(entries) == 0 {
		return &discordgo.MessageEmbed{
			Title:       "⏳ Your Pending Requests",
			Description: "You have no pending requests. Use `/request` to add one!",
			Color:       colorBlue,
		}
	}

	lines := make([]string, 0, len(entries))
	for _, n := range entries {
		quality := ""
		if n.Is4K {
			quality = " [4K]"
		}
		lines = append(lines, fmt.Sprintf("• **%s**%s waiting %s (%s)",
			n.Title, quality, tracker.FormatElapsed(now.Sub(n.RequestedAt)), n.LastStatus))
	}

	return &discordgo.MessageEmbed{
		Title:       "⏳ Your Pending Requests",
		Description: strings.Join(lines, "\n"),
		Color:       colorBlue,
		Footer:      &discordgo.MessageEmbedFooter{Text: "You'll get a DM when these become available"},
	}
}

func pendingClearedEmbed(count int) *discordgo.MessageEmbed {
	noun := "requests"
	if count == 1 {
		noun = "request"
	}
	return &discordgo.MessageEmbed{
		Title:       "🗑️ Tracking Cleared",
		Description: fmt.Sprintf("Stopped tracking %d pending %s.", count, noun),
		Color:       colorBlue,
	}
}

// availabilityEmbed is the DM sent when a tracked title becomes
// available.
func availabilityEmbed(n model.PendingNotification, elapsed string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🎬 Content Available!",
		Description: "The content you requested is now ready to watch!",
		Color:       colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Title", Value: n.Title},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Enjoy your movie! 🍿"},
	}

	if n.Is4K {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Quality", Value: "4K UHD", Inline: true,
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Request Completed In", Value: elapsed, Inline: true,
	})

	return embed
}
