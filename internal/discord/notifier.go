package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"seerrbot/internal/model"
)

// NotifyAvailability delivers a one-time availability notice as a
// direct message. It satisfies the tracker's notification callback.
// A user with DMs disabled surfaces here as an error; the tracker
// drops the entry either way.
func (b *Bot) NotifyAvailability(ctx context.Context, n model.PendingNotification, elapsed string) error {
	channel, err := b.session.UserChannelCreate(n.UserID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("opening dm channel for %s: %w", n.Username, err)
	}

	embed := availabilityEmbed(n, elapsed)
	if _, err := b.session.ChannelMessageSendEmbed(channel.ID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending dm to %s: %w", n.Username, err)
	}

	b.log.Info().
		Str("user_id", n.UserID).
		Str("username", n.Username).
		Str("title", n.Title).
		Str("elapsed", elapsed).
		Msg("availability notice delivered")

	return nil
}
