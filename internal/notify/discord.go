package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const discordMaxMessage = 2000

// discordAPI is the part of *discordgo.Session used for sending.
type discordAPI interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts reminders to a channel ID over the REST API. No gateway
// connection is opened.
type Discord struct {
	session discordAPI
}

func NewDiscord(token string) (*Discord, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &Discord{session: session}, nil
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, contact string, msg Message) error {
	body := truncateRunes(msg.Body, discordMaxMessage)
	_, err := d.session.ChannelMessageSend(contact, body, discordgo.WithContext(ctx))
	return err
}

// truncateRunes cuts s to at most limit characters without splitting a rune.
func truncateRunes(s string, limit int) string {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
