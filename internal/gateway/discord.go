package gateway

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

// discordMaxMessage is Discord's message length limit.
const discordMaxMessage = 2000

type DiscordGateway struct {
	Session   *discordgo.Session
	ChannelID string
}

func NewDiscordGateway(token, channelID string) (*DiscordGateway, error) {
	if channelID == "" {
		return nil, errors.New("discord channel ID is required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	return &DiscordGateway{
		Session:   session,
		ChannelID: channelID,
	}, nil
}

func (dg *DiscordGateway) Name() string {
	return "discord"
}

func (dg *DiscordGateway) Send(text string) error {
	_, err := dg.Session.ChannelMessageSend(dg.ChannelID, truncate(text, discordMaxMessage))
	return err
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
