package voice

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// Connection is a live voice channel connection. Implemented by
// discordgo in production and by fakes in tests.
type Connection interface {
	Speaking(on bool) error
	Send() chan<- []byte
	Disconnect() error
}

// Dialer establishes voice connections.
type Dialer interface {
	Dial(guildID, channelID string) (Connection, error)
}

// DiscordDialer joins voice channels through a discordgo session.
type DiscordDialer struct {
	dg *discordgo.Session
}

func NewDiscordDialer(dg *discordgo.Session) *DiscordDialer {
	return &DiscordDialer{dg: dg}
}

func (d *DiscordDialer) Dial(guildID, channelID string) (Connection, error) {
	vc, err := d.dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}
	log.Printf("[Voice] Joined voice channel %s on guild %s", channelID, guildID)
	return &discordConnection{vc: vc}, nil
}

type discordConnection struct {
	vc *discordgo.VoiceConnection
}

func (c *discordConnection) Speaking(on bool) error {
	return c.vc.Speaking(on)
}

func (c *discordConnection) Send() chan<- []byte {
	return c.vc.OpusSend
}

func (c *discordConnection) Disconnect() error {
	return c.vc.Disconnect()
}
