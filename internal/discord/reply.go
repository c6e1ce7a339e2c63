package discord

import (
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
)

// transientReply answers one message and deletes its own reply after ttl.
type transientReply struct {
	dg      *discordgo.Session
	message *discordgo.Message
	ttl     time.Duration
}

func (r *transientReply) Reply(text string) {
	sent, err := r.dg.ChannelMessageSendReply(r.message.ChannelID, text, r.message.Reference())
	if err != nil {
		log.Printf("[WARN] Failed to reply in %s: %v", r.message.ChannelID, err)
		return
	}
	r.expire(sent)
}

func (r *transientReply) ReplyEmbed(embed *discordgo.MessageEmbed) {
	sent, err := r.dg.ChannelMessageSendEmbedReply(r.message.ChannelID, embed, r.message.Reference())
	if err != nil {
		log.Printf("[WARN] Failed to reply in %s: %v", r.message.ChannelID, err)
		return
	}
	r.expire(sent)
}

func (r *transientReply) expire(sent *discordgo.Message) {
	if r.ttl <= 0 {
		return
	}
	time.AfterFunc(r.ttl, func() {
		if err := r.dg.ChannelMessageDelete(sent.ChannelID, sent.ID); err != nil {
			log.Printf("[DEBUG] Failed to delete reply %s: %v", sent.ID, err)
		}
	})
}
