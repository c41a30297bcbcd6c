package discord

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"chatstats/internal/database"
	"chatstats/internal/ingest"
	"chatstats/internal/models"
)

// Bot represents the Discord bot
type Bot struct {
	session          *discordgo.Session
	repository       *database.Repository
	ingestor         *ingest.Ingestor
	activitySessions map[string]time.Time // key: guildID:userID:activity -> startTime
}

// New creates a new Discord bot
func New(token string, repository *database.Repository, ingestor *ingest.Ingestor) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildPresences |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	bot := &Bot{
		session:          session,
		repository:       repository,
		ingestor:         ingestor,
		activitySessions: make(map[string]time.Time),
	}

	// Add event handlers
	session.AddHandler(bot.messageCreate)
	session.AddHandler(bot.voiceStateUpdate)
	session.AddHandler(bot.presenceUpdate)

	return bot, nil
}

// Start starts the bot
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	fmt.Println("✅ Bot is running...")
	return nil
}

// Stop stops the bot
func (b *Bot) Stop() error {
	return b.session.Close()
}

// messageCreate ingests every message as a fact, then dispatches commands
func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}

	fact := models.MessageFact{
		GuildID:         m.GuildID,
		ChannelID:       m.ChannelID,
		UserID:          m.Author.ID,
		MessageID:       m.ID,
		IsBot:           m.Author.Bot,
		CreatedAt:       m.Timestamp.UTC().Unix(),
		AttachmentCount: len(m.Attachments),
		Content:         m.Content,
	}
	if err := b.ingestor.HandleMessage(fact); err != nil {
		log.Printf("Error ingesting message %s: %v", m.ID, err)
	}

	if m.Author.Bot || m.GuildID == "" {
		return
	}

	content := strings.TrimSpace(m.Content)

	switch {
	case strings.HasPrefix(content, "!stats"):
		b.handleStatsCommand(s, m)
	case content == "!voice":
		b.handleVoiceCommand(s, m)
	case strings.HasPrefix(content, "!play"):
		b.handlePlayCommand(s, m)
	case content == "!top":
		b.handleTopCommand(s, m)
	}
}

// voiceStateUpdate handles voice state updates
func (b *Bot) voiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	oldChannel := ""
	if vs.BeforeUpdate != nil {
		oldChannel = vs.BeforeUpdate.ChannelID
	}

	isBot := vs.Member != nil && vs.Member.User != nil && vs.Member.User.Bot

	fact := models.VoiceTransition{
		GuildID:    vs.GuildID,
		UserID:     vs.UserID,
		IsBot:      isBot,
		OldChannel: oldChannel,
		NewChannel: vs.ChannelID,
		At:         time.Now().UTC().Unix(),
	}
	if err := b.ingestor.HandleVoiceTransition(fact); err != nil {
		log.Printf("Error handling voice transition for %s: %v", vs.UserID, err)
	}
}

// presenceUpdate handles presence updates for game/application tracking
func (b *Bot) presenceUpdate(s *discordgo.Session, p *discordgo.PresenceUpdate) {
	guildID := p.GuildID
	userID := p.User.ID

	// Collect relevant activity names (Game/Application)
	activeSet := make(map[string]bool)
	for _, act := range p.Activities {
		if act.Name != "" {
			activeSet[act.Name] = true
		}
	}

	// Close activities that were previously active but now inactive
	for key, start := range b.activitySessions {
		// key format: guild:user:activity
		prefix := guildID + ":" + userID + ":"
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		activityName := strings.TrimPrefix(key, prefix)
		if !activeSet[activityName] {
			seconds := int64(time.Since(start).Seconds())
			delete(b.activitySessions, key)
			if err := b.repository.AddActivitySeconds(userID, guildID, activityName, seconds); err != nil {
				log.Printf("Error adding activity seconds: %v", err)
			}
			log.Printf("activity off: %s | %s +%ds", userID, activityName, seconds)
		}
	}

	// Start new activities that haven't been recorded
	for name := range activeSet {
		key := guildID + ":" + userID + ":" + name
		if b.activitySessions[key].IsZero() {
			b.activitySessions[key] = time.Now().UTC()
			log.Printf("activity start: %s | %s", userID, name)
		}
	}
}
