package discord

import (
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"chatstats/pkg/utils"
)

// handleStatsCommand handles !stats [@user]
func (b *Bot) handleStatsCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	targetID := m.Author.ID
	fields := strings.Fields(m.Content)
	if len(fields) > 1 && utils.IsUserMention(fields[1]) {
		targetID = utils.ExtractUserIDFromMention(fields[1])
	}

	stats, err := b.repository.AggregateStats(m.GuildID, targetID)
	if err != nil {
		log.Printf("Error aggregating stats: %v", err)
		s.ChannelMessageSend(m.ChannelID, "⚠️ Stats are unavailable right now, please try again later.")
		return
	}

	msg := fmt.Sprintf("📊 Stats for %s\nMessages: %d\nAttachments: %d\nLinks: %d\nVoice: %s",
		utils.FormatUserMention(targetID),
		stats.TotalMessages, stats.TotalAttachments, stats.TotalLinks,
		utils.FormatHoursMinutes(stats.TotalVoiceSeconds))
	s.ChannelMessageSend(m.ChannelID, msg)
}

// handleVoiceCommand handles the !voice command
func (b *Bot) handleVoiceCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	breakdown, err := b.repository.GetVoiceChannelBreakdown(m.GuildID, m.Author.ID)
	if err != nil {
		log.Printf("Error getting voice channel breakdown: %v", err)
		s.ChannelMessageSend(m.ChannelID, "⚠️ Voice stats are unavailable right now.")
		return
	}

	var total int64
	var lines []string
	for _, ch := range breakdown {
		total += ch.TotalSeconds
		lines = append(lines, fmt.Sprintf("%s: %s", utils.FormatChannelMention(ch.ChannelID), utils.FormatDuration(ch.TotalSeconds)))
	}

	if len(lines) == 0 {
		lines = append(lines, "(no voice time recorded yet)")
	}

	msg := fmt.Sprintf("🔊 %s, voice per channel:\n%s\nTotal: %s",
		m.Author.Username, strings.Join(lines, "\n"), utils.FormatDuration(total))
	s.ChannelMessageSend(m.ChannelID, msg)
}

// handlePlayCommand handles !play [name]. Without a name it lists the
// caller's top activities.
func (b *Bot) handlePlayCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(m.Content), "!play"))

	if name == "" {
		activities, err := b.repository.GetTopActivities(m.Author.ID, m.GuildID, 5)
		if err != nil {
			log.Printf("Error getting top activities: %v", err)
			s.ChannelMessageSend(m.ChannelID, "⚠️ Activity stats are unavailable right now.")
			return
		}
		if len(activities) == 0 {
			s.ChannelMessageSend(m.ChannelID, "🎮 No tracked activities yet.")
			return
		}
		var lines []string
		for _, activity := range activities {
			lines = append(lines, fmt.Sprintf("- %s: %s",
				utils.TruncateString(activity.ActivityName, 60), utils.FormatDuration(activity.TotalSeconds)))
		}
		msg := fmt.Sprintf("🎮 %s, top activities:\n%s", m.Author.Username, strings.Join(lines, "\n"))
		s.ChannelMessageSend(m.ChannelID, msg)
		return
	}

	totalSeconds, err := b.repository.GetActivitySeconds(m.Author.ID, m.GuildID, name)
	if err != nil {
		log.Printf("Error getting activity seconds: %v", err)
		s.ChannelMessageSend(m.ChannelID, "⚠️ Activity stats are unavailable right now.")
		return
	}

	msg := fmt.Sprintf("🎮 %s, %s for %s", m.Author.Username, name, utils.FormatDuration(totalSeconds))
	s.ChannelMessageSend(m.ChannelID, msg)
}

// handleTopCommand handles the !top voice leaderboard command
func (b *Bot) handleTopCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	entries, err := b.repository.GetVoiceLeaderboard(m.GuildID, 10)
	if err != nil {
		log.Printf("Error getting voice leaderboard: %v", err)
		s.ChannelMessageSend(m.ChannelID, "⚠️ Leaderboard is unavailable right now.")
		return
	}

	if len(entries) == 0 {
		s.ChannelMessageSend(m.ChannelID, "🏆 No voice time recorded yet.")
		return
	}

	var lines []string
	for i, entry := range entries {
		lines = append(lines, utils.FormatLeaderboardEntry(
			i+1, utils.FormatUserMention(entry.UserID), utils.FormatHoursMinutes(entry.TotalSeconds)))
	}

	msg := "🏆 Voice leaderboard:\n" + strings.Join(lines, "\n")
	s.ChannelMessageSend(m.ChannelID, msg)
}
