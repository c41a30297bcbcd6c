package database

import (
	"database/sql"
	"fmt"
	"log"

	"chatstats/internal/models"
)

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// UpsertPresence records observed activity for a user in a guild. The first
// observation fixes first_seen; later ones only advance last_seen. Written as
// locate-then-insert-or-update so the statements stay engine-neutral.
func (r *Repository) UpsertPresence(guildID, userID string, seen int64) error {
	var firstSeen int64
	err := r.db.conn.QueryRow(
		`SELECT first_seen FROM user_presence WHERE guild_id = $1 AND user_id = $2`,
		guildID, userID).Scan(&firstSeen)
	if err == sql.ErrNoRows {
		_, err = r.db.conn.Exec(
			`INSERT INTO user_presence (guild_id, user_id, first_seen, last_seen) VALUES ($1, $2, $3, $3)`,
			guildID, userID, seen)
		if err != nil {
			return fmt.Errorf("failed to insert presence: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up presence: %w", err)
	}

	// last_seen must never move backwards, even when handlers interleave
	_, err = r.db.conn.Exec(
		`UPDATE user_presence SET last_seen = $1 WHERE guild_id = $2 AND user_id = $3 AND last_seen < $1`,
		seen, guildID, userID)
	if err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}
	return nil
}

// GetPresence returns the presence row for a user, or nil when none exists
func (r *Repository) GetPresence(guildID, userID string) (*models.UserPresence, error) {
	p := &models.UserPresence{GuildID: guildID, UserID: userID}
	err := r.db.conn.QueryRow(
		`SELECT first_seen, last_seen FROM user_presence WHERE guild_id = $1 AND user_id = $2`,
		guildID, userID).Scan(&p.FirstSeen, &p.LastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}
	return p, nil
}

// InsertMessage stores one message fact. Re-delivery of an already stored
// message id is a silent no-op.
func (r *Repository) InsertMessage(m models.MessageEvent) error {
	var one int
	err := r.db.conn.QueryRow(
		`SELECT 1 FROM message_events WHERE message_id = $1`, m.MessageID).Scan(&one)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to look up message event: %w", err)
	}

	_, err = r.db.conn.Exec(
		`INSERT INTO message_events (message_id, guild_id, channel_id, user_id, created_at, attachment_count, link_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.MessageID, m.GuildID, m.ChannelID, m.UserID, m.CreatedAt, m.AttachmentCount, m.LinkCount)
	if err != nil {
		// a concurrent delivery of the same id may have won the race
		if lookupErr := r.db.conn.QueryRow(
			`SELECT 1 FROM message_events WHERE message_id = $1`, m.MessageID).Scan(&one); lookupErr == nil {
			return nil
		}
		return fmt.Errorf("failed to insert message event: %w", err)
	}
	return nil
}

// OpenVoiceSession starts a new session row with no end time
func (r *Repository) OpenVoiceSession(guildID, userID, channelID string, joinedAt int64) error {
	_, err := r.db.conn.Exec(
		`INSERT INTO voice_sessions (guild_id, user_id, channel_id, joined_at) VALUES ($1, $2, $3, $4)`,
		guildID, userID, channelID, joinedAt)
	if err != nil {
		return fmt.Errorf("failed to open voice session: %w", err)
	}
	return nil
}

// CloseVoiceSession ends the open session for a user, targeting the most
// recent join when more than one is somehow open. Returns false when there
// was no open session to close.
func (r *Repository) CloseVoiceSession(guildID, userID string, leftAt int64) (bool, error) {
	res, err := r.db.conn.Exec(
		`UPDATE voice_sessions
		SET left_at = $1, duration_seconds = $1 - joined_at
		WHERE guild_id = $2 AND user_id = $3 AND left_at IS NULL
		AND joined_at = (SELECT MAX(joined_at) FROM voice_sessions WHERE guild_id = $2 AND user_id = $3 AND left_at IS NULL)`,
		leftAt, guildID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to close voice session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to close voice session: %w", err)
	}
	return n > 0, nil
}

// AggregateStats computes the four per-user totals. Open voice sessions
// contribute nothing until they are closed. The two reads are not wrapped in
// a transaction; writes landing between them may show in some fields only.
func (r *Repository) AggregateStats(guildID, userID string) (models.UserStats, error) {
	var stats models.UserStats
	err := r.db.conn.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(attachment_count), 0), COALESCE(SUM(link_count), 0)
		FROM message_events WHERE guild_id = $1 AND user_id = $2`,
		guildID, userID).Scan(&stats.TotalMessages, &stats.TotalAttachments, &stats.TotalLinks)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("failed to aggregate message stats: %w", err)
	}

	err = r.db.conn.QueryRow(
		`SELECT COALESCE(SUM(duration_seconds), 0)
		FROM voice_sessions WHERE guild_id = $1 AND user_id = $2 AND left_at IS NOT NULL`,
		guildID, userID).Scan(&stats.TotalVoiceSeconds)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("failed to aggregate voice stats: %w", err)
	}

	return stats, nil
}

// AddActivitySeconds adds game/application seconds for a user in a guild
func (r *Repository) AddActivitySeconds(userID, guildID, activityName string, seconds int64) error {
	res, err := r.db.conn.Exec(
		`UPDATE activity_hours SET total_seconds = total_seconds + $1
		WHERE user_id = $2 AND guild_id = $3 AND activity_name = $4`,
		seconds, userID, guildID, activityName)
	if err != nil {
		return fmt.Errorf("failed to add activity seconds: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to add activity seconds: %w", err)
	}
	if n > 0 {
		return nil
	}

	_, err = r.db.conn.Exec(
		`INSERT INTO activity_hours (user_id, guild_id, activity_name, total_seconds) VALUES ($1, $2, $3, $4)`,
		userID, guildID, activityName, seconds)
	if err != nil {
		return fmt.Errorf("failed to insert activity seconds: %w", err)
	}
	return nil
}

// GetActivitySeconds gets total seconds for a user and activity in a guild
func (r *Repository) GetActivitySeconds(userID, guildID, activityName string) (int64, error) {
	var totalSeconds int64
	err := r.db.conn.QueryRow(
		`SELECT total_seconds FROM activity_hours WHERE user_id = $1 AND guild_id = $2 AND activity_name = $3`,
		userID, guildID, activityName).Scan(&totalSeconds)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to get activity seconds: %w", err)
	}
	return totalSeconds, nil
}

// GetTopActivities gets top activities for a user in a guild
func (r *Repository) GetTopActivities(userID, guildID string, limit int) ([]models.ActivityHours, error) {
	rows, err := r.db.conn.Query(
		`SELECT activity_name, total_seconds FROM activity_hours
		WHERE user_id = $1 AND guild_id = $2 ORDER BY total_seconds DESC LIMIT $3`,
		userID, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top activities: %w", err)
	}
	defer rows.Close()

	var activities []models.ActivityHours
	for rows.Next() {
		activity := models.ActivityHours{UserID: userID, GuildID: guildID}
		if err := rows.Scan(&activity.ActivityName, &activity.TotalSeconds); err != nil {
			log.Printf("Error scanning activity row: %v", err)
			continue
		}
		activities = append(activities, activity)
	}

	return activities, rows.Err()
}

// GetVoiceChannelBreakdown gets closed voice seconds per channel for a user
func (r *Repository) GetVoiceChannelBreakdown(guildID, userID string) ([]models.ChannelVoice, error) {
	rows, err := r.db.conn.Query(
		`SELECT channel_id, SUM(duration_seconds) AS total
		FROM voice_sessions WHERE guild_id = $1 AND user_id = $2 AND left_at IS NOT NULL
		GROUP BY channel_id ORDER BY total DESC`,
		guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get voice channel breakdown: %w", err)
	}
	defer rows.Close()

	var breakdown []models.ChannelVoice
	for rows.Next() {
		var ch models.ChannelVoice
		if err := rows.Scan(&ch.ChannelID, &ch.TotalSeconds); err != nil {
			log.Printf("Error scanning channel breakdown row: %v", err)
			continue
		}
		breakdown = append(breakdown, ch)
	}

	return breakdown, rows.Err()
}

// GetVoiceLeaderboard ranks a guild's users by total closed voice seconds
func (r *Repository) GetVoiceLeaderboard(guildID string, limit int) ([]models.LeaderboardEntry, error) {
	rows, err := r.db.conn.Query(
		`SELECT user_id, SUM(duration_seconds) AS total
		FROM voice_sessions WHERE guild_id = $1 AND left_at IS NOT NULL
		GROUP BY user_id ORDER BY total DESC LIMIT $2`,
		guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get voice leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var entry models.LeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.TotalSeconds); err != nil {
			log.Printf("Error scanning leaderboard row: %v", err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
