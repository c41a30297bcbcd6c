package models

// MessageFact is a normalized message event handed to the ingestor.
// The adapter fills it straight from the gateway payload; validation
// (guild context, bot author) happens in the ingestor.
type MessageFact struct {
	GuildID         string
	ChannelID       string
	UserID          string
	MessageID       string
	IsBot           bool
	CreatedAt       int64
	AttachmentCount int
	Content         string
}

// VoiceTransition is a normalized voice-state change. An empty channel
// means "not in voice" on that side of the transition.
type VoiceTransition struct {
	GuildID    string
	UserID     string
	IsBot      bool
	OldChannel string
	NewChannel string
	At         int64
}

// UserPresence represents first/last observed activity for a user in a guild
type UserPresence struct {
	GuildID   string
	UserID    string
	FirstSeen int64
	LastSeen  int64
}

// MessageEvent represents one observed message in the database
type MessageEvent struct {
	MessageID       string
	GuildID         string
	ChannelID       string
	UserID          string
	CreatedAt       int64
	AttachmentCount int64
	LinkCount       int64
}

// VoiceSession represents one continuous voice-channel occupancy.
// LeftAt and DurationSeconds are zero while the session is open.
type VoiceSession struct {
	GuildID         string
	UserID          string
	ChannelID       string
	JoinedAt        int64
	LeftAt          int64
	DurationSeconds int64
}

// UserStats is the aggregate answer for a stats query
type UserStats struct {
	TotalMessages     int64
	TotalAttachments  int64
	TotalVoiceSeconds int64
	TotalLinks        int64
}

// ActivityHours represents accumulated game/application time in the database
type ActivityHours struct {
	UserID       string
	GuildID      string
	ActivityName string
	TotalSeconds int64
}

// ChannelVoice is one row of the per-channel voice breakdown
type ChannelVoice struct {
	ChannelID    string
	TotalSeconds int64
}

// LeaderboardEntry is one row of the guild voice leaderboard
type LeaderboardEntry struct {
	UserID       string
	TotalSeconds int64
}
