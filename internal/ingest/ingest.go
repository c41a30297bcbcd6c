// Package ingest normalizes raw gateway events into persisted facts.
package ingest

import (
	"fmt"
	"regexp"

	"chatstats/internal/database"
	"chatstats/internal/models"
	"chatstats/internal/tracker"
)

// Ingestor validates inbound facts, keeps presence rows current and writes
// message facts. Voice facts are delegated to the tracker after filtering so
// presence rows have a single writer.
type Ingestor struct {
	repository  *database.Repository
	tracker     *tracker.Tracker
	linkPattern *regexp.Regexp
}

// New creates an ingestor. linkPattern is compiled case-insensitively.
func New(repository *database.Repository, trk *tracker.Tracker, linkPattern string) (*Ingestor, error) {
	pattern, err := regexp.Compile(`(?i)` + linkPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile link pattern: %w", err)
	}

	return &Ingestor{
		repository:  repository,
		tracker:     trk,
		linkPattern: pattern,
	}, nil
}

// HandleMessage persists one message fact. Events without guild context and
// bot-authored events are dropped. Re-delivery of a known message id is a
// no-op in the repository.
func (i *Ingestor) HandleMessage(f models.MessageFact) error {
	if f.GuildID == "" || f.UserID == "" || f.IsBot {
		return nil
	}

	if err := i.repository.UpsertPresence(f.GuildID, f.UserID, f.CreatedAt); err != nil {
		return err
	}

	return i.repository.InsertMessage(models.MessageEvent{
		MessageID:       f.MessageID,
		GuildID:         f.GuildID,
		ChannelID:       f.ChannelID,
		UserID:          f.UserID,
		CreatedAt:       f.CreatedAt,
		AttachmentCount: int64(f.AttachmentCount),
		LinkCount:       i.CountLinks(f.Content),
	})
}

// HandleVoiceTransition filters and forwards one voice-state change
func (i *Ingestor) HandleVoiceTransition(f models.VoiceTransition) error {
	if f.GuildID == "" || f.UserID == "" || f.IsBot {
		return nil
	}
	if f.OldChannel == f.NewChannel {
		return nil
	}

	if err := i.repository.UpsertPresence(f.GuildID, f.UserID, f.At); err != nil {
		return err
	}

	return i.tracker.HandleTransition(f)
}

// CountLinks counts non-overlapping link pattern matches in message text
func (i *Ingestor) CountLinks(content string) int64 {
	return int64(len(i.linkPattern.FindAllStringIndex(content, -1)))
}
