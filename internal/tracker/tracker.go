// Package tracker converts voice-state transitions into bounded session rows.
package tracker

import (
	"log"

	"chatstats/internal/database"
	"chatstats/internal/models"
)

// Tracker maintains at most one open voice session per (guild, user)
type Tracker struct {
	repository *database.Repository
}

// New creates a new voice session tracker
func New(repository *database.Repository) *Tracker {
	return &Tracker{repository: repository}
}

// HandleTransition applies one voice-state change. A join opens a session, a
// leave closes the open one, and a channel switch closes then reopens as two
// ordered writes. Transitions that do not change the channel are ignored.
func (t *Tracker) HandleTransition(f models.VoiceTransition) error {
	switch {
	case f.OldChannel == f.NewChannel:
		return nil
	case f.OldChannel == "":
		return t.repository.OpenVoiceSession(f.GuildID, f.UserID, f.NewChannel, f.At)
	case f.NewChannel == "":
		return t.closeOpen(f)
	default:
		if err := t.closeOpen(f); err != nil {
			return err
		}
		return t.repository.OpenVoiceSession(f.GuildID, f.UserID, f.NewChannel, f.At)
	}
}

func (t *Tracker) closeOpen(f models.VoiceTransition) error {
	closed, err := t.repository.CloseVoiceSession(f.GuildID, f.UserID, f.At)
	if err != nil {
		return err
	}
	if !closed {
		// no open session, e.g. the process restarted mid-session
		log.Printf("voice leave without open session: guild=%s user=%s", f.GuildID, f.UserID)
	}
	return nil
}
