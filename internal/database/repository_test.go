package database

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatstats/internal/models"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// :memory: databases are per-connection
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	db, err := NewWithConn(conn)
	require.NoError(t, err)

	return NewRepository(db)
}

func TestUpsertPresence_CreatesRow(t *testing.T) {
	r := newTestRepository(t)

	require.NoError(t, r.UpsertPresence("g1", "u1", 100))

	p, err := r.GetPresence("g1", "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(100), p.FirstSeen)
	assert.Equal(t, int64(100), p.LastSeen)
}

func TestUpsertPresence_FirstSeenNeverRegresses(t *testing.T) {
	r := newTestRepository(t)

	require.NoError(t, r.UpsertPresence("g1", "u1", 100))
	require.NoError(t, r.UpsertPresence("g1", "u1", 200))

	p, err := r.GetPresence("g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.FirstSeen, "first_seen must stay at the first observation")
	assert.Equal(t, int64(200), p.LastSeen)

	// a stale event delivered late must not move last_seen backwards
	require.NoError(t, r.UpsertPresence("g1", "u1", 150))
	p, err = r.GetPresence("g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(200), p.LastSeen)
}

func TestGetPresence_Unknown(t *testing.T) {
	r := newTestRepository(t)

	p, err := r.GetPresence("g1", "nobody")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestInsertMessage_Idempotent(t *testing.T) {
	r := newTestRepository(t)

	m := models.MessageEvent{
		MessageID:       "m1",
		GuildID:         "g1",
		ChannelID:       "c1",
		UserID:          "u1",
		CreatedAt:       100,
		AttachmentCount: 2,
		LinkCount:       1,
	}
	require.NoError(t, r.InsertMessage(m))
	require.NoError(t, r.InsertMessage(m), "re-delivery must be a silent no-op")

	stats, err := r.AggregateStats("g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalMessages)
	assert.Equal(t, int64(2), stats.TotalAttachments)
	assert.Equal(t, int64(1), stats.TotalLinks)
}

func TestCloseVoiceSession_ClosesMostRecent(t *testing.T) {
	r := newTestRepository(t)

	require.NoError(t, r.OpenVoiceSession("g1", "u1", "chA", 1000))

	closed, err := r.CloseVoiceSession("g1", "u1", 1800)
	require.NoError(t, err)
	assert.True(t, closed)

	// the session is closed now, a second close finds nothing
	closed, err = r.CloseVoiceSession("g1", "u1", 1900)
	require.NoError(t, err)
	assert.False(t, closed)

	stats, err := r.AggregateStats("g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(800), stats.TotalVoiceSeconds)
}

func TestCloseVoiceSession_NoOpenSession(t *testing.T) {
	r := newTestRepository(t)

	closed, err := r.CloseVoiceSession("g1", "u1", 500)
	require.NoError(t, err)
	assert.False(t, closed)
}

func TestAggregateStats_ZeroActivity(t *testing.T) {
	r := newTestRepository(t)

	stats, err := r.AggregateStats("g1", "nobody")
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{}, stats)
}

func TestAggregateStats_OpenSessionsExcluded(t *testing.T) {
	r := newTestRepository(t)

	require.NoError(t, r.OpenVoiceSession("g1", "u1", "chA", 1000))
	closed, err := r.CloseVoiceSession("g1", "u1", 1500)
	require.NoError(t, err)
	require.True(t, closed)

	// still open, contributes nothing until closed
	require.NoError(t, r.OpenVoiceSession("g1", "u1", "chB", 2000))

	stats, err := r.AggregateStats("g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), stats.TotalVoiceSeconds)
}

func TestAggregateStats_MessageTotals(t *testing.T) {
	r := newTestRepository(t)

	attachments := []int64{0, 2, 1}
	links := []int64{1, 0, 0}
	for i := range attachments {
		require.NoError(t, r.InsertMessage(models.MessageEvent{
			MessageID:       string(rune('a' + i)),
			GuildID:         "g1",
			ChannelID:       "c1",
			UserID:          "u1",
			CreatedAt:       int64(100 + i),
			AttachmentCount: attachments[i],
			LinkCount:       links[i],
		}))
	}

	stats, err := r.AggregateStats("g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalMessages)
	assert.Equal(t, int64(3), stats.TotalAttachments)
	assert.Equal(t, int64(1), stats.TotalLinks)
}

func TestAddActivitySeconds_Accumulates(t *testing.T) {
	r := newTestRepository(t)

	require.NoError(t, r.AddActivitySeconds("u1", "g1", "Factorio", 100))
	require.NoError(t, r.AddActivitySeconds("u1", "g1", "Factorio", 50))

	total, err := r.GetActivitySeconds("u1", "g1", "Factorio")
	require.NoError(t, err)
	assert.Equal(t, int64(150), total)
}

func TestGetActivitySeconds_Unknown(t *testing.T) {
	r := newTestRepository(t)

	total, err := r.GetActivitySeconds("u1", "g1", "Nothing")
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestGetTopActivities_Ordering(t *testing.T) {
	r := newTestRepository(t)

	require.NoError(t, r.AddActivitySeconds("u1", "g1", "Factorio", 300))
	require.NoError(t, r.AddActivitySeconds("u1", "g1", "Hades", 500))
	require.NoError(t, r.AddActivitySeconds("u1", "g1", "Celeste", 100))

	activities, err := r.GetTopActivities("u1", "g1", 2)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, "Hades", activities[0].ActivityName)
	assert.Equal(t, "Factorio", activities[1].ActivityName)
}

func TestGetVoiceChannelBreakdown(t *testing.T) {
	r := newTestRepository(t)

	require.NoError(t, r.OpenVoiceSession("g1", "u1", "chA", 1000))
	closed, err := r.CloseVoiceSession("g1", "u1", 1500)
	require.NoError(t, err)
	require.True(t, closed)

	require.NoError(t, r.OpenVoiceSession("g1", "u1", "chB", 1500))
	closed, err = r.CloseVoiceSession("g1", "u1", 1800)
	require.NoError(t, err)
	require.True(t, closed)

	breakdown, err := r.GetVoiceChannelBreakdown("g1", "u1")
	require.NoError(t, err)
	require.Len(t, breakdown, 2)
	assert.Equal(t, models.ChannelVoice{ChannelID: "chA", TotalSeconds: 500}, breakdown[0])
	assert.Equal(t, models.ChannelVoice{ChannelID: "chB", TotalSeconds: 300}, breakdown[1])
}

func TestGetVoiceLeaderboard(t *testing.T) {
	r := newTestRepository(t)

	require.NoError(t, r.OpenVoiceSession("g1", "u1", "chA", 0))
	_, err := r.CloseVoiceSession("g1", "u1", 100)
	require.NoError(t, err)

	require.NoError(t, r.OpenVoiceSession("g1", "u2", "chA", 0))
	_, err = r.CloseVoiceSession("g1", "u2", 300)
	require.NoError(t, err)

	// open session in another guild must not leak in
	require.NoError(t, r.OpenVoiceSession("g2", "u3", "chZ", 0))

	entries, err := r.GetVoiceLeaderboard("g1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.LeaderboardEntry{UserID: "u2", TotalSeconds: 300}, entries[0])
	assert.Equal(t, models.LeaderboardEntry{UserID: "u1", TotalSeconds: 100}, entries[1])
}
