package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruxlog/cruxlog/internal/common"
	"github.com/cruxlog/cruxlog/internal/logging"
	"github.com/cruxlog/cruxlog/internal/models"
	"github.com/cruxlog/cruxlog/internal/store"

	_ "modernc.org/sqlite"
)

type testEnv struct {
	store    *store.Store
	profiles *ProfileService
	follows  *FollowService
	sessions *SessionService
	climbs   *ClimbService
	photos   *PhotoService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	log := noopLogger{}
	return &testEnv{
		store:    st,
		profiles: NewProfileService(st.DB, log),
		follows:  NewFollowService(st.DB, log),
		sessions: NewSessionService(st.DB, log),
		climbs:   NewClimbService(st.DB, log),
		photos:   NewPhotoService(st.DB, log),
	}
}

type noopLogger struct{}

func (noopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (noopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (noopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (noopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (n noopLogger) With(args ...any) logging.Logger                  { return n }

func TestProfileSet_CreatesDirtyRecord(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	p, err := env.profiles.Set(ctx, "ondra", "Adam", "", "Flatanger")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	// the mutation and its queue entry land together
	pending, err := env.store.Profiles.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, p.ID, pending[0].Key)

	// second set updates in place, same id
	p2, err := env.profiles.Set(ctx, "ondra2", "Adam", "", "")
	require.NoError(t, err)
	assert.Equal(t, p.ID, p2.ID)
}

func TestProfileSet_HandleTakenLocally(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	other := &models.Profile{ID: "other", Handle: "ondra"}
	other.InitTimestamps(time.Now().UTC())
	require.NoError(t, env.store.Profiles.Save(ctx, other))

	_, err := env.profiles.Set(ctx, "ondra", "Me", "", "")
	assert.ErrorIs(t, err, common.ErrHandleTaken)
}

func TestSessionLifecycle(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.profiles.Set(ctx, "ondra", "", "", "")
	require.NoError(t, err)

	// no session to end yet
	_, err = env.sessions.End(ctx)
	assert.ErrorIs(t, err, common.ErrNoOpenSession)

	sess, err := env.sessions.Start(ctx, "Céüse", "")
	require.NoError(t, err)
	assert.True(t, sess.IsOpen())

	// only one open session at a time
	_, err = env.sessions.Start(ctx, "Siurana", "")
	assert.ErrorIs(t, err, common.ErrSessionOpen)

	ended, err := env.sessions.End(ctx)
	require.NoError(t, err)
	assert.False(t, ended.IsOpen())

	// a new one can start now
	_, err = env.sessions.Start(ctx, "Siurana", "")
	require.NoError(t, err)
}

func TestClimbAdd_RequiresOpenSession(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.profiles.Set(ctx, "ondra", "", "", "")
	require.NoError(t, err)

	_, err = env.climbs.Add(ctx, "Biographie", "9a+", models.StyleSport, false)
	assert.ErrorIs(t, err, common.ErrNoOpenSession)

	sess, err := env.sessions.Start(ctx, "Céüse", "")
	require.NoError(t, err)

	c, err := env.climbs.Add(ctx, "Biographie", "9a+", models.StyleSport, false)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, c.SessionID)
}

func TestAttemptNumbering(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.profiles.Set(ctx, "ondra", "", "", "")
	require.NoError(t, err)
	_, err = env.sessions.Start(ctx, "Céüse", "")
	require.NoError(t, err)
	c, err := env.climbs.Add(ctx, "Biographie", "9a+", models.StyleSport, false)
	require.NoError(t, err)

	a1, err := env.climbs.AddAttempt(ctx, c.ID, models.ResultFall, "")
	require.NoError(t, err)
	a2, err := env.climbs.AddAttempt(ctx, c.ID, models.ResultSend, "finally")
	require.NoError(t, err)

	assert.Equal(t, 1, a1.Number)
	assert.Equal(t, 2, a2.Number)
}

func TestDeleteDominance(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.profiles.Set(ctx, "ondra", "", "", "")
	require.NoError(t, err)
	_, err = env.sessions.Start(ctx, "Céüse", "")
	require.NoError(t, err)
	c, err := env.climbs.Add(ctx, "Biographie", "9a+", models.StyleSport, false)
	require.NoError(t, err)

	require.NoError(t, env.climbs.Delete(ctx, c.ID))

	// edits after the delete are rejected; the delete wins
	assert.ErrorIs(t, env.climbs.SetSent(ctx, c.ID, true), common.ErrRecordDeleted)
	_, err = env.climbs.AddAttempt(ctx, c.ID, models.ResultSend, "")
	assert.ErrorIs(t, err, common.ErrRecordDeleted)
	assert.ErrorIs(t, env.climbs.Delete(ctx, c.ID), common.ErrRecordDeleted)

	// the tombstone itself is queued for sync
	pending, err := env.store.Climbs.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Deleted)
}

func TestFollowRestore(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.profiles.Set(ctx, "ondra", "", "", "")
	require.NoError(t, err)

	require.NoError(t, env.follows.Follow(ctx, "friend-1"))
	require.NoError(t, env.follows.Unfollow(ctx, "friend-1"))
	require.NoError(t, env.follows.Follow(ctx, "friend-1"))

	list, err := env.follows.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "friend-1", list[0].FolloweeID)

	// following twice is a no-op
	require.NoError(t, env.follows.Follow(ctx, "friend-1"))
	list, err = env.follows.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFollowSelf_Rejected(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	p, err := env.profiles.Set(ctx, "ondra", "", "", "")
	require.NoError(t, err)

	assert.Error(t, env.follows.Follow(ctx, p.ID))
}

func TestPhotoAdd_SetsObjectKey(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.profiles.Set(ctx, "ondra", "", "", "")
	require.NoError(t, err)
	_, err = env.sessions.Start(ctx, "Céüse", "")
	require.NoError(t, err)
	c, err := env.climbs.Add(ctx, "Biographie", "9a+", models.StyleSport, false)
	require.NoError(t, err)

	p, err := env.photos.Add(ctx, c.ID, "/tmp/send.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "photos/"+p.ID, p.ObjectKey)

	pending, err := env.store.Photos.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
