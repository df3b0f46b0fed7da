package registry_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairgo/backend/internal/moderation"
	"pairgo/backend/internal/models"
	"pairgo/backend/internal/registry"
)

func newRegistry() *registry.Service {
	return registry.NewService(registry.DefaultIdleTimeout, zerolog.Nop())
}

func TestCreate_AllocatesSession(t *testing.T) {
	reg := newRegistry()

	sess, err := reg.Create("conn-1", models.RegisterPayload{Gender: "FEMALE", Age: "18-25"})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(sess.UserID)
	assert.NoError(t, parseErr, "user id must be a valid UUID")
	assert.Equal(t, models.GenderFemale, sess.Profile.Gender)
	assert.Equal(t, 1.0, sess.TrustScore)
	assert.False(t, sess.Banned)
	assert.Equal(t, 1, reg.Count())

	// both indices resolve to the same session
	byTransport, ok := reg.GetByTransport("conn-1")
	require.True(t, ok)
	byUser, ok := reg.GetByUser(sess.UserID)
	require.True(t, ok)
	assert.Same(t, byTransport, byUser)
}

func TestCreate_RejectsDuplicateTransport(t *testing.T) {
	reg := newRegistry()

	_, err := reg.Create("conn-1", models.RegisterPayload{})
	require.NoError(t, err)

	_, err = reg.Create("conn-1", models.RegisterPayload{})
	assert.ErrorIs(t, err, registry.ErrAlreadyRegistered)
	assert.Equal(t, 1, reg.Count())
}

func TestRemove_ClearsBothIndices(t *testing.T) {
	reg := newRegistry()
	sess, _ := reg.Create("conn-1", models.RegisterPayload{})

	removed, ok := reg.Remove("conn-1")
	require.True(t, ok)
	assert.Equal(t, sess.UserID, removed.UserID)

	_, ok = reg.GetByTransport("conn-1")
	assert.False(t, ok)
	_, ok = reg.GetByUser(sess.UserID)
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Count())

	_, ok = reg.Remove("conn-1")
	assert.False(t, ok, "second remove is a no-op")

	// lifetime counter survives removal
	assert.Equal(t, 1, reg.TotalConnections())
}

func TestTouch_RefreshesActivity(t *testing.T) {
	reg := newRegistry()
	sess, _ := reg.Create("conn-1", models.RegisterPayload{})

	before := sess.LastActiveAt
	time.Sleep(5 * time.Millisecond)
	reg.Touch("conn-1")

	assert.True(t, sess.LastActiveAt.After(before))
}

func TestFlag_TrustDecayAndAutoBan(t *testing.T) {
	reg := newRegistry()
	sess, _ := reg.Create("conn-1", models.RegisterPayload{})

	prev := sess.TrustScore
	for i := 1; i <= moderation.BanViolationCount; i++ {
		flagged, err := reg.Flag(sess.UserID, moderation.ViolationSpam)
		require.NoError(t, err)
		assert.LessOrEqual(t, flagged.TrustScore, prev, "trust must never increase")
		prev = flagged.TrustScore

		if i < moderation.BanViolationCount {
			assert.False(t, flagged.Banned, "ban must not trigger before violation %d", moderation.BanViolationCount)
		}
	}

	assert.True(t, sess.Banned, "5th violation must auto-ban")
	assert.LessOrEqual(t, sess.TrustScore, 0.5)
	assert.Equal(t, moderation.BanViolationCount, sess.ViolationCount)
}

func TestFlag_TrustFloorsAtZero(t *testing.T) {
	reg := newRegistry()
	sess, _ := reg.Create("conn-1", models.RegisterPayload{})

	for i := 0; i < 15; i++ {
		_, err := reg.Flag(sess.UserID, moderation.ViolationReported)
		require.NoError(t, err)
	}
	assert.Equal(t, 0.0, sess.TrustScore)
	assert.True(t, sess.Reported)
}

func TestFlag_UnknownUser(t *testing.T) {
	reg := newRegistry()
	_, err := reg.Flag("ghost", moderation.ViolationSpam)
	assert.ErrorIs(t, err, registry.ErrSessionNotFound)
}

func TestBindUnbindRoom(t *testing.T) {
	reg := newRegistry()
	sess, _ := reg.Create("conn-1", models.RegisterPayload{})

	require.NoError(t, reg.BindRoom(sess.UserID, "room-9"))
	assert.Equal(t, "room-9", sess.CurrentRoomID)

	reg.UnbindRoom(sess.UserID)
	assert.Empty(t, sess.CurrentRoomID)

	assert.ErrorIs(t, reg.BindRoom("ghost", "room-9"), registry.ErrSessionNotFound)
}

func TestUpdateProfile_MergesPartial(t *testing.T) {
	reg := newRegistry()
	_, err := reg.Create("conn-1", models.RegisterPayload{Gender: "male", Location: "Lviv, Ukraine"})
	require.NoError(t, err)

	sess, err := reg.UpdateProfile("conn-1", models.RegisterPayload{Age: "26-35"})
	require.NoError(t, err)
	assert.Equal(t, models.GenderMale, sess.Profile.Gender)
	assert.Equal(t, models.Age26to35, sess.Profile.Age)

	_, err = reg.UpdateProfile("ghost", models.RegisterPayload{})
	assert.ErrorIs(t, err, registry.ErrSessionNotFound)
}

func TestSweepExpired(t *testing.T) {
	reg := registry.NewService(10*time.Minute, zerolog.Nop())

	fresh, _ := reg.Create("conn-1", models.RegisterPayload{})
	stale, _ := reg.Create("conn-2", models.RegisterPayload{})
	stale.LastActiveAt = time.Now().Add(-11 * time.Minute)

	expired := reg.SweepExpired()
	require.Len(t, expired, 1)
	assert.Equal(t, stale.UserID, expired[0].UserID)
	_ = fresh
}
