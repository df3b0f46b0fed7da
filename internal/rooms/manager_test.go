package rooms_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairgo/backend/internal/history"
	"pairgo/backend/internal/models"
	"pairgo/backend/internal/rooms"
)

// stubBinder records room bindings the way the registry would.
type stubBinder struct {
	bound map[string]string
}

func newStubBinder() *stubBinder {
	return &stubBinder{bound: make(map[string]string)}
}

func (b *stubBinder) BindRoom(userID, roomID string) error {
	b.bound[userID] = roomID
	return nil
}

func (b *stubBinder) UnbindRoom(userID string) {
	delete(b.bound, userID)
}

func newManager(binder *stubBinder) *rooms.Service {
	return rooms.NewService(binder, history.NewRing(100), rooms.DefaultMaxDuration, zerolog.Nop())
}

func TestCreate_BindsBothParticipants(t *testing.T) {
	binder := newStubBinder()
	mgr := newManager(binder)

	room, err := mgr.Create("user_A", "user_B", models.ChatTypeText)
	require.NoError(t, err)

	assert.Equal(t, models.RoomStateActive, room.State)
	assert.Equal(t, room.RoomID, binder.bound["user_A"])
	assert.Equal(t, room.RoomID, binder.bound["user_B"])
	assert.Equal(t, 1, mgr.Count())

	byUser, ok := mgr.GetByUser("user_A")
	require.True(t, ok)
	assert.Equal(t, room.RoomID, byUser.RoomID)
	assert.Equal(t, "user_B", byUser.PeerOf("user_A"))
}

func TestCreate_RejectsUserAlreadyInRoom(t *testing.T) {
	mgr := newManager(newStubBinder())

	_, err := mgr.Create("user_A", "user_B", models.ChatTypeText)
	require.NoError(t, err)

	_, err = mgr.Create("user_A", "user_C", models.ChatTypeText)
	assert.ErrorIs(t, err, rooms.ErrAlreadyInRoom)
}

func TestAppendMessage_SequencesAreMonotonic(t *testing.T) {
	mgr := newManager(newStubBinder())
	room, _ := mgr.Create("user_A", "user_B", models.ChatTypeText)

	for i := 1; i <= 5; i++ {
		msg, err := mgr.AppendMessage(room.RoomID, "user_A", fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
		assert.Equal(t, i, msg.Sequence, "sequence must be gapless starting at 1")
		assert.Equal(t, models.MessageTypeUser, msg.Type)
	}
}

func TestAppendMessage_Errors(t *testing.T) {
	mgr := newManager(newStubBinder())
	room, _ := mgr.Create("user_A", "user_B", models.ChatTypeText)

	_, err := mgr.AppendMessage(room.RoomID, "intruder", "hi")
	assert.ErrorIs(t, err, rooms.ErrNotParticipant)

	_, err = mgr.AppendMessage("no-such-room", "user_A", "hi")
	assert.ErrorIs(t, err, rooms.ErrRoomClosed)

	_, _ = mgr.End(room.RoomID, models.EndReasonUserAction, "user_A")
	_, err = mgr.AppendMessage(room.RoomID, "user_A", "hi")
	assert.ErrorIs(t, err, rooms.ErrRoomClosed, "no messages accepted after end")
}

func TestAppendMessage_CapAtThousand(t *testing.T) {
	mgr := newManager(newStubBinder())
	room, _ := mgr.Create("user_A", "user_B", models.ChatTypeText)

	for i := 0; i < models.MaxRoomMessages; i++ {
		_, err := mgr.AppendMessage(room.RoomID, "user_A", "x")
		require.NoError(t, err)
	}

	_, err := mgr.AppendMessage(room.RoomID, "user_A", "one too many")
	assert.ErrorIs(t, err, rooms.ErrMessageLimit)
}

func TestEnd_IsIdempotent(t *testing.T) {
	binder := newStubBinder()
	mgr := newManager(binder)
	room, _ := mgr.Create("user_A", "user_B", models.ChatTypeText)
	_, _ = mgr.AppendMessage(room.RoomID, "user_A", "hi")

	first, err := mgr.End(room.RoomID, models.EndReasonUserAction, "user_A")
	require.NoError(t, err)
	assert.Equal(t, models.EndReasonUserAction, first.EndReason)
	assert.Equal(t, 1, first.MessageCount)

	// bindings cleared, room gone from active set
	assert.Empty(t, binder.bound)
	assert.Equal(t, 0, mgr.Count())
	_, ok := mgr.GetByUser("user_A")
	assert.False(t, ok)

	second, err := mgr.End(room.RoomID, models.EndReasonDisconnected, "user_B")
	require.NoError(t, err)
	assert.Equal(t, first, second, "second end must return the first summary unchanged")
}

func TestEnd_UnknownRoom(t *testing.T) {
	mgr := newManager(newStubBinder())
	_, err := mgr.End("ghost", models.EndReasonUserAction, "")
	assert.ErrorIs(t, err, rooms.ErrRoomNotFound)
}

func TestRecordActivity_WebRTCDuration(t *testing.T) {
	mgr := newManager(newStubBinder())
	room, _ := mgr.Create("user_A", "user_B", models.ChatTypeVideo)

	require.NoError(t, mgr.RecordActivity(room.RoomID, rooms.ActivityWebRTCConnect, ""))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, mgr.RecordActivity(room.RoomID, rooms.ActivityWebRTCDisconnect, ""))

	got, _ := mgr.GetByRoom(room.RoomID)
	assert.GreaterOrEqual(t, got.Analytics.WebRTCDuration, 20*time.Millisecond)
	assert.Nil(t, got.Analytics.WebRTCConnectedAt)
}

func TestRecordActivity_QualityIssuesBounded(t *testing.T) {
	mgr := newManager(newStubBinder())
	room, _ := mgr.Create("user_A", "user_B", models.ChatTypeVideo)

	for i := 0; i < models.QualityIssueLimit+10; i++ {
		require.NoError(t, mgr.RecordActivity(room.RoomID, rooms.ActivityQualityIssue, "choppy video"))
	}
	got, _ := mgr.GetByRoom(room.RoomID)
	assert.Len(t, got.Analytics.QualityIssues, models.QualityIssueLimit)
}

func TestEnd_AccumulatesOpenWebRTCSession(t *testing.T) {
	mgr := newManager(newStubBinder())
	room, _ := mgr.Create("user_A", "user_B", models.ChatTypeVideo)

	require.NoError(t, mgr.RecordActivity(room.RoomID, rooms.ActivityWebRTCConnect, ""))
	time.Sleep(10 * time.Millisecond)

	summary, err := mgr.End(room.RoomID, models.EndReasonUserAction, "user_A")
	require.NoError(t, err)
	assert.Greater(t, summary.WebRTCDuration, time.Duration(0), "open webrtc session is closed out on end")
}

func TestSweepInactive(t *testing.T) {
	mgr := newManager(newStubBinder())
	idle, _ := mgr.Create("user_A", "user_B", models.ChatTypeText)
	fresh, _ := mgr.Create("user_C", "user_D", models.ChatTypeText)

	// Only the first room has gone quiet.
	got, _ := mgr.GetByRoom(idle.RoomID)
	got.LastActivityAt = time.Now().Add(-31 * time.Minute)

	ended := mgr.SweepInactive(30 * time.Minute)
	require.Len(t, ended, 1)
	assert.Equal(t, idle.RoomID, ended[0].RoomID)
	assert.Equal(t, models.EndReasonInactive, ended[0].Reason)

	_, ok := mgr.GetByRoom(fresh.RoomID)
	assert.True(t, ok, "active room must survive the sweep")
}

func TestSweepInactive_AbsoluteCap(t *testing.T) {
	mgr := rooms.NewService(newStubBinder(), history.NewRing(100), time.Hour, zerolog.Nop())
	room, _ := mgr.Create("user_A", "user_B", models.ChatTypeText)

	got, _ := mgr.GetByRoom(room.RoomID)
	got.CreatedAt = time.Now().Add(-61 * time.Minute)
	got.LastActivityAt = time.Now() // still chatting, but over the cap

	ended := mgr.SweepInactive(30 * time.Minute)
	require.Len(t, ended, 1)
	assert.Equal(t, models.EndReasonTimeout, ended[0].Reason)
}

func TestEndAll(t *testing.T) {
	mgr := newManager(newStubBinder())
	_, _ = mgr.Create("user_A", "user_B", models.ChatTypeText)
	_, _ = mgr.Create("user_C", "user_D", models.ChatTypeText)

	ended := mgr.EndAll(models.EndReasonServerShutdown)
	assert.Len(t, ended, 2)
	assert.Equal(t, 0, mgr.Count())
}
