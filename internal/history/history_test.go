package history_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairgo/backend/internal/history"
	"pairgo/backend/internal/models"
)

func summary(id string) models.RoomSummary {
	return models.RoomSummary{RoomID: id, EndReason: models.EndReasonUserAction}
}

func TestRing_AddAndGet(t *testing.T) {
	r := history.NewRing(10)

	r.Add(summary("room-1"))

	got, ok := r.Get("room-1")
	require.True(t, ok)
	assert.Equal(t, "room-1", got.RoomID)

	_, ok = r.Get("room-2")
	assert.False(t, ok)
}

func TestRing_EvictsOldestAtCapacity(t *testing.T) {
	r := history.NewRing(3)

	for i := 1; i <= 5; i++ {
		r.Add(summary(fmt.Sprintf("room-%d", i)))
	}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 5, r.TotalRooms())

	_, ok := r.Get("room-1")
	assert.False(t, ok)
	_, ok = r.Get("room-2")
	assert.False(t, ok)
	_, ok = r.Get("room-5")
	assert.True(t, ok)
}

func TestRing_ReAddSameRoomKeepsOneSlot(t *testing.T) {
	r := history.NewRing(10)

	r.Add(summary("room-1"))
	r.Add(summary("room-1"))

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, r.TotalRooms())
}

func TestRing_Recent(t *testing.T) {
	r := history.NewRing(10)
	for i := 1; i <= 4; i++ {
		r.Add(summary(fmt.Sprintf("room-%d", i)))
	}

	recent := r.Recent(2)

	require.Len(t, recent, 2)
	assert.Equal(t, "room-4", recent[0].RoomID)
	assert.Equal(t, "room-3", recent[1].RoomID)

	// Asking for more than exists returns everything.
	assert.Len(t, r.Recent(100), 4)
}

func TestRing_WaitSamples(t *testing.T) {
	r := history.NewRing(10)

	assert.Equal(t, time.Duration(0), r.AverageWait())

	r.RecordWait(2 * time.Second)
	r.RecordWait(4 * time.Second)
	r.RecordMatch()

	assert.Equal(t, 3*time.Second, r.AverageWait())
	assert.Equal(t, 1, r.TotalMatches())
}
