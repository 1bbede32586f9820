package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/fractal-engine/pkg/types"
)

func TestHubRoundTrip(t *testing.T) {
	hub, err := NewHub([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, hub.Workers())

	ctx := context.Background()
	conn, err := hub.Conn("b")
	require.NoError(t, err)

	require.NoError(t, hub.Assign(ctx, "b", types.WorkAssignment(types.WorkUnit{Row: 3})))
	a, err := conn.Receive(ctx)
	require.NoError(t, err)
	require.NotNil(t, a.Work)
	assert.Equal(t, 3, a.Work.Row)

	require.NoError(t, conn.Send(ctx, types.ResultUnit{WorkerID: "spoofed", Row: 3, Values: []int{1}}))
	r, err := hub.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", r.WorkerID)
	assert.Equal(t, 3, r.Row)
}

func TestHubDuplicateID(t *testing.T) {
	_, err := NewHub([]string{"a", "a"})
	assert.Error(t, err)
}

func TestHubUnknownWorker(t *testing.T) {
	hub, err := NewHub([]string{"a"})
	require.NoError(t, err)

	err = hub.Assign(context.Background(), "zzz", types.TerminateAssignment())
	assert.ErrorIs(t, err, ErrUnknownWorker)

	_, err = hub.Conn("zzz")
	assert.ErrorIs(t, err, ErrUnknownWorker)
}

func TestHubReceiveCancelled(t *testing.T) {
	hub, err := NewHub([]string{"a"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = hub.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
