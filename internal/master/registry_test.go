package master

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/fractal-engine/pkg/types"
)

func TestNewInMemoryWorkerRegistry(t *testing.T) {
	registry := NewInMemoryWorkerRegistry()
	assert.NotNil(t, registry)
	assert.Equal(t, 0, registry.Count())
}

func TestRegisterWorker(t *testing.T) {
	registry := NewInMemoryWorkerRegistry()
	ctx := context.Background()

	err := registry.Register(ctx, &types.WorkerInfo{ID: "worker-1", Hostname: "node-a"})
	require.NoError(t, err)
	assert.Equal(t, 1, registry.Count())

	info, err := registry.GetWorker(ctx, "worker-1")
	require.NoError(t, err)
	assert.Equal(t, "node-a", info.Hostname)
	assert.False(t, info.RegisteredAt.IsZero())

	status, err := registry.GetWorkerStatus(ctx, "worker-1")
	require.NoError(t, err)
	assert.Equal(t, types.WorkerStateIdle, status.State)
	assert.Equal(t, -1, status.Row)
}

func TestRegisterWorkerInvalid(t *testing.T) {
	registry := NewInMemoryWorkerRegistry()
	ctx := context.Background()

	assert.Error(t, registry.Register(ctx, nil))
	assert.Error(t, registry.Register(ctx, &types.WorkerInfo{}))

	require.NoError(t, registry.Register(ctx, &types.WorkerInfo{ID: "w"}))
	assert.ErrorIs(t, registry.Register(ctx, &types.WorkerInfo{ID: "w"}), ErrWorkerExists)
}

func TestUnregisterWorker(t *testing.T) {
	registry := NewInMemoryWorkerRegistry()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, registry.Register(ctx, &types.WorkerInfo{ID: id}))
	}
	require.NoError(t, registry.Unregister(ctx, "b"))
	assert.ErrorIs(t, registry.Unregister(ctx, "b"), ErrWorkerNotFound)

	workers, err := registry.ListWorkers(ctx)
	require.NoError(t, err)
	require.Len(t, workers, 2)
	assert.Equal(t, "a", workers[0].ID)
	assert.Equal(t, "c", workers[1].ID)

	_, err = registry.GetWorker(ctx, "b")
	assert.ErrorIs(t, err, ErrWorkerNotFound)
	_, err = registry.GetWorkerStatus(ctx, "b")
	assert.ErrorIs(t, err, ErrWorkerNotFound)
}

func TestUpdateStatus(t *testing.T) {
	registry := NewInMemoryWorkerRegistry()
	ctx := context.Background()
	require.NoError(t, registry.Register(ctx, &types.WorkerInfo{ID: "w"}))

	err := registry.UpdateStatus(ctx, "w", &types.WorkerStatus{State: types.WorkerStateBusy, Row: 4})
	require.NoError(t, err)

	status, err := registry.GetWorkerStatus(ctx, "w")
	require.NoError(t, err)
	assert.Equal(t, types.WorkerStateBusy, status.State)
	assert.Equal(t, 4, status.Row)

	assert.ErrorIs(t, registry.UpdateStatus(ctx, "missing", &types.WorkerStatus{}), ErrWorkerNotFound)
	assert.Error(t, registry.UpdateStatus(ctx, "w", nil))
}

func TestWatchWorkers(t *testing.T) {
	registry := NewInMemoryWorkerRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := registry.WatchWorkers(ctx)
	require.NoError(t, err)

	require.NoError(t, registry.Register(ctx, &types.WorkerInfo{ID: "w"}))
	require.NoError(t, registry.UpdateStatus(ctx, "w", &types.WorkerStatus{State: types.WorkerStateBusy}))
	require.NoError(t, registry.Unregister(ctx, "w"))

	want := []types.WorkerEventType{
		types.WorkerEventRegistered,
		types.WorkerEventUpdated,
		types.WorkerEventUnregistered,
	}
	for _, typ := range want {
		select {
		case ev := <-events:
			assert.Equal(t, typ, ev.Type)
			assert.Equal(t, "w", ev.WorkerID)
			if typ == types.WorkerEventUpdated {
				require.NotNil(t, ev.Status)
				assert.Equal(t, types.WorkerStateBusy, ev.Status.State)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing %s event", typ)
		}
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestWaitForWorkers(t *testing.T) {
	registry := NewInMemoryWorkerRegistry()
	ctx := context.Background()

	go func() {
		for _, id := range []string{"a", "b", "c"} {
			time.Sleep(5 * time.Millisecond)
			_ = registry.Register(ctx, &types.WorkerInfo{ID: id})
		}
	}()

	workers, err := registry.WaitForWorkers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, workers, 2)
	assert.Equal(t, "a", workers[0].ID)
	assert.Equal(t, "b", workers[1].ID)
}

func TestWaitForWorkersCancelled(t *testing.T) {
	registry := NewInMemoryWorkerRegistry()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := registry.WaitForWorkers(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = registry.WaitForWorkers(context.Background(), 0)
	assert.Error(t, err)
}
