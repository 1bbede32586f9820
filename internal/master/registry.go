package master

import (
	"context"
	"fmt"
	"sync"
	"time"

	"yqhp/fractal-engine/pkg/types"
)

// InMemoryWorkerRegistry implements WorkerRegistry using in-memory storage.
type InMemoryWorkerRegistry struct {
	// Worker storage, order holds IDs in registration order
	workers map[string]*types.WorkerInfo
	status  map[string]*types.WorkerStatus
	order   []string

	// closed and replaced on every membership change
	changed chan struct{}

	// Event subscribers
	subscribers []chan *types.WorkerEvent
	subMu       sync.RWMutex

	mu sync.RWMutex
}

// NewInMemoryWorkerRegistry creates a new in-memory worker registry.
func NewInMemoryWorkerRegistry() *InMemoryWorkerRegistry {
	return &InMemoryWorkerRegistry{
		workers:     make(map[string]*types.WorkerInfo),
		status:      make(map[string]*types.WorkerStatus),
		changed:     make(chan struct{}),
		subscribers: make([]chan *types.WorkerEvent, 0),
	}
}

// Register registers a new worker.
func (r *InMemoryWorkerRegistry) Register(ctx context.Context, worker *types.WorkerInfo) error {
	if worker == nil {
		return fmt.Errorf("worker cannot be nil")
	}
	if worker.ID == "" {
		return fmt.Errorf("worker ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workers[worker.ID]; exists {
		return fmt.Errorf("%w: %s", ErrWorkerExists, worker.ID)
	}

	if worker.RegisteredAt.IsZero() {
		worker.RegisteredAt = time.Now()
	}
	r.workers[worker.ID] = worker
	r.order = append(r.order, worker.ID)
	r.status[worker.ID] = &types.WorkerStatus{
		State:    types.WorkerStateIdle,
		Row:      -1,
		LastSeen: time.Now(),
	}
	r.broadcastChange()

	r.notifyEvent(&types.WorkerEvent{
		Type:     types.WorkerEventRegistered,
		WorkerID: worker.ID,
		Worker:   worker,
	})

	return nil
}

// Unregister removes a worker.
func (r *InMemoryWorkerRegistry) Unregister(ctx context.Context, workerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	worker, exists := r.workers[workerID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrWorkerNotFound, workerID)
	}

	delete(r.workers, workerID)
	delete(r.status, workerID)
	for i, id := range r.order {
		if id == workerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.broadcastChange()

	r.notifyEvent(&types.WorkerEvent{
		Type:     types.WorkerEventUnregistered,
		WorkerID: workerID,
		Worker:   worker,
	})

	return nil
}

// UpdateStatus replaces a worker's status and notifies on state changes.
func (r *InMemoryWorkerRegistry) UpdateStatus(ctx context.Context, workerID string, status *types.WorkerStatus) error {
	if status == nil {
		return fmt.Errorf("status cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workers[workerID]; !exists {
		return fmt.Errorf("%w: %s", ErrWorkerNotFound, workerID)
	}

	old := r.status[workerID]
	r.status[workerID] = status

	if old != nil && old.State != status.State {
		r.notifyEvent(&types.WorkerEvent{
			Type:     types.WorkerEventUpdated,
			WorkerID: workerID,
			Worker:   r.workers[workerID],
			Status:   status,
		})
	}

	return nil
}

// GetWorker returns a single worker's information.
func (r *InMemoryWorkerRegistry) GetWorker(ctx context.Context, workerID string) (*types.WorkerInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	worker, exists := r.workers[workerID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrWorkerNotFound, workerID)
	}
	return worker, nil
}

// GetWorkerStatus returns a worker's current status.
func (r *InMemoryWorkerRegistry) GetWorkerStatus(ctx context.Context, workerID string) (*types.WorkerStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status, exists := r.status[workerID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrWorkerNotFound, workerID)
	}
	return status, nil
}

// ListWorkers lists workers in registration order.
func (r *InMemoryWorkerRegistry) ListWorkers(ctx context.Context) ([]*types.WorkerInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked(len(r.order)), nil
}

func (r *InMemoryWorkerRegistry) listLocked(n int) []*types.WorkerInfo {
	result := make([]*types.WorkerInfo, 0, n)
	for _, id := range r.order[:n] {
		result = append(result, r.workers[id])
	}
	return result
}

// WaitForWorkers blocks until at least n workers are registered.
func (r *InMemoryWorkerRegistry) WaitForWorkers(ctx context.Context, n int) ([]*types.WorkerInfo, error) {
	if n <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", n)
	}

	for {
		r.mu.RLock()
		if len(r.order) >= n {
			result := r.listLocked(n)
			r.mu.RUnlock()
			return result, nil
		}
		changed := r.changed
		r.mu.RUnlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %d workers: %w", n, ctx.Err())
		}
	}
}

// WatchWorkers streams worker events until ctx is done.
func (r *InMemoryWorkerRegistry) WatchWorkers(ctx context.Context) (<-chan *types.WorkerEvent, error) {
	ch := make(chan *types.WorkerEvent, 100)

	r.subMu.Lock()
	r.subscribers = append(r.subscribers, ch)
	r.subMu.Unlock()

	go func() {
		<-ctx.Done()
		r.removeSubscriber(ch)
		close(ch)
	}()

	return ch, nil
}

// Count returns the number of registered workers.
func (r *InMemoryWorkerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

// broadcastChange wakes WaitForWorkers callers. Caller holds r.mu.
func (r *InMemoryWorkerRegistry) broadcastChange() {
	close(r.changed)
	r.changed = make(chan struct{})
}

// notifyEvent sends an event to all subscribers.
func (r *InMemoryWorkerRegistry) notifyEvent(event *types.WorkerEvent) {
	r.subMu.RLock()
	defer r.subMu.RUnlock()

	for _, ch := range r.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}

func (r *InMemoryWorkerRegistry) removeSubscriber(ch chan *types.WorkerEvent) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	for i, sub := range r.subscribers {
		if sub == ch {
			r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
			break
		}
	}
}
