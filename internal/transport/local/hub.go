// Package local connects a master and in-process workers through channels.
//
// Each worker owns a buffered assignment channel; every worker sends its
// results into one shared channel that only the master reads.
package local

import (
	"context"
	"errors"
	"fmt"

	"yqhp/fractal-engine/pkg/types"
)

// ErrUnknownWorker is returned when addressing a worker the hub does not know.
var ErrUnknownWorker = errors.New("local: unknown worker")

// Hub is the master end of the in-process transport.
type Hub struct {
	ids     []string
	inboxes map[string]chan types.Assignment
	results chan types.ResultUnit
}

// NewHub creates a hub for the given worker IDs. IDs must be unique.
func NewHub(ids []string) (*Hub, error) {
	h := &Hub{
		ids:     make([]string, 0, len(ids)),
		inboxes: make(map[string]chan types.Assignment, len(ids)),
		results: make(chan types.ResultUnit, len(ids)),
	}
	for _, id := range ids {
		if _, dup := h.inboxes[id]; dup {
			return nil, fmt.Errorf("local: duplicate worker id %s", id)
		}
		h.ids = append(h.ids, id)
		// one outstanding assignment per worker at most
		h.inboxes[id] = make(chan types.Assignment, 1)
	}
	return h, nil
}

// Workers returns the worker IDs in registration order.
func (h *Hub) Workers() []string {
	out := make([]string, len(h.ids))
	copy(out, h.ids)
	return out
}

// Assign delivers an assignment to one worker.
func (h *Hub) Assign(ctx context.Context, workerID string, a types.Assignment) error {
	inbox, ok := h.inboxes[workerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWorker, workerID)
	}
	select {
	case inbox <- a:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive blocks until any worker delivers a result.
func (h *Hub) Receive(ctx context.Context) (types.ResultUnit, error) {
	select {
	case r := <-h.results:
		return r, nil
	case <-ctx.Done():
		return types.ResultUnit{}, ctx.Err()
	}
}

// Conn returns the worker end for workerID.
func (h *Hub) Conn(workerID string) (*Conn, error) {
	inbox, ok := h.inboxes[workerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorker, workerID)
	}
	return &Conn{id: workerID, inbox: inbox, results: h.results}, nil
}

// Conn is the worker end of the in-process transport.
type Conn struct {
	id      string
	inbox   <-chan types.Assignment
	results chan<- types.ResultUnit
}

// Receive blocks until the master assigns work or terminates the worker.
func (c *Conn) Receive(ctx context.Context) (types.Assignment, error) {
	select {
	case a := <-c.inbox:
		return a, nil
	case <-ctx.Done():
		return types.Assignment{}, ctx.Err()
	}
}

// Send delivers a result, stamping it with this connection's worker ID.
func (c *Conn) Send(ctx context.Context, result types.ResultUnit) error {
	result.WorkerID = c.id
	select {
	case c.results <- result:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
