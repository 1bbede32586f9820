package ws

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"yqhp/fractal-engine/internal/master"
	"yqhp/fractal-engine/pkg/types"
)

const (
	// WorkerPath is the WebSocket endpoint workers dial.
	WorkerPath = "/api/v1/worker-ws"
	// HealthPath reports hub status.
	HealthPath = "/api/v1/health"
)

// workerConn wraps a single WebSocket connection from a worker.
type workerConn struct {
	workerID string
	conn     *fiberws.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once

	// closed by writePump once it no longer touches conn
	pumpExited chan struct{}

	// row in flight, -1 when none; guarded by Hub.mu
	row int
}

func (c *workerConn) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// Hub manages worker connections and implements master.Transport.
type Hub struct {
	job      *types.JobSpec
	registry master.WorkerRegistry
	logger   *zap.Logger

	conns  map[string]*workerConn
	order  []string
	sealed bool
	mu     sync.RWMutex

	results    chan types.ResultUnit
	violations chan error
	closed     chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub serving job. registry may be nil.
func NewHub(job *types.JobSpec, registry master.WorkerRegistry, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		job:      job,
		registry: registry,
		logger:   logger,
		conns:    make(map[string]*workerConn),
		results:    make(chan types.ResultUnit, 64),
		violations: make(chan error, 1),
		closed:     make(chan struct{}),
	}
}

// Workers returns the connected workers in registration order. The first call
// seals the hub: later registrations are rejected.
func (h *Hub) Workers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sealed = true
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Assign queues an assignment on the worker's connection.
func (h *Hub) Assign(ctx context.Context, workerID string, a types.Assignment) error {
	h.mu.Lock()
	conn, ok := h.conns[workerID]
	if ok {
		if a.IsTerminate() {
			conn.row = -1
		} else if a.Work != nil {
			conn.row = a.Work.Row
		}
	}
	h.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWorker, workerID)
	}

	frame, err := encodeAssignment(a)
	if err != nil {
		return err
	}

	select {
	case conn.send <- frame:
		return nil
	case <-conn.done:
		return fmt.Errorf("%w: %s", ErrWorkerGone, workerID)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive blocks until any worker returns a result. A malformed frame from a
// worker is reported as master.ErrProtocolViolation.
func (h *Hub) Receive(ctx context.Context) (types.ResultUnit, error) {
	select {
	case r := <-h.results:
		return r, nil
	case err := <-h.violations:
		return types.ResultUnit{}, err
	case <-h.closed:
		return types.ResultUnit{}, ErrHubClosed
	case <-ctx.Done():
		return types.ResultUnit{}, ctx.Err()
	}
}

// Count returns the number of connected workers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close stops delivering results and drops every connection.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.closed)
		h.mu.RLock()
		for _, c := range h.conns {
			c.close()
		}
		h.mu.RUnlock()
	})
}

// Drain waits until every worker has disconnected or ctx is done.
func (h *Hub) Drain(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for h.Count() > 0 {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// add registers conn with the hub. It fails once seeding started or for a duplicate ID.
func (h *Hub) add(conn *workerConn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sealed {
		return fmt.Errorf("run already started")
	}
	if _, ok := h.conns[conn.workerID]; ok {
		return fmt.Errorf("worker %s already connected", conn.workerID)
	}
	h.conns[conn.workerID] = conn
	h.order = append(h.order, conn.workerID)
	return nil
}

// remove drops conn and reports the row it still held.
func (h *Hub) remove(conn *workerConn) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[conn.workerID] != conn {
		return -1
	}
	delete(h.conns, conn.workerID)
	for i, id := range h.order {
		if id == conn.workerID {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	return conn.row
}

func (h *Hub) reject(c *fiberws.Conn, reason string) {
	frame, err := encodeMessage(types.WSMsgRegisterAck, types.WorkerRegisterResponse{
		Accepted: false,
		Error:    reason,
	})
	if err == nil {
		_ = c.WriteMessage(fiberws.TextMessage, frame)
	}
}

// handleConnection serves one worker from registration to disconnect.
func (h *Hub) handleConnection(c *fiberws.Conn) {
	// The first message must be a register message.
	_, raw, err := c.ReadMessage()
	if err != nil {
		h.logger.Warn("read first message failed", zap.Error(err))
		return
	}
	first, err := decodeMessage(raw)
	if err != nil || first.Type != types.WSMsgRegister {
		h.logger.Warn("expected register message", zap.Error(err))
		h.reject(c, "expected register message")
		return
	}

	req, err := decodePayload[types.WorkerRegisterRequest](first)
	if err != nil || req.WorkerID == "" {
		h.reject(c, "invalid register request")
		return
	}

	conn := &workerConn{
		workerID: req.WorkerID,
		conn:     c,
		send:       make(chan []byte, 4),
		done:       make(chan struct{}),
		pumpExited: make(chan struct{}),
		row:        -1,
	}
	log := h.logger.With(zap.String("worker", req.WorkerID))

	if err := h.add(conn); err != nil {
		log.Warn("registration refused", zap.Error(err))
		h.reject(c, err.Error())
		return
	}

	if h.registry != nil {
		info := &types.WorkerInfo{
			ID:       req.WorkerID,
			Hostname: req.Hostname,
			Address:  c.RemoteAddr().String(),
		}
		if err := h.registry.Register(context.Background(), info); err != nil {
			h.remove(conn)
			log.Warn("register worker failed", zap.Error(err))
			h.reject(c, err.Error())
			return
		}
		defer func() {
			_ = h.registry.Unregister(context.Background(), req.WorkerID)
		}()
	}

	ack, err := encodeMessage(types.WSMsgRegisterAck, types.WorkerRegisterResponse{
		Accepted:   true,
		AssignedID: req.WorkerID,
		Job:        h.job,
	})
	if err == nil {
		err = c.WriteMessage(fiberws.TextMessage, ack)
	}
	if err != nil {
		h.remove(conn)
		log.Warn("send register ack failed", zap.Error(err))
		return
	}

	log.Info("worker connected", zap.String("addr", c.RemoteAddr().String()))

	go conn.writePump()
	h.readPump(conn, log)
	conn.close()
	// c is recycled by fiber once this handler returns
	<-conn.pumpExited

	if row := h.remove(conn); row >= 0 {
		// nothing reassigns the row; the run cannot finish without this worker
		log.Warn("worker lost with row in flight", zap.Int("row", row))
	} else {
		log.Info("worker disconnected")
	}
}

func (h *Hub) readPump(conn *workerConn, log *zap.Logger) {
	for {
		_, raw, err := conn.conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := decodeMessage(raw)
		if err != nil {
			h.violation(conn, log, fmt.Errorf("undecodable frame: %w", err))
			return
		}
		if msg.Type != types.WSMsgResult {
			h.violation(conn, log, fmt.Errorf("%w: %q", ErrUnexpectedMessage, msg.Type))
			return
		}

		result, err := decodePayload[types.ResultUnit](msg)
		if err != nil {
			h.violation(conn, log, fmt.Errorf("undecodable result: %w", err))
			return
		}
		// the connection, not the payload, identifies the sender
		result.WorkerID = conn.workerID

		select {
		case h.results <- result:
		case <-h.closed:
			return
		case <-conn.done:
			return
		}
	}
}

// violation reports a malformed frame from conn to Receive. The caller drops the connection.
func (h *Hub) violation(conn *workerConn, log *zap.Logger, err error) {
	err = fmt.Errorf("%w: worker %q: %w", master.ErrProtocolViolation, conn.workerID, err)
	log.Warn("dropping worker", zap.Error(err))
	select {
	case h.violations <- err:
	default:
	}
}

// writePump owns writes and the final Close of conn.
func (c *workerConn) writePump() {
	defer close(c.pumpExited)
	defer func() { _ = c.conn.Close() }()
	for {
		select {
		case data := <-c.send:
			if err := c.conn.WriteMessage(fiberws.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Server is the master's HTTP surface: the worker endpoint and a health route.
type Server struct {
	app    *fiber.App
	hub    *Hub
	logger *zap.Logger
}

// NewServer creates a fiber app routing workers to hub.
func NewServer(hub *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})

	s := &Server{app: app, hub: hub, logger: logger}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Get(HealthPath, s.handleHealth)

	s.app.Use(WorkerPath, func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get(WorkerPath, fiberws.New(s.hub.handleConnection))
}

// HealthResponse is the body of the health route.
type HealthResponse struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id,omitempty"`
	Workers int    `json:"workers"`
	Sealed  bool   `json:"sealed"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	s.hub.mu.RLock()
	resp := HealthResponse{
		Status:  "ok",
		Workers: len(s.hub.conns),
		Sealed:  s.hub.sealed,
	}
	s.hub.mu.RUnlock()
	if s.hub.job != nil {
		resp.JobID = s.hub.job.ID
	}
	return c.JSON(resp)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr), zap.String("path", WorkerPath))
	return s.app.Listen(addr)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("listening", zap.String("addr", ln.Addr().String()), zap.String("path", WorkerPath))
	return s.app.Listener(ln)
}

// Shutdown closes the hub and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.app.ShutdownWithContext(ctx)
}
