package session

import (
	"context"
	"errors"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"scrumkit/internal/models"
)

type sessionKind int

const (
	kindRoom sessionKind = iota
	kindBoard
)

// Engine is the session registry and command processor. It owns every
// live session, serializes all mutation of one session through that
// session's worker, and hands broadcasts off before the next mutation
// runs. Different sessions never contend with each other.
type Engine struct {
	store Store
	gate  *Gate
	conns *ConnManager
	clock clockwork.Clock
	log   *logrus.Entry

	mu   sync.Mutex
	live map[string]*liveSession
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithClock substitutes the tick source; tests pass a fake clock.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLogger attaches a specific logger.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) { e.log = log }
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		gate:  NewGate(store),
		conns: NewConnManager(),
		clock: clockwork.NewRealClock(),
		log:   logrus.WithField("component", "session"),
		live:  make(map[string]*liveSession),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Connections exposes the connection manager so the transport layer
// can inspect session membership.
func (e *Engine) Connections() *ConnManager { return e.conns }

type task struct {
	fn   func() error
	done chan error
}

// liveSession is one in-memory session entry plus the worker that owns
// it. Exactly one of room/board is set.
type liveSession struct {
	id     string
	kind   sessionKind
	engine *Engine

	room  *roomState
	board *boardState

	tasks chan task
	quit  chan struct{}

	// timer bookkeeping, touched only from the worker
	timerGen  uint64
	timerStop chan struct{}
	timerDone chan struct{}
}

func (e *Engine) newLiveSession(id string, kind sessionKind) *liveSession {
	return &liveSession{
		id:     id,
		kind:   kind,
		engine: e,
		tasks:  make(chan task, 64),
		quit:   make(chan struct{}),
	}
}

// run is the session worker: the single writer for this session's
// state. Broadcast hand-off happens inside each task, so every
// subscriber observes mutations in the order they were applied.
func (s *liveSession) run() {
	for {
		select {
		case <-s.quit:
			return
		default:
		}
		select {
		case t := <-s.tasks:
			t.done <- s.runTask(t.fn)
		case <-s.quit:
			return
		}
	}
}

func (s *liveSession) runTask(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.engine.log.WithFields(logrus.Fields{
				"session_id": s.id,
				"panic":      r,
			}).Error("session command panicked")
			err = &Error{Code: CodeInternal, Message: "internal error"}
		}
	}()
	return fn()
}

// exec queues a mutation on the session worker and waits for the
// result. A session evicted while the caller waits reports NotFound.
func (s *liveSession) exec(fn func() error) error {
	t := task{fn: fn, done: make(chan error, 1)}
	select {
	case s.tasks <- t:
	case <-s.quit:
		return errNotFound("session is no longer active")
	}
	select {
	case err := <-t.done:
		return err
	case <-s.quit:
		return errNotFound("session is no longer active")
	}
}

// getOrLoadRoom returns the live entry for a room, creating it from
// the already-fetched durable record on first join (cache-aside).
func (e *Engine) getOrLoadRoom(rec *models.Room) (*liveSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.live[rec.ID]; ok {
		if s.kind != kindRoom {
			return nil, errNotFound("room not found")
		}
		return s, nil
	}
	s := e.newLiveSession(rec.ID, kindRoom)
	s.room = newRoomState(rec)
	e.live[rec.ID] = s
	go s.run()
	e.log.WithField("session_id", rec.ID).Debug("room loaded into registry")
	return s, nil
}

func (e *Engine) getOrLoadBoard(ctx context.Context, rec *models.Board) (*liveSession, error) {
	e.mu.Lock()
	if s, ok := e.live[rec.ID]; ok {
		e.mu.Unlock()
		if s.kind != kindBoard {
			return nil, errNotFound("board not found")
		}
		return s, nil
	}
	e.mu.Unlock()

	// Load cards outside the registry lock; other sessions keep moving.
	cards, err := e.store.ListCards(ctx, rec.ID)
	if err != nil && !errors.Is(err, ErrNotExist) {
		return nil, errPersistence("could not load board cards")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.live[rec.ID]; ok {
		// Another join won the load race.
		if s.kind != kindBoard {
			return nil, errNotFound("board not found")
		}
		return s, nil
	}
	s := e.newLiveSession(rec.ID, kindBoard)
	s.board = newBoardState(rec, cards)
	e.live[rec.ID] = s
	go s.run()
	e.log.WithField("session_id", rec.ID).Debug("board loaded into registry")
	return s, nil
}

// evictIfEmpty drops the registry entry once no participant remains.
// Called from inside the session's own worker, so no task is racing.
func (e *Engine) evictIfEmpty(s *liveSession) {
	var n int
	switch s.kind {
	case kindRoom:
		n = len(s.room.participants)
	case kindBoard:
		n = len(s.board.participants)
	}
	if n > 0 {
		return
	}

	s.cancelTimer()
	e.mu.Lock()
	delete(e.live, s.id)
	e.mu.Unlock()
	close(s.quit)
	e.log.WithField("session_id", s.id).Debug("session evicted from registry")
}

// sessionFor resolves the live session a connection has joined.
// Commands issued before a successful join fail IdentityRequired.
func (e *Engine) sessionFor(connID string, kind sessionKind) (*liveSession, error) {
	sid, ok := e.conns.SessionOf(connID)
	if !ok {
		return nil, errIdentityRequired("not identified")
	}
	e.mu.Lock()
	s := e.live[sid]
	e.mu.Unlock()
	if s == nil || s.kind != kind {
		return nil, errNotFound("session is no longer active")
	}
	return s, nil
}

// Disconnect removes a connection's participant and broadcasts the
// resulting snapshot before the session is considered for eviction.
// Duplicate notifications and connections that never joined are safe
// no-ops.
func (e *Engine) Disconnect(connID string) {
	sid, ok := e.conns.SessionOf(connID)
	if !ok {
		return
	}
	e.mu.Lock()
	s := e.live[sid]
	e.mu.Unlock()
	if s == nil {
		e.conns.Unregister(connID)
		return
	}

	_ = s.exec(func() error {
		e.conns.Unregister(connID)
		switch s.kind {
		case kindRoom:
			if _, ok := s.room.participants[connID]; ok {
				delete(s.room.participants, connID)
				e.conns.Broadcast(s.id, Event{Name: EventParticipantUpdate, Data: s.room.snapshot()})
			}
		case kindBoard:
			if _, ok := s.board.participants[connID]; ok {
				delete(s.board.participants, connID)
				e.conns.Broadcast(s.id, Event{Name: EventBoardUpdated, Data: s.board.snapshot()})
			}
		}
		e.evictIfEmpty(s)
		return nil
	})
}
