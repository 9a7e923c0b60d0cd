package session

import (
	"context"
	"errors"
	"time"
)

// errTimerDone tells a tick goroutine its countdown is over or stale.
var errTimerDone = errors.New("timer done")

// StartTimer starts the board's countdown from its configured default
// duration. Starting while one is running cancels the previous tick
// source first; at most one countdown exists per session.
func (e *Engine) StartTimer(ctx context.Context, connID string) error {
	s, err := e.sessionFor(connID, kindBoard)
	if err != nil {
		return err
	}
	return s.exec(func() error {
		if _, ok := s.board.participants[connID]; !ok {
			return errIdentityRequired("not identified")
		}

		s.cancelTimer()
		duration := s.board.settings.DefaultTimerSeconds
		s.board.timer = &TimerState{Running: true, Remaining: duration}

		stop := make(chan struct{})
		done := make(chan struct{})
		s.timerStop = stop
		s.timerDone = done
		s.timerGen++
		gen := s.timerGen

		e.conns.Broadcast(s.id, Event{Name: EventTimerStarted, Data: TimerPayload{TimeLeft: duration}})
		go s.runTimer(gen, stop, done)
		return nil
	})
}

// StopTimer cancels the countdown. Stopping an idle timer is a no-op
// success.
func (e *Engine) StopTimer(ctx context.Context, connID string) error {
	s, err := e.sessionFor(connID, kindBoard)
	if err != nil {
		return err
	}
	return s.exec(func() error {
		if _, ok := s.board.participants[connID]; !ok {
			return errIdentityRequired("not identified")
		}
		if s.board.timer == nil {
			return nil
		}
		s.cancelTimer()
		s.board.timer = nil
		e.conns.Broadcast(s.id, Event{Name: EventTimerStopped})
		return nil
	})
}

// cancelTimer releases the current tick source, if any, and waits for
// it to let go of its ticker, so a replacement armed right after never
// coexists with the old one. Only ever called from the session worker;
// the dying goroutine never blocks on the worker (see runTimer), so
// the join cannot deadlock.
func (s *liveSession) cancelTimer() {
	if s.timerStop != nil {
		close(s.timerStop)
		<-s.timerDone
		s.timerStop = nil
		s.timerDone = nil
	}
	s.timerGen++
}

// runTimer is the tick source: a 1-second ticker whose ticks are
// injected into the session's task channel, so a tick can never race
// a client command. The generation guard keeps a superseded countdown
// from touching a restarted timer's state.
func (s *liveSession) runTimer(gen uint64, stop, done chan struct{}) {
	defer close(done)
	ticker := s.engine.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if err := s.execTick(gen, stop); err != nil {
				return
			}
		case <-stop:
			return
		case <-s.quit:
			return
		}
	}
}

// execTick queues one tick on the session worker. Unlike exec it also
// bails on the stop channel; the worker may be mid-cancelTimer waiting
// for this goroutine, so blocking on it here would deadlock. An
// abandoned tick task is defused by the generation guard.
func (s *liveSession) execTick(gen uint64, stop chan struct{}) error {
	t := task{fn: func() error { return s.tick(gen) }, done: make(chan error, 1)}
	select {
	case s.tasks <- t:
	case <-stop:
		return errTimerDone
	case <-s.quit:
		return errTimerDone
	}
	select {
	case err := <-t.done:
		return err
	case <-stop:
		return errTimerDone
	case <-s.quit:
		return errTimerDone
	}
}

// tick runs inside the worker: decrement, broadcast, and on zero shut
// the countdown down and go idle.
func (s *liveSession) tick(gen uint64) error {
	if gen != s.timerGen || s.board.timer == nil {
		return errTimerDone
	}

	s.board.timer.Remaining--
	remaining := s.board.timer.Remaining
	if remaining <= 0 {
		// Leave timerStop/timerDone in place: the tick goroutine is
		// still unwinding, and the next cancelTimer joins it.
		s.board.timer = nil
		s.timerGen++
		s.engine.conns.Broadcast(s.id, Event{Name: EventTimerUpdate, Data: TimerPayload{TimeLeft: 0}})
		s.engine.conns.Broadcast(s.id, Event{Name: EventTimerStopped})
		return errTimerDone
	}

	s.engine.conns.Broadcast(s.id, Event{Name: EventTimerUpdate, Data: TimerPayload{TimeLeft: remaining}})
	return nil
}
