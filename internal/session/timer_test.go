package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrumkit/internal/models"
	"scrumkit/internal/session"
)

func newTimerEngine(t *testing.T, defaultSeconds int) (*session.Engine, *clockwork.FakeClock) {
	t.Helper()
	store := newFakeStore()
	store.addBoard(&models.Board{ID: "B1", Name: "Retro", DefaultTimerSeconds: defaultSeconds})
	clk := clockwork.NewFakeClock()
	return session.NewEngine(store, session.WithClock(clk)), clk
}

func timerPayload(t *testing.T, ev session.Event) session.TimerPayload {
	t.Helper()
	p, ok := ev.Data.(session.TimerPayload)
	require.True(t, ok, "event %q should carry a timer payload", ev.Name)
	return p
}

func TestTimerStartAndTick(t *testing.T) {
	e, clk := newTimerEngine(t, 600)
	ctx := context.Background()
	alice := joinBoard(t, e, "B1", "Alice")

	require.NoError(t, e.StartTimer(ctx, alice.ID()))
	started := waitFor(t, alice, session.EventTimerStarted)
	assert.Equal(t, 600, timerPayload(t, started).TimeLeft)

	// Wait for the tick goroutine to arm its ticker before advancing.
	clk.BlockUntil(1)
	clk.Advance(time.Second)
	update := waitFor(t, alice, session.EventTimerUpdate)
	assert.Equal(t, 599, timerPayload(t, update).TimeLeft)

	clk.Advance(time.Second)
	update = waitFor(t, alice, session.EventTimerUpdate)
	assert.Equal(t, 598, timerPayload(t, update).TimeLeft)
}

func TestTimerStop(t *testing.T) {
	e, clk := newTimerEngine(t, 600)
	ctx := context.Background()
	alice := joinBoard(t, e, "B1", "Alice")

	require.NoError(t, e.StartTimer(ctx, alice.ID()))
	waitFor(t, alice, session.EventTimerStarted)
	clk.BlockUntil(1)
	clk.Advance(time.Second)
	waitFor(t, alice, session.EventTimerUpdate)

	require.NoError(t, e.StopTimer(ctx, alice.ID()))
	waitFor(t, alice, session.EventTimerStopped)

	// The superseded tick source must not touch the stopped timer.
	clk.Advance(time.Second)
	noEvent(t, alice)
}

func TestStopIdleTimerIsNoOp(t *testing.T) {
	e, _ := newTimerEngine(t, 600)
	alice := joinBoard(t, e, "B1", "Alice")
	waitFor(t, alice, session.EventBoardUpdated)

	require.NoError(t, e.StopTimer(context.Background(), alice.ID()))
	noEvent(t, alice)
}

func TestTimerRestartWhileRunning(t *testing.T) {
	e, clk := newTimerEngine(t, 600)
	ctx := context.Background()
	alice := joinBoard(t, e, "B1", "Alice")

	require.NoError(t, e.StartTimer(ctx, alice.ID()))
	waitFor(t, alice, session.EventTimerStarted)
	clk.BlockUntil(1)
	clk.Advance(time.Second)
	update := waitFor(t, alice, session.EventTimerUpdate)
	assert.Equal(t, 599, timerPayload(t, update).TimeLeft)

	// A restart replaces the countdown and begins again from the
	// configured default.
	require.NoError(t, e.StartTimer(ctx, alice.ID()))
	started := waitFor(t, alice, session.EventTimerStarted)
	assert.Equal(t, 600, timerPayload(t, started).TimeLeft)

	clk.BlockUntil(1)
	clk.Advance(time.Second)
	update = waitFor(t, alice, session.EventTimerUpdate)
	assert.Equal(t, 599, timerPayload(t, update).TimeLeft)
}

func TestTimerExpiry(t *testing.T) {
	e, clk := newTimerEngine(t, 2)
	ctx := context.Background()
	alice := joinBoard(t, e, "B1", "Alice")

	require.NoError(t, e.StartTimer(ctx, alice.ID()))
	started := waitFor(t, alice, session.EventTimerStarted)
	assert.Equal(t, 2, timerPayload(t, started).TimeLeft)

	clk.BlockUntil(1)
	clk.Advance(time.Second)
	update := waitFor(t, alice, session.EventTimerUpdate)
	assert.Equal(t, 1, timerPayload(t, update).TimeLeft)

	clk.Advance(time.Second)
	update = waitFor(t, alice, session.EventTimerUpdate)
	assert.Equal(t, 0, timerPayload(t, update).TimeLeft)
	waitFor(t, alice, session.EventTimerStopped)

	// The countdown is gone; stopping again is a quiet success.
	require.NoError(t, e.StopTimer(ctx, alice.ID()))
	noEvent(t, alice)
}

func TestTimerCancelledOnEviction(t *testing.T) {
	e, clk := newTimerEngine(t, 600)
	ctx := context.Background()
	alice := joinBoard(t, e, "B1", "Alice")

	require.NoError(t, e.StartTimer(ctx, alice.ID()))
	waitFor(t, alice, session.EventTimerStarted)
	clk.BlockUntil(1)

	e.Disconnect(alice.ID())

	// A rejoin loads a fresh board with no running timer.
	bob := joinBoard(t, e, "B1", "Bob")
	snap := boardSnapshot(t, lastEvent(t, bob, session.EventBoardUpdated))
	assert.Nil(t, snap.Timer)
	clk.Advance(time.Second)
	noEvent(t, bob)
}
