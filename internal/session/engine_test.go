package session_test

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrumkit/internal/models"
	"scrumkit/internal/session"
)

func strptr(s string) *string { return &s }

func newRoomEngine(t *testing.T, room *models.Room) (*session.Engine, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	store.addRoom(room)
	return session.NewEngine(store), store
}

func joinRoom(t *testing.T, e *session.Engine, roomID, name string) *session.Conn {
	t.Helper()
	conn := session.NewConn()
	err := e.JoinRoom(context.Background(), conn, session.JoinRequest{
		SessionID:       roomID,
		ParticipantName: name,
	})
	require.NoError(t, err)
	ev := nextEvent(t, conn)
	require.Equal(t, session.EventRoomJoined, ev.Name)
	return conn
}

func roomSnapshot(t *testing.T, ev session.Event) session.RoomSnapshot {
	t.Helper()
	snap, ok := ev.Data.(session.RoomSnapshot)
	require.True(t, ok, "event %q should carry a room snapshot", ev.Name)
	return snap
}

func voteOf(t *testing.T, snap session.RoomSnapshot, name string) session.RoomParticipant {
	t.Helper()
	for _, p := range snap.Participants {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("participant %q not in snapshot", name)
	return session.RoomParticipant{}
}

func TestRoomVotingScenario(t *testing.T) {
	e, _ := newRoomEngine(t, &models.Room{
		ID: "R1", Name: "Sprint 12", Sequence: []string{"1", "2", "3"},
	})
	ctx := context.Background()

	alice := joinRoom(t, e, "R1", "Alice")
	bob := joinRoom(t, e, "R1", "Bob")

	require.NoError(t, e.Vote(ctx, alice.ID(), strptr("2")))
	require.NoError(t, e.Vote(ctx, bob.ID(), strptr("3")))

	// Votes stay masked until the reveal.
	snap := roomSnapshot(t, lastEvent(t, alice, session.EventParticipantUpdate))
	masked := voteOf(t, snap, "Bob")
	assert.True(t, masked.Voted)
	assert.Nil(t, masked.Vote)

	require.NoError(t, e.RevealVotes(ctx, alice.ID()))
	snap = roomSnapshot(t, lastEvent(t, bob, session.EventVotesRevealed))
	assert.True(t, snap.Revealed)
	require.NotNil(t, voteOf(t, snap, "Alice").Vote)
	assert.Equal(t, "2", *voteOf(t, snap, "Alice").Vote)
	require.NotNil(t, voteOf(t, snap, "Bob").Vote)
	assert.Equal(t, "3", *voteOf(t, snap, "Bob").Vote)

	require.NoError(t, e.ResetVotes(ctx, bob.ID()))
	snap = roomSnapshot(t, waitFor(t, alice, session.EventVotesReset))
	assert.False(t, snap.Revealed)
	for _, p := range snap.Participants {
		assert.Nil(t, p.Vote)
		assert.False(t, p.Voted)
	}

	// Revealing right after a reset shows an empty round, not stale
	// values.
	require.NoError(t, e.RevealVotes(ctx, bob.ID()))
	snap = roomSnapshot(t, waitFor(t, alice, session.EventVotesRevealed))
	assert.True(t, snap.Revealed)
	for _, p := range snap.Participants {
		assert.Nil(t, p.Vote)
	}
}

func TestVoteOutsideSequenceRejected(t *testing.T) {
	e, _ := newRoomEngine(t, &models.Room{
		ID: "R1", Name: "Room", Sequence: []string{"1", "2", "3"},
	})
	alice := joinRoom(t, e, "R1", "Alice")
	waitFor(t, alice, session.EventParticipantUpdate)

	err := e.Vote(context.Background(), alice.ID(), strptr("9"))
	require.Error(t, err)
	assert.Equal(t, session.CodeInvalidPayload, errCode(t, err))
	noEvent(t, alice)

	// nil clears a vote.
	require.NoError(t, e.Vote(context.Background(), alice.ID(), strptr("1")))
	waitFor(t, alice, session.EventParticipantUpdate)
	require.NoError(t, e.Vote(context.Background(), alice.ID(), nil))
	snap := roomSnapshot(t, waitFor(t, alice, session.EventParticipantUpdate))
	assert.False(t, voteOf(t, snap, "Alice").Voted)
}

func TestCommandsBeforeJoinFail(t *testing.T) {
	e, _ := newRoomEngine(t, &models.Room{ID: "R1", Name: "Room"})
	conn := session.NewConn()

	err := e.Vote(context.Background(), conn.ID(), strptr("1"))
	require.Error(t, err)
	assert.Equal(t, session.CodeIdentityRequired, errCode(t, err))

	err = e.RevealVotes(context.Background(), conn.ID())
	require.Error(t, err)
	assert.Equal(t, session.CodeIdentityRequired, errCode(t, err))
}

func TestChangeNameInRoom(t *testing.T) {
	e, _ := newRoomEngine(t, &models.Room{ID: "R1", Name: "Room"})
	alice := joinRoom(t, e, "R1", "Alice")
	waitFor(t, alice, session.EventParticipantUpdate)

	require.NoError(t, e.ChangeName(context.Background(), alice.ID(), "Alicia"))
	snap := roomSnapshot(t, waitFor(t, alice, session.EventParticipantUpdate))
	require.Len(t, snap.Participants, 1)
	assert.Equal(t, "Alicia", snap.Participants[0].Name)

	names := e.Connections().ParticipantsOf("R1")
	assert.Equal(t, []string{"Alicia"}, names)
}

func TestUpdateRoomSettings(t *testing.T) {
	e, store := newRoomEngine(t, &models.Room{
		ID: "R1", Name: "Room", Sequence: []string{"1", "2", "3"},
	})
	ctx := context.Background()
	alice := joinRoom(t, e, "R1", "Alice")
	waitFor(t, alice, session.EventParticipantUpdate)

	err := e.UpdateRoomSettings(ctx, alice.ID(), session.RoomSettings{})
	require.Error(t, err)
	assert.Equal(t, session.CodeInvalidPayload, errCode(t, err))

	require.NoError(t, e.Vote(ctx, alice.ID(), strptr("3")))
	waitFor(t, alice, session.EventParticipantUpdate)

	require.NoError(t, e.UpdateRoomSettings(ctx, alice.ID(), session.RoomSettings{
		Sequence: []string{"XS", "S", "M", "L"},
	}))
	snap := roomSnapshot(t, waitFor(t, alice, session.EventSettingsUpdated))
	assert.Equal(t, []string{"XS", "S", "M", "L"}, snap.Sequence)
	// The old vote is no longer in the sequence and was cleared.
	assert.False(t, voteOf(t, snap, "Alice").Voted)

	stored, err := store.GetRoom(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, []string{"XS", "S", "M", "L"}, stored.Sequence)
}

func TestDisconnectRemovesParticipant(t *testing.T) {
	e, _ := newRoomEngine(t, &models.Room{ID: "R1", Name: "Room"})
	alice := joinRoom(t, e, "R1", "Alice")
	bob := joinRoom(t, e, "R1", "Bob")
	waitFor(t, alice, session.EventParticipantUpdate)
	waitFor(t, alice, session.EventParticipantUpdate)

	e.Disconnect(bob.ID())
	snap := roomSnapshot(t, waitFor(t, alice, session.EventParticipantUpdate))
	require.Len(t, snap.Participants, 1)
	assert.Equal(t, "Alice", snap.Participants[0].Name)
	assert.Equal(t, []string{"Alice"}, e.Connections().ParticipantsOf("R1"))

	// Duplicate disconnect notifications are safe no-ops.
	e.Disconnect(bob.ID())
	noEvent(t, alice)
}

func TestDisconnectBeforeJoinIsNoOp(t *testing.T) {
	e, _ := newRoomEngine(t, &models.Room{ID: "R1", Name: "Room"})
	never := session.NewConn()

	assert.NotPanics(t, func() { e.Disconnect(never.ID()) })
	noEvent(t, never)
}

func TestSessionEvictedWhenEmpty(t *testing.T) {
	e, _ := newRoomEngine(t, &models.Room{ID: "R1", Name: "Room"})
	ctx := context.Background()

	alice := joinRoom(t, e, "R1", "Alice")
	require.NoError(t, e.Vote(ctx, alice.ID(), strptr("5")))
	e.Disconnect(alice.ID())
	assert.Empty(t, e.Connections().ParticipantsOf("R1"))

	// A rejoin loads fresh state from storage: the old vote is gone.
	carol := joinRoom(t, e, "R1", "Carol")
	require.NoError(t, e.RevealVotes(ctx, carol.ID()))
	snap := roomSnapshot(t, waitFor(t, carol, session.EventVotesRevealed))
	require.Len(t, snap.Participants, 1)
	assert.Equal(t, "Carol", snap.Participants[0].Name)
	assert.Nil(t, snap.Participants[0].Vote)
}

func TestJoinReleasesPreviousSession(t *testing.T) {
	store := newFakeStore()
	store.addRoom(&models.Room{ID: "A", Name: "Room A"})
	store.addRoom(&models.Room{ID: "B", Name: "Room B"})
	e := session.NewEngine(store)
	ctx := context.Background()

	watcher := joinRoom(t, e, "A", "Watcher")
	hopper := joinRoom(t, e, "A", "Hopper")
	lastEvent(t, watcher, session.EventParticipantUpdate)

	// Hopper moves to room B on the same connection; the seat in A is
	// released and broadcast before the new binding exists.
	err := e.JoinRoom(ctx, hopper, session.JoinRequest{
		SessionID:       "B",
		ParticipantName: "Hopper",
	})
	require.NoError(t, err)

	snap := roomSnapshot(t, waitFor(t, watcher, session.EventParticipantUpdate))
	require.Len(t, snap.Participants, 1)
	assert.Equal(t, "Watcher", snap.Participants[0].Name)
	assert.Equal(t, []string{"Watcher"}, e.Connections().ParticipantsOf("A"))
	assert.Equal(t, []string{"Hopper"}, e.Connections().ParticipantsOf("B"))

	// Disconnect only has the B binding left to clean; A is untouched.
	e.Disconnect(hopper.ID())
	assert.Empty(t, e.Connections().ParticipantsOf("B"))
	assert.Equal(t, []string{"Watcher"}, e.Connections().ParticipantsOf("A"))
	noEvent(t, watcher)
}

func TestFailedJoinKeepsCurrentSession(t *testing.T) {
	hash, err := session.HashPassword("sesame")
	require.NoError(t, err)
	store := newFakeStore()
	store.addRoom(&models.Room{ID: "A", Name: "Room A"})
	store.addRoom(&models.Room{ID: "locked", Name: "Locked", PasswordHash: hash})
	e := session.NewEngine(store)

	hopper := joinRoom(t, e, "A", "Hopper")
	err = e.JoinRoom(context.Background(), hopper, session.JoinRequest{
		SessionID:       "locked",
		ParticipantName: "Hopper",
		Password:        "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, session.CodeUnauthorized, errCode(t, err))
	assert.Equal(t, []string{"Hopper"}, e.Connections().ParticipantsOf("A"))
}

func TestDuplicateNamesStayDistinct(t *testing.T) {
	store := newFakeStore()
	store.addRoom(&models.Room{ID: "R1", Name: "Room", Sequence: []string{"1", "2"}})
	// A fake clock gives both joins the same join time, forcing the
	// ordering tie-break.
	e := session.NewEngine(store, session.WithClock(clockwork.NewFakeClock()))
	ctx := context.Background()

	first := joinRoom(t, e, "R1", "Alex")
	second := joinRoom(t, e, "R1", "Alex")

	require.NoError(t, e.Vote(ctx, first.ID(), strptr("1")))
	require.NoError(t, e.Vote(ctx, second.ID(), strptr("2")))
	require.NoError(t, e.RevealVotes(ctx, first.ID()))

	snapA := roomSnapshot(t, lastEvent(t, first, session.EventVotesRevealed))
	require.Len(t, snapA.Participants, 2)
	require.NotNil(t, snapA.Participants[0].Vote)
	require.NotNil(t, snapA.Participants[1].Vote)
	assert.ElementsMatch(t, []string{"1", "2"},
		[]string{*snapA.Participants[0].Vote, *snapA.Participants[1].Vote})

	// The order is deterministic across broadcasts of the same state.
	require.NoError(t, e.RevealVotes(ctx, first.ID()))
	snapB := roomSnapshot(t, waitFor(t, first, session.EventVotesRevealed))
	assert.Equal(t, snapA.Participants, snapB.Participants)
}

func TestJoinUnknownRoom(t *testing.T) {
	e := session.NewEngine(newFakeStore())
	conn := session.NewConn()

	err := e.JoinRoom(context.Background(), conn, session.JoinRequest{
		SessionID:       "nowhere",
		ParticipantName: "Alice",
	})
	require.Error(t, err)
	assert.Equal(t, session.CodeNotFound, errCode(t, err))
	noEvent(t, conn)
}
