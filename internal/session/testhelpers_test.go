package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"scrumkit/internal/models"
	"scrumkit/internal/session"
)

// fakeStore is an in-memory Store for engine tests.
type fakeStore struct {
	mu      sync.Mutex
	rooms   map[string]*models.Room
	boards  map[string]*models.Board
	cards   map[string]map[string]models.Card // boardID -> cardID -> card
	members map[uint]map[uint]bool            // workspaceID -> userID

	failCardWrites bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:   make(map[string]*models.Room),
		boards:  make(map[string]*models.Board),
		cards:   make(map[string]map[string]models.Card),
		members: make(map[uint]map[uint]bool),
	}
}

func (f *fakeStore) addRoom(room *models.Room) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.ID] = room
}

func (f *fakeStore) addBoard(board *models.Board) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boards[board.ID] = board
	if f.cards[board.ID] == nil {
		f.cards[board.ID] = make(map[string]models.Card)
	}
}

func (f *fakeStore) addMember(workspaceID, userID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[workspaceID] == nil {
		f.members[workspaceID] = make(map[uint]bool)
	}
	f.members[workspaceID][userID] = true
}

func (f *fakeStore) setFailCardWrites(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCardWrites = fail
}

func (f *fakeStore) cardCount(boardID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cards[boardID])
}

func (f *fakeStore) card(boardID, cardID string) (models.Card, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[boardID][cardID]
	return c, ok
}

func (f *fakeStore) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return nil, session.ErrNotExist
	}
	copied := *room
	return &copied, nil
}

func (f *fakeStore) GetBoard(ctx context.Context, id string) (*models.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	board, ok := f.boards[id]
	if !ok {
		return nil, session.ErrNotExist
	}
	copied := *board
	return &copied, nil
}

func (f *fakeStore) ListCards(ctx context.Context, boardID string) ([]models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cards := make([]models.Card, 0, len(f.cards[boardID]))
	for _, c := range f.cards[boardID] {
		cards = append(cards, c)
	}
	return cards, nil
}

func (f *fakeStore) SaveCard(ctx context.Context, card *models.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCardWrites {
		return errors.New("write refused")
	}
	if f.cards[card.BoardID] == nil {
		f.cards[card.BoardID] = make(map[string]models.Card)
	}
	f.cards[card.BoardID][card.ID] = *card
	return nil
}

func (f *fakeStore) DeleteCard(ctx context.Context, boardID, cardID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCardWrites {
		return errors.New("write refused")
	}
	delete(f.cards[boardID], cardID)
	return nil
}

func (f *fakeStore) UpdateCardAuthor(ctx context.Context, boardID, oldName, newName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.cards[boardID] {
		if c.AuthorName == oldName {
			c.AuthorName = newName
			f.cards[boardID][id] = c
		}
	}
	return nil
}

func (f *fakeStore) SaveRoomSettings(ctx context.Context, roomID string, sequence []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return session.ErrNotExist
	}
	room.Sequence = append([]string(nil), sequence...)
	return nil
}

func (f *fakeStore) SaveBoardSettings(ctx context.Context, board *models.Board) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.boards[board.ID]
	if !ok {
		return session.ErrNotExist
	}
	existing.DefaultTimerSeconds = board.DefaultTimerSeconds
	existing.CardsVisible = board.CardsVisible
	existing.ShowAuthors = board.ShowAuthors
	return nil
}

func (f *fakeStore) IsWorkspaceMember(ctx context.Context, workspaceID, userID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[workspaceID][userID], nil
}

// nextEvent pops the next outbound event for a connection, failing the
// test if none arrives in time.
func nextEvent(t *testing.T, conn *session.Conn) session.Event {
	t.Helper()
	select {
	case ev := <-conn.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return session.Event{}
	}
}

// waitFor reads events until one with the given name arrives.
func waitFor(t *testing.T, conn *session.Conn, name string) session.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-conn.Events():
			if ev.Name == name {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", name)
		}
	}
}

// lastEvent drains everything queued on the connection and returns the
// most recent event with the given name. Commands broadcast before
// returning, so the queue is already complete when a test calls this.
func lastEvent(t *testing.T, conn *session.Conn, name string) session.Event {
	t.Helper()
	var found session.Event
	var ok bool
	for {
		select {
		case ev := <-conn.Events():
			if ev.Name == name {
				found, ok = ev, true
			}
		default:
			if !ok {
				t.Fatalf("no %q event queued", name)
			}
			return found
		}
	}
}

// noEvent asserts the connection stays quiet for a short window.
func noEvent(t *testing.T, conn *session.Conn) {
	t.Helper()
	select {
	case ev := <-conn.Events():
		t.Fatalf("unexpected %q event", ev.Name)
	case <-time.After(50 * time.Millisecond):
	}
}

func errCode(t *testing.T, err error) session.Code {
	t.Helper()
	var serr *session.Error
	if !errors.As(err, &serr) {
		t.Fatalf("expected a session error, got %v", err)
	}
	return serr.Code
}
