package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrumkit/internal/models"
	"scrumkit/internal/session"
)

type fakeRoomRepo struct {
	rooms map[string]*models.Room
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[string]*models.Room)}
}

func (f *fakeRoomRepo) Create(room *models.Room) error {
	f.rooms[room.ID] = room
	return nil
}

func (f *fakeRoomRepo) FindByID(id string) (*models.Room, error) {
	return f.rooms[id], nil
}

func (f *fakeRoomRepo) UpdateSequence(id string, sequence []string) error {
	f.rooms[id].Sequence = sequence
	return nil
}

func (f *fakeRoomRepo) Delete(id string) error {
	delete(f.rooms, id)
	return nil
}

type fakeBoardRepo struct {
	boards map[string]*models.Board
}

func newFakeBoardRepo() *fakeBoardRepo {
	return &fakeBoardRepo{boards: make(map[string]*models.Board)}
}

func (f *fakeBoardRepo) Create(board *models.Board) error {
	f.boards[board.ID] = board
	return nil
}

func (f *fakeBoardRepo) FindByID(id string) (*models.Board, error) {
	return f.boards[id], nil
}

func (f *fakeBoardRepo) UpdateSettings(board *models.Board) error {
	f.boards[board.ID] = board
	return nil
}

func (f *fakeBoardRepo) Delete(id string) error {
	delete(f.boards, id)
	return nil
}

func (f *fakeBoardRepo) ListCards(boardID string) ([]models.Card, error) { return nil, nil }
func (f *fakeBoardRepo) SaveCard(card *models.Card) error               { return nil }
func (f *fakeBoardRepo) DeleteCard(boardID, cardID string) error        { return nil }
func (f *fakeBoardRepo) UpdateCardAuthor(boardID, oldName, newName string) error {
	return nil
}

func newCatalogFixture(t *testing.T) (*CatalogService, uint) {
	t.Helper()
	workspaces := NewWorkspaceService(newFakeWorkspaceRepo())
	ws, err := workspaces.CreateWorkspace("team", 1)
	require.NoError(t, err)
	return NewCatalogService(newFakeRoomRepo(), newFakeBoardRepo(), workspaces), ws.ID
}

func uintPtr(v uint) *uint { return &v }

func TestCreateRoomDefaults(t *testing.T) {
	svc, _ := newCatalogFixture(t)

	room, err := svc.CreateRoom(RoomInput{Name: "Sprint 12"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, models.DefaultSequence, room.Sequence)
	assert.Empty(t, room.PasswordHash)
}

func TestCreateRoomWithPassword(t *testing.T) {
	svc, _ := newCatalogFixture(t)

	room, err := svc.CreateRoom(RoomInput{Name: "Private", Password: "hunter2"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, room.PasswordHash)
	assert.NotEqual(t, "hunter2", room.PasswordHash)
}

func TestWorkspaceSessionRejectsPassword(t *testing.T) {
	svc, wsID := newCatalogFixture(t)

	_, err := svc.CreateRoom(RoomInput{
		Name: "Team room", Password: "nope", WorkspaceID: uintPtr(wsID),
	}, uintPtr(1))
	assert.ErrorIs(t, err, ErrWorkspacePassword)

	_, err = svc.CreateBoard(BoardInput{
		Name: "Team retro", Password: "nope", WorkspaceID: uintPtr(wsID),
	}, uintPtr(1))
	assert.ErrorIs(t, err, ErrWorkspacePassword)
}

func TestWorkspaceSessionRequiresMember(t *testing.T) {
	svc, wsID := newCatalogFixture(t)

	_, err := svc.CreateRoom(RoomInput{Name: "Team room", WorkspaceID: uintPtr(wsID)}, nil)
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = svc.CreateRoom(RoomInput{Name: "Team room", WorkspaceID: uintPtr(wsID)}, uintPtr(99))
	assert.ErrorIs(t, err, ErrNotMember)

	room, err := svc.CreateRoom(RoomInput{Name: "Team room", WorkspaceID: uintPtr(wsID)}, uintPtr(1))
	require.NoError(t, err)
	require.NotNil(t, room.WorkspaceID)
	assert.Equal(t, wsID, *room.WorkspaceID)
}

func TestCreateBoardDefaults(t *testing.T) {
	svc, _ := newCatalogFixture(t)

	board, err := svc.CreateBoard(BoardInput{Name: "Retro"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTimerSeconds, board.DefaultTimerSeconds)

	board, err = svc.CreateBoard(BoardInput{Name: "Short retro", DefaultTimerSeconds: 300}, nil)
	require.NoError(t, err)
	assert.Equal(t, 300, board.DefaultTimerSeconds)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := session.HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)
}
