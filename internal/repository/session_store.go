package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"scrumkit/internal/models"
	"scrumkit/internal/session"
)

// sessionStore adapts the gorm repositories to the session engine's
// narrow Store interface. gorm's not-found error is mapped onto
// session.ErrNotExist so the engine never sees gorm.
type sessionStore struct {
	rooms      RoomRepository
	boards     BoardRepository
	workspaces WorkspaceRepository
}

// NewSessionStore builds the engine-facing persistence adapter.
func NewSessionStore(repos *Repositories) session.Store {
	return &sessionStore{
		rooms:      repos.Room,
		boards:     repos.Board,
		workspaces: repos.Workspace,
	}
}

func (s *sessionStore) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.rooms.FindByID(id)
	return room, mapNotFound(err)
}

func (s *sessionStore) GetBoard(ctx context.Context, id string) (*models.Board, error) {
	board, err := s.boards.FindByID(id)
	return board, mapNotFound(err)
}

func (s *sessionStore) ListCards(ctx context.Context, boardID string) ([]models.Card, error) {
	cards, err := s.boards.ListCards(boardID)
	return cards, mapNotFound(err)
}

func (s *sessionStore) SaveCard(ctx context.Context, card *models.Card) error {
	return s.boards.SaveCard(card)
}

func (s *sessionStore) DeleteCard(ctx context.Context, boardID, cardID string) error {
	return s.boards.DeleteCard(boardID, cardID)
}

func (s *sessionStore) UpdateCardAuthor(ctx context.Context, boardID, oldName, newName string) error {
	return s.boards.UpdateCardAuthor(boardID, oldName, newName)
}

func (s *sessionStore) SaveRoomSettings(ctx context.Context, roomID string, sequence []string) error {
	return s.rooms.UpdateSequence(roomID, sequence)
}

func (s *sessionStore) SaveBoardSettings(ctx context.Context, board *models.Board) error {
	return s.boards.UpdateSettings(board)
}

func (s *sessionStore) IsWorkspaceMember(ctx context.Context, workspaceID, userID uint) (bool, error) {
	return s.workspaces.IsMember(workspaceID, userID)
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return session.ErrNotExist
	}
	return err
}
