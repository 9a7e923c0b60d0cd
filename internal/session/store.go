package session

import (
	"context"
	"errors"

	"scrumkit/internal/models"
)

// ErrNotExist is returned by a Store when the requested record is
// absent. Implementations map their own not-found errors onto it.
var ErrNotExist = errors.New("record does not exist")

// Store is the narrow persistence interface the engine depends on.
// The gorm-backed implementation lives in internal/repository; tests
// substitute an in-memory fake.
type Store interface {
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	GetBoard(ctx context.Context, id string) (*models.Board, error)

	ListCards(ctx context.Context, boardID string) ([]models.Card, error)
	// SaveCard upserts by card id; a resubmitted id overwrites.
	SaveCard(ctx context.Context, card *models.Card) error
	DeleteCard(ctx context.Context, boardID, cardID string) error
	UpdateCardAuthor(ctx context.Context, boardID, oldName, newName string) error

	SaveRoomSettings(ctx context.Context, roomID string, sequence []string) error
	SaveBoardSettings(ctx context.Context, board *models.Board) error

	IsWorkspaceMember(ctx context.Context, workspaceID, userID uint) (bool, error)
}
