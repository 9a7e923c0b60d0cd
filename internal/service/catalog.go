package service

import (
	"errors"

	"github.com/google/uuid"

	"scrumkit/internal/models"
	"scrumkit/internal/repository"
	"scrumkit/internal/session"
)

var (
	ErrWorkspacePassword = errors.New("workspace sessions cannot have a password")
	ErrAuthRequired      = errors.New("authentication required")
)

// CatalogService creates and fetches the durable room/board records.
// Live session state is the engine's business; this is the
// persistence-facing creation endpoint sessions are loaded from.
type CatalogService struct {
	roomRepo   repository.RoomRepository
	boardRepo  repository.BoardRepository
	workspaces *WorkspaceService
}

func NewCatalogService(roomRepo repository.RoomRepository, boardRepo repository.BoardRepository, workspaces *WorkspaceService) *CatalogService {
	return &CatalogService{
		roomRepo:   roomRepo,
		boardRepo:  boardRepo,
		workspaces: workspaces,
	}
}

// RoomInput describes a room to create.
type RoomInput struct {
	Name        string
	Password    string
	WorkspaceID *uint
	Sequence    []string
}

// BoardInput describes a board to create.
type BoardInput struct {
	Name                string
	Password            string
	WorkspaceID         *uint
	DefaultTimerSeconds int
	CardsVisible        bool
	ShowAuthors         bool
}

// checkOwnership enforces the invariant that a workspace session has
// no password: membership is the access gate.
func (s *CatalogService) checkOwnership(workspaceID *uint, password string, actorID *uint) error {
	if workspaceID == nil {
		return nil
	}
	if password != "" {
		return ErrWorkspacePassword
	}
	if actorID == nil {
		return ErrAuthRequired
	}
	member, err := s.workspaces.IsMember(*workspaceID, *actorID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotMember
	}
	return nil
}

func (s *CatalogService) CreateRoom(input RoomInput, actorID *uint) (*models.Room, error) {
	if err := s.checkOwnership(input.WorkspaceID, input.Password, actorID); err != nil {
		return nil, err
	}

	hash := ""
	if input.Password != "" {
		var err error
		hash, err = session.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
	}
	sequence := input.Sequence
	if len(sequence) == 0 {
		sequence = models.DefaultSequence
	}

	room := &models.Room{
		ID:           uuid.NewString(),
		Name:         input.Name,
		PasswordHash: hash,
		WorkspaceID:  input.WorkspaceID,
		Sequence:     sequence,
	}
	if err := s.roomRepo.Create(room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *CatalogService) GetRoom(id string) (*models.Room, error) {
	return s.roomRepo.FindByID(id)
}

func (s *CatalogService) CreateBoard(input BoardInput, actorID *uint) (*models.Board, error) {
	if err := s.checkOwnership(input.WorkspaceID, input.Password, actorID); err != nil {
		return nil, err
	}

	hash := ""
	if input.Password != "" {
		var err error
		hash, err = session.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
	}
	timer := input.DefaultTimerSeconds
	if timer <= 0 {
		timer = models.DefaultTimerSeconds
	}

	board := &models.Board{
		ID:                  uuid.NewString(),
		Name:                input.Name,
		PasswordHash:        hash,
		WorkspaceID:         input.WorkspaceID,
		DefaultTimerSeconds: timer,
		CardsVisible:        input.CardsVisible,
		ShowAuthors:         input.ShowAuthors,
	}
	if err := s.boardRepo.Create(board); err != nil {
		return nil, err
	}
	return board, nil
}

func (s *CatalogService) GetBoard(id string) (*models.Board, error) {
	return s.boardRepo.FindByID(id)
}
