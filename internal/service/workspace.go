package service

import (
	"errors"

	"scrumkit/internal/models"
	"scrumkit/internal/repository"
)

var (
	ErrNotMember     = errors.New("user is not a member of this workspace")
	ErrAlreadyMember = errors.New("user is already a member of this workspace")
)

type WorkspaceService struct {
	workspaceRepo repository.WorkspaceRepository
}

func NewWorkspaceService(workspaceRepo repository.WorkspaceRepository) *WorkspaceService {
	return &WorkspaceService{workspaceRepo: workspaceRepo}
}

// CreateWorkspace creates the workspace and enrols the creator as its
// first member.
func (s *WorkspaceService) CreateWorkspace(name string, ownerID uint) (*models.Workspace, error) {
	workspace := &models.Workspace{
		Name:    name,
		OwnerID: ownerID,
	}
	if err := s.workspaceRepo.Create(workspace); err != nil {
		return nil, err
	}
	if err := s.workspaceRepo.AddMember(workspace.ID, ownerID); err != nil {
		return nil, err
	}
	return workspace, nil
}

// AddMember lets an existing member bring another user in.
func (s *WorkspaceService) AddMember(workspaceID, actorID, userID uint) error {
	actorIsMember, err := s.workspaceRepo.IsMember(workspaceID, actorID)
	if err != nil {
		return err
	}
	if !actorIsMember {
		return ErrNotMember
	}

	alreadyMember, err := s.workspaceRepo.IsMember(workspaceID, userID)
	if err != nil {
		return err
	}
	if alreadyMember {
		return ErrAlreadyMember
	}
	return s.workspaceRepo.AddMember(workspaceID, userID)
}

func (s *WorkspaceService) ListForUser(userID uint) ([]models.Workspace, error) {
	return s.workspaceRepo.FindByUser(userID)
}

func (s *WorkspaceService) IsMember(workspaceID, userID uint) (bool, error) {
	return s.workspaceRepo.IsMember(workspaceID, userID)
}
