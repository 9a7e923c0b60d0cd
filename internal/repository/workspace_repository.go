package repository

import (
	"scrumkit/internal/models"
	"scrumkit/internal/storage"
)

type WorkspaceRepository interface {
	Create(workspace *models.Workspace) error
	FindByID(id uint) (*models.Workspace, error)
	FindByUser(userID uint) ([]models.Workspace, error)
	AddMember(workspaceID, userID uint) error
	IsMember(workspaceID, userID uint) (bool, error)
}

type workspaceRepository struct {
	db *storage.PostgresDB
}

func NewWorkspaceRepository(db *storage.PostgresDB) WorkspaceRepository {
	return &workspaceRepository{db: db}
}

func (r *workspaceRepository) Create(workspace *models.Workspace) error {
	return r.db.Create(workspace).Error
}

func (r *workspaceRepository) FindByID(id uint) (*models.Workspace, error) {
	var workspace models.Workspace
	err := r.db.First(&workspace, id).Error
	if err != nil {
		return nil, err
	}
	return &workspace, nil
}

func (r *workspaceRepository) FindByUser(userID uint) ([]models.Workspace, error) {
	var workspaces []models.Workspace
	err := r.db.
		Joins("JOIN workspace_members ON workspace_members.workspace_id = workspaces.id").
		Where("workspace_members.user_id = ? AND workspace_members.deleted_at IS NULL", userID).
		Find(&workspaces).Error
	return workspaces, err
}

func (r *workspaceRepository) AddMember(workspaceID, userID uint) error {
	return r.db.Create(&models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
	}).Error
}

func (r *workspaceRepository) IsMember(workspaceID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Count(&count).Error
	return count > 0, err
}
