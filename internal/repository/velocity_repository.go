package repository

import (
	"scrumkit/internal/models"
	"scrumkit/internal/storage"
)

type VelocityRepository interface {
	Create(entry *models.VelocityEntry) error
	FindByWorkspace(workspaceID uint) ([]models.VelocityEntry, error)
}

type velocityRepository struct {
	db *storage.PostgresDB
}

func NewVelocityRepository(db *storage.PostgresDB) VelocityRepository {
	return &velocityRepository{db: db}
}

func (r *velocityRepository) Create(entry *models.VelocityEntry) error {
	return r.db.Create(entry).Error
}

func (r *velocityRepository) FindByWorkspace(workspaceID uint) ([]models.VelocityEntry, error) {
	var entries []models.VelocityEntry
	err := r.db.Where("workspace_id = ?", workspaceID).
		Order("created_at asc").Find(&entries).Error
	return entries, err
}
