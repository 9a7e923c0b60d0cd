package repository

import (
	"scrumkit/internal/models"
	"scrumkit/internal/storage"
)

type RoomRepository interface {
	Create(room *models.Room) error
	FindByID(id string) (*models.Room, error)
	UpdateSequence(id string, sequence []string) error
	Delete(id string) error
}

type roomRepository struct {
	db *storage.PostgresDB
}

func NewRoomRepository(db *storage.PostgresDB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(room *models.Room) error {
	return r.db.Create(room).Error
}

func (r *roomRepository) FindByID(id string) (*models.Room, error) {
	var room models.Room
	err := r.db.Where("id = ?", id).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) UpdateSequence(id string, sequence []string) error {
	return r.db.Model(&models.Room{}).Where("id = ?", id).
		Update("sequence", sequence).Error
}

func (r *roomRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Room{}).Error
}
