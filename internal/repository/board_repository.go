package repository

import (
	"gorm.io/gorm/clause"

	"scrumkit/internal/models"
	"scrumkit/internal/storage"
)

type BoardRepository interface {
	Create(board *models.Board) error
	FindByID(id string) (*models.Board, error)
	UpdateSettings(board *models.Board) error
	Delete(id string) error

	ListCards(boardID string) ([]models.Card, error)
	// SaveCard upserts by primary key: a resubmitted card id overwrites.
	SaveCard(card *models.Card) error
	DeleteCard(boardID, cardID string) error
	UpdateCardAuthor(boardID, oldName, newName string) error
}

type boardRepository struct {
	db *storage.PostgresDB
}

func NewBoardRepository(db *storage.PostgresDB) BoardRepository {
	return &boardRepository{db: db}
}

func (r *boardRepository) Create(board *models.Board) error {
	return r.db.Create(board).Error
}

func (r *boardRepository) FindByID(id string) (*models.Board, error) {
	var board models.Board
	err := r.db.Where("id = ?", id).First(&board).Error
	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *boardRepository) UpdateSettings(board *models.Board) error {
	return r.db.Model(&models.Board{}).Where("id = ?", board.ID).
		Updates(map[string]interface{}{
			"default_timer_seconds": board.DefaultTimerSeconds,
			"cards_visible":         board.CardsVisible,
			"show_authors":          board.ShowAuthors,
		}).Error
}

func (r *boardRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Board{}).Error
}

func (r *boardRepository) ListCards(boardID string) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.Where("board_id = ?", boardID).Order("position asc").Find(&cards).Error
	return cards, err
}

func (r *boardRepository) SaveCard(card *models.Card) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(card).Error
}

func (r *boardRepository) DeleteCard(boardID, cardID string) error {
	return r.db.Where("board_id = ? AND id = ?", boardID, cardID).
		Delete(&models.Card{}).Error
}

func (r *boardRepository) UpdateCardAuthor(boardID, oldName, newName string) error {
	return r.db.Model(&models.Card{}).
		Where("board_id = ? AND author_name = ?", boardID, oldName).
		Update("author_name", newName).Error
}
