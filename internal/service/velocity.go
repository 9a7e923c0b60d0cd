package service

import (
	"errors"
	"math"

	"scrumkit/internal/models"
	"scrumkit/internal/repository"
)

var ErrInvalidEntry = errors.New("sprint name and non-negative points are required")

// forecastWindow is how many recent sprints feed the next-sprint
// forecast.
const forecastWindow = 3

type VelocityService struct {
	velocityRepo repository.VelocityRepository
	workspaces   *WorkspaceService
}

func NewVelocityService(velocityRepo repository.VelocityRepository, workspaces *WorkspaceService) *VelocityService {
	return &VelocityService{velocityRepo: velocityRepo, workspaces: workspaces}
}

// Record stores one sprint's numbers for a workspace. The actor must
// be a member.
func (s *VelocityService) Record(workspaceID, actorID uint, sprint string, committed, completed int) (*models.VelocityEntry, error) {
	member, err := s.workspaces.IsMember(workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}
	if sprint == "" || committed < 0 || completed < 0 {
		return nil, ErrInvalidEntry
	}

	entry := &models.VelocityEntry{
		WorkspaceID: workspaceID,
		Sprint:      sprint,
		Committed:   committed,
		Completed:   completed,
	}
	if err := s.velocityRepo.Create(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// VelocityReport summarises a workspace's sprint history.
type VelocityReport struct {
	Entries         []models.VelocityEntry `json:"entries"`
	AverageVelocity float64                `json:"average_velocity"`
	CompletionRatio float64                `json:"completion_ratio"`
	Forecast        int                    `json:"forecast"`
}

// Report computes average completed points across all sprints, the
// completed/committed ratio, and a forecast that is the rounded mean
// of the last few sprints.
func (s *VelocityService) Report(workspaceID, actorID uint) (*VelocityReport, error) {
	member, err := s.workspaces.IsMember(workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}

	entries, err := s.velocityRepo.FindByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}

	report := &VelocityReport{Entries: entries}
	if len(entries) == 0 {
		return report, nil
	}

	var totalCompleted, totalCommitted int
	for _, e := range entries {
		totalCompleted += e.Completed
		totalCommitted += e.Committed
	}
	report.AverageVelocity = float64(totalCompleted) / float64(len(entries))
	if totalCommitted > 0 {
		report.CompletionRatio = float64(totalCompleted) / float64(totalCommitted)
	}

	window := entries
	if len(window) > forecastWindow {
		window = window[len(window)-forecastWindow:]
	}
	var recent int
	for _, e := range window {
		recent += e.Completed
	}
	report.Forecast = int(math.Round(float64(recent) / float64(len(window))))

	return report, nil
}
