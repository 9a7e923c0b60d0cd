package service

import (
	"scrumkit/internal/repository"
)

type Services struct {
	User      *UserService
	Workspace *WorkspaceService
	Velocity  *VelocityService
	Catalog   *CatalogService
}

func NewServices(repos *repository.Repositories) *Services {
	workspaceService := NewWorkspaceService(repos.Workspace)
	return &Services{
		User:      NewUserService(repos.User),
		Workspace: workspaceService,
		Velocity:  NewVelocityService(repos.Velocity, workspaceService),
		Catalog:   NewCatalogService(repos.Room, repos.Board, workspaceService),
	}
}
