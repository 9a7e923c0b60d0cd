package repository

import "scrumkit/internal/storage"

type Repositories struct {
	User      UserRepository
	Room      RoomRepository
	Board     BoardRepository
	Workspace WorkspaceRepository
	Velocity  VelocityRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		User:      NewUserRepository(db),
		Room:      NewRoomRepository(db),
		Board:     NewBoardRepository(db),
		Workspace: NewWorkspaceRepository(db),
		Velocity:  NewVelocityRepository(db),
	}
}
