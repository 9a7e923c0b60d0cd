package session

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"scrumkit/internal/models"
)

// AuthContext carries the authenticated user behind a join request,
// when there is one. Anonymous joins have none.
type AuthContext struct {
	UserID uint
}

// JoinRequest is a connection's attempt to enter a session.
type JoinRequest struct {
	SessionID       string
	ParticipantName string
	Password        string
	Auth            *AuthContext
}

// Gate decides whether a join request may enter a session. It is a
// read-only check: workspace sessions require membership (password
// ignored), passworded sessions require the matching password, open
// sessions admit anyone. It never touches registry state.
type Gate struct {
	store Store
}

func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// AuthorizeRoom checks a join against the room's durable record and
// returns the record for the caller to load from.
func (g *Gate) AuthorizeRoom(ctx context.Context, req JoinRequest) (*models.Room, error) {
	rec, err := g.store.GetRoom(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil, errNotFound("room not found")
		}
		return nil, errPersistence("could not load room")
	}
	if err := g.authorize(ctx, rec.WorkspaceID, rec.PasswordHash, req); err != nil {
		return nil, err
	}
	return rec, nil
}

// AuthorizeBoard is AuthorizeRoom for retro boards.
func (g *Gate) AuthorizeBoard(ctx context.Context, req JoinRequest) (*models.Board, error) {
	rec, err := g.store.GetBoard(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil, errNotFound("board not found")
		}
		return nil, errPersistence("could not load board")
	}
	if err := g.authorize(ctx, rec.WorkspaceID, rec.PasswordHash, req); err != nil {
		return nil, err
	}
	return rec, nil
}

func (g *Gate) authorize(ctx context.Context, workspaceID *uint, passwordHash string, req JoinRequest) error {
	// Workspace sessions: membership is the gate, passwords are ignored.
	if workspaceID != nil {
		if req.Auth == nil {
			return errUnauthorized("authentication required")
		}
		member, err := g.store.IsWorkspaceMember(ctx, *workspaceID, req.Auth.UserID)
		if err != nil {
			return errPersistence("could not check workspace membership")
		}
		if !member {
			return errForbidden("not a member of this workspace")
		}
		return nil
	}

	if passwordHash != "" {
		if req.Password == "" {
			return errUnauthorized("password required")
		}
		if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
			return errUnauthorized("incorrect password")
		}
		return nil
	}

	// A password offered to an unprotected session is an explicit
	// mismatch, not something to silently ignore.
	if req.Password != "" {
		return errUnauthorized("session is not password protected")
	}
	return nil
}

// HashPassword hashes a session password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
