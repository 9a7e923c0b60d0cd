package session

import (
	"context"
	"strings"
)

// ChangeName renames the acting participant. On boards every card the
// participant authored under the old name is rewritten to the new one,
// in memory and in storage, so attribution survives without a stable
// author id. A storage failure rolls the whole rename back.
func (e *Engine) ChangeName(ctx context.Context, connID, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return errInvalidPayload("name is required")
	}

	sid, ok := e.conns.SessionOf(connID)
	if !ok {
		return errIdentityRequired("not identified")
	}
	e.mu.Lock()
	s := e.live[sid]
	e.mu.Unlock()
	if s == nil {
		return errNotFound("session is no longer active")
	}

	return s.exec(func() error {
		switch s.kind {
		case kindRoom:
			p, ok := s.room.participants[connID]
			if !ok {
				return errIdentityRequired("not identified")
			}
			p.Name = newName
			e.conns.Rename(connID, newName)
			e.conns.Broadcast(s.id, Event{Name: EventParticipantUpdate, Data: s.room.snapshot()})
			return nil

		case kindBoard:
			p, ok := s.board.participants[connID]
			if !ok {
				return errIdentityRequired("not identified")
			}
			oldName := p.Name
			if oldName == newName {
				return nil
			}

			var touched []*card
			for _, c := range s.board.cards {
				if c.author == oldName {
					c.author = newName
					touched = append(touched, c)
				}
			}
			if len(touched) > 0 {
				if err := e.store.UpdateCardAuthor(ctx, s.id, oldName, newName); err != nil {
					for _, c := range touched {
						c.author = oldName
					}
					return errPersistence("could not rename card author")
				}
			}

			p.Name = newName
			e.conns.Rename(connID, newName)
			e.conns.Broadcast(s.id, Event{Name: EventBoardUpdated, Data: s.board.snapshot()})
			return nil
		}
		return nil
	})
}
