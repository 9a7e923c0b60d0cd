package session

import (
	"context"
	"strings"
)

// JoinRoom admits a connection into a planning poker room. The gate
// runs first; on success the room is loaded into the registry if it
// is not already live, the participant is registered, the joiner gets
// a roomJoined snapshot and everyone gets a participantUpdate.
func (e *Engine) JoinRoom(ctx context.Context, conn *Conn, req JoinRequest) error {
	name := strings.TrimSpace(req.ParticipantName)
	if name == "" {
		return errInvalidPayload("participant name is required")
	}

	rec, err := e.gate.AuthorizeRoom(ctx, req)
	if err != nil {
		return err
	}
	// A connection holds one session at a time. Joining again moves it:
	// the previous session's participant is removed, broadcast and the
	// session considered for eviction before the new binding exists.
	e.Disconnect(conn.ID())
	s, err := e.getOrLoadRoom(rec)
	if err != nil {
		return err
	}

	return s.exec(func() error {
		s.room.participants[conn.ID()] = &Participant{
			ConnID:   conn.ID(),
			Name:     name,
			joinedAt: e.clock.Now(),
		}
		e.conns.Register(conn, s.id, name)
		conn.Send(Event{Name: EventRoomJoined, Data: s.room.snapshot()})
		e.conns.Broadcast(s.id, Event{Name: EventParticipantUpdate, Data: s.room.snapshot()})
		return nil
	})
}

// Vote records the acting participant's vote. The value must be in
// the room's sequence; nil clears the vote.
func (e *Engine) Vote(ctx context.Context, connID string, vote *string) error {
	s, err := e.sessionFor(connID, kindRoom)
	if err != nil {
		return err
	}
	return s.exec(func() error {
		p, ok := s.room.participants[connID]
		if !ok {
			return errIdentityRequired("not identified")
		}
		if vote != nil && !s.room.inSequence(*vote) {
			return errInvalidPayload("vote is not in the room's sequence")
		}
		p.Vote = vote
		e.conns.Broadcast(s.id, Event{Name: EventParticipantUpdate, Data: s.room.snapshot()})
		return nil
	})
}

// RevealVotes flips the room to revealed; the broadcast snapshot
// carries the vote values from here on.
func (e *Engine) RevealVotes(ctx context.Context, connID string) error {
	s, err := e.sessionFor(connID, kindRoom)
	if err != nil {
		return err
	}
	return s.exec(func() error {
		if _, ok := s.room.participants[connID]; !ok {
			return errIdentityRequired("not identified")
		}
		s.room.revealed = true
		e.conns.Broadcast(s.id, Event{Name: EventVotesRevealed, Data: s.room.snapshot()})
		return nil
	})
}

// ResetVotes clears every vote and hides values again.
func (e *Engine) ResetVotes(ctx context.Context, connID string) error {
	s, err := e.sessionFor(connID, kindRoom)
	if err != nil {
		return err
	}
	return s.exec(func() error {
		if _, ok := s.room.participants[connID]; !ok {
			return errIdentityRequired("not identified")
		}
		s.room.revealed = false
		for _, p := range s.room.participants {
			p.Vote = nil
		}
		e.conns.Broadcast(s.id, Event{Name: EventVotesReset, Data: s.room.snapshot()})
		return nil
	})
}

// RoomSettings is the validated shape of a room's updateSettings
// command.
type RoomSettings struct {
	Sequence []string `json:"sequence"`
}

// UpdateRoomSettings replaces the voting sequence. The new sequence is
// persisted before the broadcast; a storage failure rolls the change
// back so memory never diverges from the durable record.
func (e *Engine) UpdateRoomSettings(ctx context.Context, connID string, settings RoomSettings) error {
	s, err := e.sessionFor(connID, kindRoom)
	if err != nil {
		return err
	}
	if len(settings.Sequence) == 0 {
		return errInvalidPayload("sequence must be a non-empty array of strings")
	}
	for _, v := range settings.Sequence {
		if strings.TrimSpace(v) == "" {
			return errInvalidPayload("sequence values must be non-empty strings")
		}
	}

	return s.exec(func() error {
		if _, ok := s.room.participants[connID]; !ok {
			return errIdentityRequired("not identified")
		}
		previous := s.room.sequence
		s.room.sequence = append([]string(nil), settings.Sequence...)
		if err := e.store.SaveRoomSettings(ctx, s.id, s.room.sequence); err != nil {
			s.room.sequence = previous
			return errPersistence("could not save room settings")
		}
		// Existing votes may no longer be in the sequence; clear them.
		for _, p := range s.room.participants {
			if p.Vote != nil && !s.room.inSequence(*p.Vote) {
				p.Vote = nil
			}
		}
		e.conns.Broadcast(s.id, Event{Name: EventSettingsUpdated, Data: s.room.snapshot()})
		return nil
	})
}
