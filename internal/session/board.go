package session

import (
	"context"
	"strings"

	"scrumkit/internal/models"
)

// JoinBoard admits a connection into a retrospective board.
func (e *Engine) JoinBoard(ctx context.Context, conn *Conn, req JoinRequest) error {
	name := strings.TrimSpace(req.ParticipantName)
	if name == "" {
		return errInvalidPayload("participant name is required")
	}

	rec, err := e.gate.AuthorizeBoard(ctx, req)
	if err != nil {
		return err
	}
	// Same one-session-per-connection rule as JoinRoom: release the
	// previous seat before binding the new one.
	e.Disconnect(conn.ID())
	s, err := e.getOrLoadBoard(ctx, rec)
	if err != nil {
		return err
	}

	return s.exec(func() error {
		s.board.participants[conn.ID()] = &Participant{
			ConnID:   conn.ID(),
			Name:     name,
			joinedAt: e.clock.Now(),
		}
		e.conns.Register(conn, s.id, name)
		conn.Send(Event{Name: EventBoardJoined, Data: s.board.snapshot()})
		e.conns.Broadcast(s.id, Event{Name: EventBoardUpdated, Data: s.board.snapshot()})
		return nil
	})
}

// CardInput is the validated payload of an addRetroCard command.
type CardInput struct {
	CardID     string `json:"cardId"`
	ColumnID   string `json:"columnId"`
	Text       string `json:"text"`
	AuthorName string `json:"authorName"`
}

// AddCard creates a card under the caller-supplied id. Resubmitting an
// id is last-write-wins: concurrent duplicates settle on whichever
// write the worker applied last. The card is persisted before the
// broadcast; on a storage failure the in-memory change is rolled back.
func (e *Engine) AddCard(ctx context.Context, connID string, input CardInput) error {
	s, err := e.sessionFor(connID, kindBoard)
	if err != nil {
		return err
	}
	if strings.TrimSpace(input.CardID) == "" {
		return errInvalidPayload("card id is required")
	}
	if !validColumn(input.ColumnID) {
		return errInvalidPayload("unknown column")
	}
	if strings.TrimSpace(input.Text) == "" {
		return errInvalidPayload("card text is required")
	}

	return s.exec(func() error {
		p, ok := s.board.participants[connID]
		if !ok {
			return errIdentityRequired("not identified")
		}
		author := input.AuthorName
		if author == "" {
			author = p.Name
		}

		prev, existed := s.board.cards[input.CardID]
		next := &card{
			id:       input.CardID,
			columnID: input.ColumnID,
			text:     input.Text,
			author:   author,
			votes:    []string{},
			position: s.board.nextPosition,
		}
		if existed {
			next.votes = append([]string{}, prev.votes...)
			next.position = prev.position
		}
		s.board.cards[input.CardID] = next
		if !existed {
			s.board.nextPosition++
		}

		if err := e.store.SaveCard(ctx, cardRecord(s.id, next)); err != nil {
			if existed {
				s.board.cards[input.CardID] = prev
			} else {
				delete(s.board.cards, input.CardID)
				s.board.nextPosition--
			}
			return errPersistence("could not save card")
		}
		e.conns.Broadcast(s.id, Event{Name: EventBoardUpdated, Data: s.board.snapshot()})
		return nil
	})
}

// EditCard replaces a card's text. Editing a card another client just
// deleted is a no-op success, not an error.
func (e *Engine) EditCard(ctx context.Context, connID, cardID, text string) error {
	s, err := e.sessionFor(connID, kindBoard)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return errInvalidPayload("card text is required")
	}

	return s.exec(func() error {
		if _, ok := s.board.participants[connID]; !ok {
			return errIdentityRequired("not identified")
		}
		c, ok := s.board.cards[cardID]
		if !ok {
			return nil
		}
		previous := c.text
		c.text = text
		if err := e.store.SaveCard(ctx, cardRecord(s.id, c)); err != nil {
			c.text = previous
			return errPersistence("could not save card")
		}
		e.conns.Broadcast(s.id, Event{Name: EventBoardUpdated, Data: s.board.snapshot()})
		return nil
	})
}

// DeleteCard removes a card. A missing id is a no-op success so
// concurrent deletes from two clients both succeed.
func (e *Engine) DeleteCard(ctx context.Context, connID, cardID string) error {
	s, err := e.sessionFor(connID, kindBoard)
	if err != nil {
		return err
	}
	return s.exec(func() error {
		if _, ok := s.board.participants[connID]; !ok {
			return errIdentityRequired("not identified")
		}
		c, ok := s.board.cards[cardID]
		if !ok {
			return nil
		}
		delete(s.board.cards, cardID)
		if err := e.store.DeleteCard(ctx, s.id, cardID); err != nil {
			s.board.cards[cardID] = c
			return errPersistence("could not delete card")
		}
		e.conns.Broadcast(s.id, Event{Name: EventBoardUpdated, Data: s.board.snapshot()})
		return nil
	})
}

// ToggleCardVote adds the participant's name to the card's voter set
// if absent and removes it if present.
func (e *Engine) ToggleCardVote(ctx context.Context, connID, cardID string) error {
	s, err := e.sessionFor(connID, kindBoard)
	if err != nil {
		return err
	}
	return s.exec(func() error {
		p, ok := s.board.participants[connID]
		if !ok {
			return errIdentityRequired("not identified")
		}
		c, ok := s.board.cards[cardID]
		if !ok {
			return errNotFound("card not found")
		}

		previous := c.votes
		toggled := make([]string, 0, len(previous)+1)
		found := false
		for _, v := range previous {
			if v == p.Name {
				found = true
				continue
			}
			toggled = append(toggled, v)
		}
		if !found {
			toggled = append(toggled, p.Name)
		}
		c.votes = toggled

		if err := e.store.SaveCard(ctx, cardRecord(s.id, c)); err != nil {
			c.votes = previous
			return errPersistence("could not save card vote")
		}
		e.conns.Broadcast(s.id, Event{Name: EventBoardUpdated, Data: s.board.snapshot()})
		return nil
	})
}

// BoardSettingsUpdate is the validated shape of a board's
// updateSettings command; absent fields stay as they are.
type BoardSettingsUpdate struct {
	DefaultTimerSeconds *int  `json:"defaultTimerSeconds"`
	CardsVisible        *bool `json:"cardsVisible"`
	ShowAuthors         *bool `json:"showAuthors"`
}

// UpdateBoardSettings validates and applies board settings, persisting
// them before the broadcast. A visibility flip additionally emits
// cardsVisibilityChanged.
func (e *Engine) UpdateBoardSettings(ctx context.Context, connID string, update BoardSettingsUpdate) error {
	s, err := e.sessionFor(connID, kindBoard)
	if err != nil {
		return err
	}
	if update.DefaultTimerSeconds != nil && *update.DefaultTimerSeconds <= 0 {
		return errInvalidPayload("timer duration must be a positive integer")
	}

	return s.exec(func() error {
		if _, ok := s.board.participants[connID]; !ok {
			return errIdentityRequired("not identified")
		}
		previous := s.board.settings
		next := previous
		if update.DefaultTimerSeconds != nil {
			next.DefaultTimerSeconds = *update.DefaultTimerSeconds
		}
		if update.CardsVisible != nil {
			next.CardsVisible = *update.CardsVisible
		}
		if update.ShowAuthors != nil {
			next.ShowAuthors = *update.ShowAuthors
		}
		s.board.settings = next

		if err := e.store.SaveBoardSettings(ctx, &models.Board{
			ID:                  s.id,
			Name:                s.board.name,
			DefaultTimerSeconds: next.DefaultTimerSeconds,
			CardsVisible:        next.CardsVisible,
			ShowAuthors:         next.ShowAuthors,
		}); err != nil {
			s.board.settings = previous
			return errPersistence("could not save board settings")
		}

		e.conns.Broadcast(s.id, Event{Name: EventSettingsUpdated, Data: s.board.snapshot()})
		if previous.CardsVisible != next.CardsVisible {
			e.conns.Broadcast(s.id, Event{Name: EventCardsVisibilityChanged, Data: s.board.snapshot()})
		}
		return nil
	})
}

func validColumn(columnID string) bool {
	for _, c := range models.BoardColumns {
		if c == columnID {
			return true
		}
	}
	return false
}

func cardRecord(boardID string, c *card) *models.Card {
	return &models.Card{
		ID:         c.id,
		BoardID:    boardID,
		ColumnID:   c.columnID,
		Text:       c.text,
		AuthorName: c.author,
		Votes:      append([]string{}, c.votes...),
		Position:   c.position,
	}
}
