package session

import (
	"sort"
	"time"

	"scrumkit/internal/models"
)

// Participant is an ephemeral identity scoped to one live connection
// within one session. It is never persisted.
type Participant struct {
	ConnID   string
	Name     string
	Vote     *string // rooms only
	joinedAt time.Time
}

// BoardSettings is the mutable per-board configuration.
type BoardSettings struct {
	DefaultTimerSeconds int  `json:"defaultTimerSeconds"`
	CardsVisible        bool `json:"cardsVisible"`
	ShowAuthors         bool `json:"showAuthors"`
}

// TimerState tracks the single countdown a board may be running.
type TimerState struct {
	Running   bool
	Remaining int
}

type roomState struct {
	id           string
	name         string
	sequence     []string
	revealed     bool
	participants map[string]*Participant // keyed by connection id
}

type card struct {
	id       string
	columnID string
	text     string
	author   string
	votes    []string
	position int
}

type boardState struct {
	id           string
	name         string
	settings     BoardSettings
	cards        map[string]*card
	nextPosition int
	participants map[string]*Participant
	timer        *TimerState
}

func newRoomState(rec *models.Room) *roomState {
	seq := rec.Sequence
	if len(seq) == 0 {
		seq = models.DefaultSequence
	}
	return &roomState{
		id:           rec.ID,
		name:         rec.Name,
		sequence:     append([]string(nil), seq...),
		participants: make(map[string]*Participant),
	}
}

// newBoardState loads the board plus its persisted cards. Defaults are
// applied exactly once here, when a board written before it had
// settings comes in with zero values.
func newBoardState(rec *models.Board, cards []models.Card) *boardState {
	settings := BoardSettings{
		DefaultTimerSeconds: rec.DefaultTimerSeconds,
		CardsVisible:        rec.CardsVisible,
		ShowAuthors:         rec.ShowAuthors,
	}
	if settings.DefaultTimerSeconds <= 0 {
		settings.DefaultTimerSeconds = models.DefaultTimerSeconds
	}

	b := &boardState{
		id:           rec.ID,
		name:         rec.Name,
		settings:     settings,
		cards:        make(map[string]*card, len(cards)),
		participants: make(map[string]*Participant),
	}
	for i := range cards {
		c := &cards[i]
		b.cards[c.ID] = &card{
			id:       c.ID,
			columnID: c.ColumnID,
			text:     c.Text,
			author:   c.AuthorName,
			votes:    append([]string(nil), c.Votes...),
			position: c.Position,
		}
		if c.Position >= b.nextPosition {
			b.nextPosition = c.Position + 1
		}
	}
	return b
}

func (r *roomState) inSequence(value string) bool {
	for _, v := range r.sequence {
		if v == value {
			return true
		}
	}
	return false
}

// RoomParticipant is one participant in a room snapshot. Vote values
// are masked until the room is revealed; Voted always tells whether a
// value is in.
type RoomParticipant struct {
	Name  string  `json:"name"`
	Voted bool    `json:"voted"`
	Vote  *string `json:"vote"`
}

// RoomSnapshot is the full state of a room after a mutation.
type RoomSnapshot struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Sequence     []string          `json:"sequence"`
	Revealed     bool              `json:"revealed"`
	Participants []RoomParticipant `json:"participants"`
}

// snapshot deep-copies the room state so broadcast consumers never
// touch the worker-owned maps.
func (r *roomState) snapshot() RoomSnapshot {
	ordered := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		ordered = append(ordered, p)
	}
	sortParticipants(ordered)

	parts := make([]RoomParticipant, 0, len(ordered))
	for _, p := range ordered {
		rp := RoomParticipant{Name: p.Name, Voted: p.Vote != nil}
		if r.revealed && p.Vote != nil {
			v := *p.Vote
			rp.Vote = &v
		}
		parts = append(parts, rp)
	}

	return RoomSnapshot{
		ID:           r.id,
		Name:         r.name,
		Sequence:     append([]string(nil), r.sequence...),
		Revealed:     r.revealed,
		Participants: parts,
	}
}

// CardSnapshot is one card in a board snapshot.
type CardSnapshot struct {
	ID         string   `json:"id"`
	ColumnID   string   `json:"columnId"`
	Text       string   `json:"text"`
	AuthorName string   `json:"authorName,omitempty"`
	Votes      []string `json:"votes"`
}

// BoardSnapshot is the full state of a board after a mutation.
type BoardSnapshot struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Columns      []string       `json:"columns"`
	Settings     BoardSettings  `json:"settings"`
	Cards        []CardSnapshot `json:"cards"`
	Participants []string       `json:"participants"`
	Timer        *TimerPayload  `json:"timer,omitempty"`
}

func (b *boardState) snapshot() BoardSnapshot {
	cards := make([]CardSnapshot, 0, len(b.cards))
	for _, c := range b.cards {
		cs := CardSnapshot{
			ID:       c.id,
			ColumnID: c.columnID,
			Text:     c.text,
			Votes:    append([]string{}, c.votes...),
		}
		if b.settings.ShowAuthors {
			cs.AuthorName = c.author
		}
		cards = append(cards, cs)
	}
	sort.Slice(cards, func(i, j int) bool {
		return b.cards[cards[i].ID].position < b.cards[cards[j].ID].position
	})

	names := make([]string, 0, len(b.participants))
	for _, p := range b.participants {
		names = append(names, p.Name)
	}
	sort.Strings(names)

	snap := BoardSnapshot{
		ID:           b.id,
		Name:         b.name,
		Columns:      append([]string(nil), models.BoardColumns...),
		Settings:     b.settings,
		Cards:        cards,
		Participants: names,
	}
	if b.timer != nil {
		snap.Timer = &TimerPayload{TimeLeft: b.timer.Remaining}
	}
	return snap
}

// sortParticipants orders by join time so client lists are stable
// across broadcasts. Ties (and shared display names) break on the
// connection id, which is unique.
func sortParticipants(ordered []*Participant) {
	sort.Slice(ordered, func(i, j int) bool {
		ti, tj := ordered[i].joinedAt, ordered[j].joinedAt
		if ti.Equal(tj) {
			return ordered[i].ConnID < ordered[j].ConnID
		}
		return ti.Before(tj)
	})
}
