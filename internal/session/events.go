package session

// Event is one outbound message to a connection.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data,omitempty"`
}

// Outbound event names, split by namespace where the payloads differ.
const (
	EventRoomJoined        = "roomJoined"
	EventParticipantUpdate = "participantUpdate"
	EventVotesRevealed     = "votesRevealed"
	EventVotesReset        = "votesReset"

	EventBoardJoined  = "retroBoardJoined"
	EventBoardUpdated = "retroBoardUpdated"

	EventSettingsUpdated        = "settingsUpdated"
	EventCardsVisibilityChanged = "cardsVisibilityChanged"

	EventTimerStarted = "timerStarted"
	EventTimerUpdate  = "timerUpdate"
	EventTimerStopped = "timerStopped"

	EventError = "error"
)

// ErrorPayload is the body of a scoped error event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// TimerPayload is the body of timerStarted and timerUpdate events.
type TimerPayload struct {
	TimeLeft int `json:"timeLeft"`
}

// ErrorEvent wraps a command failure for the offending connection.
func ErrorEvent(err error) Event {
	msg := "something went wrong"
	if e, ok := err.(*Error); ok {
		msg = e.Message
	}
	return Event{Name: EventError, Data: ErrorPayload{Message: msg}}
}
