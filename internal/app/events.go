package app

// Outbound event names. Each is delivered inside a {type, payload} envelope
// either to a single connection or to every connection in a room group.
const (
	EventRoomCreated       = "roomCreated"
	EventPlayersUpdated    = "playersUpdated"
	EventErrorMessage      = "errorMessage"
	EventNewQuestion       = "newQuestion"
	EventAnswerResult      = "answerResult"
	EventQuizEnded         = "quizEnded"
	EventQuizStatus        = "quizStatus"
	EventQuestionSetLoaded = "questionSetLoaded"
)

// RoomCreated acknowledges createRoom to the creator only.
type RoomCreated struct {
	RoomID string `json:"roomId"`
}

// QuestionSetLoaded acknowledges loadQuestionSet to the host only.
type QuestionSetLoaded struct {
	RoomID        string `json:"roomId"`
	SetID         string `json:"setId"`
	QuestionCount int    `json:"questionCount"`
}
