package domain

// Player is a participant in a room, keyed by connection ID.
type Player struct {
	Name          string
	Score         int
	HasAnswered   bool
	CurrentAnswer int
}

// PlayerView is the broadcast-safe projection of a Player. The submitted
// answer index is never part of it.
type PlayerView struct {
	Name        string `json:"name"`
	Score       int    `json:"score"`
	HasAnswered bool   `json:"hasAnswered"`
}

// Question is a multiple-choice question with exactly one correct option.
type Question struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// QuestionSet is a named, ordered bank of questions loadable into a room.
type QuestionSet struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// QuestionView is the public shape of an active question. It deliberately
// has no correct-index field so it cannot leak on any broadcast path.
type QuestionView struct {
	Index          int      `json:"index"`
	QuestionNumber int      `json:"questionNumber"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
}

// AnswerResult is sent to the answering connection only.
type AnswerResult struct {
	Correct        bool `json:"correct"`
	CorrectIndex   int  `json:"correctIndex"`
	CurrentScore   int  `json:"currentScore"`
	QuestionNumber int  `json:"questionNumber"`
}

// PlayerResult is one row of the final scoreboard.
type PlayerResult struct {
	Name           string `json:"name"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	Percentage     int    `json:"percentage"`
}

// QuizEnded is broadcast room-wide on termination. EndedBy is "host" for an
// explicit endQuiz and "automatic" when the pre-loaded sequence is exhausted.
type QuizEnded struct {
	Results        []PlayerResult `json:"results"`
	TotalQuestions int            `json:"totalQuestions"`
	EndedBy        string         `json:"endedBy"`
}

// QuizStatus is the resync snapshot returned to a single requester.
type QuizStatus struct {
	IsQuizEnded     bool                  `json:"isQuizEnded"`
	QuestionIndex   int                   `json:"questionIndex"`
	IsActive        bool                  `json:"isActive"`
	CurrentQuestion *QuestionView         `json:"currentQuestion"`
	Players         map[string]PlayerView `json:"players"`
}
