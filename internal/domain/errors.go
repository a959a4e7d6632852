package domain

import "errors"

// Wire-visible failures. The messages are the exact strings delivered to
// clients in errorMessage events, so they are fixed here in one place.
var (
	// ErrRoomNotFound is returned when an operation names an unknown room.
	ErrRoomNotFound = errors.New("Room not found")
	// ErrPlayerNotFound is returned when a connection acts before joining.
	ErrPlayerNotFound = errors.New("You have not joined this room")
	// ErrAlreadyAnswered is returned on a second submission for one question.
	ErrAlreadyAnswered = errors.New("You have already answered this question")
	// ErrQuizEnded is returned for host operations after termination.
	ErrQuizEnded = errors.New("Quiz has already ended")
	// ErrNotHostEnd rejects endQuiz from non-host connections.
	ErrNotHostEnd = errors.New("Only the host can end the quiz")
	// ErrNotHostSend rejects sendManualQuestion from non-host connections.
	ErrNotHostSend = errors.New("Only the host can send questions")
	// ErrInvalidQuestion rejects malformed manual questions.
	ErrInvalidQuestion = errors.New("Invalid question format")
	// ErrQuestionSetNotFound indicates the question bank has no such set.
	ErrQuestionSetNotFound = errors.New("Question set not found")
)
