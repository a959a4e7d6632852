package app

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"quiz-room-service/internal/domain"
)

// Emitter is the transport surface the router needs: per-connection sends,
// room-wide broadcasts, and group membership. The websocket hub implements
// it; tests substitute a recorder.
type Emitter interface {
	SendTo(connID, event string, payload any)
	Broadcast(roomID, event string, payload any)
	Subscribe(roomID, connID string)
}

// QuestionBank resolves named question sets for loadQuestionSet.
type QuestionBank interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// RoomTracker marks room liveness in an external store (best effort).
type RoomTracker interface {
	MarkLive(roomID string)
}

// Router owns the room registry and interprets every inbound event against
// it. A single mutex serializes all events, so each handler runs to
// completion before the next is admitted — the atomicity the protocol
// assumes, preserved under real goroutine concurrency.
type Router struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	emit    Emitter
	bank    QuestionBank
	tracker RoomTracker
	log     *zap.Logger
}

// NewRouter wires the router to its transport. bank and tracker may be nil
// when the corresponding backend is not configured.
func NewRouter(emit Emitter, bank QuestionBank, tracker RoomTracker, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		rooms:   make(map[string]*Room),
		emit:    emit,
		bank:    bank,
		tracker: tracker,
		log:     log,
	}
}

// CreateRoom creates or silently overwrites a room with the caller as host.
// A same-id overwrite orphans the previous room's connections; the room id
// is trusted as supplied.
func (rt *Router) CreateRoom(connID, roomID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.rooms[roomID] = newRoom(roomID, connID)
	rt.emit.Subscribe(roomID, connID)
	if rt.tracker != nil {
		rt.tracker.MarkLive(roomID)
	}
	rt.log.Info("room created", zap.String("room", roomID), zap.String("host", connID))
	rt.emit.SendTo(connID, EventRoomCreated, RoomCreated{RoomID: roomID})
}

// JoinRoom registers the caller as a player. Joining an unknown room is an
// error; it never creates a room implicitly.
func (rt *Router) JoinRoom(connID, roomID, name string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, ok := rt.rooms[roomID]
	if !ok {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrRoomNotFound.Error())
		return
	}
	room.addPlayer(connID, name)
	rt.emit.Subscribe(roomID, connID)
	rt.log.Info("player joined", zap.String("room", roomID), zap.String("name", name))
	rt.emit.Broadcast(roomID, EventPlayersUpdated, room.playerViews())
}

// AddQuestion stages a question for the pre-loaded flow. Silent no-op for
// unknown rooms and non-host callers; nothing is broadcast.
func (rt *Router) AddQuestion(connID, roomID string, q domain.Question) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, ok := rt.rooms[roomID]
	if !ok || room.host != connID {
		return
	}
	room.questions = append(room.questions, q)
}

// LoadQuestionSet appends a named set from the question bank to the room's
// pre-loaded sequence. Same authorization shape as AddQuestion: non-host
// callers are silently ignored.
func (rt *Router) LoadQuestionSet(ctx context.Context, connID, roomID, setID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, ok := rt.rooms[roomID]
	if !ok || room.host != connID {
		return
	}
	if room.ended {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrQuizEnded.Error())
		return
	}
	if rt.bank == nil {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrQuestionSetNotFound.Error())
		return
	}
	set, err := rt.bank.GetQuestionSet(ctx, setID)
	if err != nil {
		rt.log.Warn("question set lookup failed", zap.String("set", setID), zap.Error(err))
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrQuestionSetNotFound.Error())
		return
	}
	room.questions = append(room.questions, set.Questions...)
	rt.emit.SendTo(connID, EventQuestionSetLoaded, QuestionSetLoaded{
		RoomID:        roomID,
		SetID:         setID,
		QuestionCount: len(set.Questions),
	})
}

// StartQuiz dispatches the question at the current cursor (index 0 on the
// first call).
func (rt *Router) StartQuiz(connID, roomID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, ok := rt.rooms[roomID]
	if !ok {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrRoomNotFound.Error())
		return
	}
	rt.dispatchQuestion(room)
}

// SubmitAnswer records a player's answer for the active question, scores it,
// and broadcasts the updated player snapshot. Submissions after the quiz has
// ended are silently ignored.
func (rt *Router) SubmitAnswer(connID, roomID string, selectedIndex int) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, ok := rt.rooms[roomID]
	if !ok {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrRoomNotFound.Error())
		return
	}
	player, ok := room.players[connID]
	if !ok {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrPlayerNotFound.Error())
		return
	}
	if room.ended {
		return
	}
	if player.HasAnswered {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrAlreadyAnswered.Error())
		return
	}

	player.HasAnswered = true
	player.CurrentAnswer = selectedIndex

	correctIndex, known := room.correctAnswer()
	correct := known && selectedIndex == correctIndex
	if correct {
		player.Score++
	}

	questionNumber := room.questionIndex + 1
	if room.current != nil {
		questionNumber = room.current.QuestionNumber
	}
	rt.emit.SendTo(connID, EventAnswerResult, domain.AnswerResult{
		Correct:        correct,
		CorrectIndex:   correctIndex,
		CurrentScore:   player.Score,
		QuestionNumber: questionNumber,
	})
	rt.emit.Broadcast(roomID, EventPlayersUpdated, room.playerViews())
}

// NextQuestion advances the cursor and dispatches the next pre-loaded
// question. Silent no-op for unknown rooms and non-host callers.
func (rt *Router) NextQuestion(connID, roomID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, ok := rt.rooms[roomID]
	if !ok || room.host != connID {
		return
	}
	if room.ended {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrQuizEnded.Error())
		return
	}
	room.questionIndex++
	room.resetAnswers()
	rt.dispatchQuestion(room)
}

// EndQuiz terminates the quiz on the host's behalf and broadcasts final
// results.
func (rt *Router) EndQuiz(connID, roomID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, ok := rt.rooms[roomID]
	if !ok {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrRoomNotFound.Error())
		return
	}
	if room.host != connID {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrNotHostEnd.Error())
		return
	}
	if room.ended {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrQuizEnded.Error())
		return
	}
	rt.terminate(room, "host")
}

// SendManualQuestion broadcasts an ad-hoc question supplied at send time.
// The correct index is stored on the room only and never leaves the server.
func (rt *Router) SendManualQuestion(connID, roomID, question string, options []string, correctIndex int) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, ok := rt.rooms[roomID]
	if !ok {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrRoomNotFound.Error())
		return
	}
	if room.host != connID {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrNotHostSend.Error())
		return
	}
	if room.ended {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrQuizEnded.Error())
		return
	}

	text := strings.TrimSpace(question)
	if text == "" || len(options) != 4 || correctIndex < 0 || correctIndex > 3 {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrInvalidQuestion.Error())
		return
	}
	trimmed := make([]string, len(options))
	for i, opt := range options {
		trimmed[i] = strings.TrimSpace(opt)
	}

	// A manual question on top of an already-active one counts as a
	// transition; the very first manual question keeps the cursor where
	// it is.
	if room.isActive {
		room.questionIndex++
	}
	room.active = &activeQuestion{source: answerManual, correctIndex: correctIndex}
	room.current = &domain.QuestionView{
		Index:          room.questionIndex,
		QuestionNumber: room.questionIndex + 1,
		Question:       text,
		Options:        trimmed,
	}
	room.isActive = true
	room.resetAnswers()
	rt.emit.Broadcast(roomID, EventNewQuestion, room.current)
}

// QuizStatus replies to the caller with a resync snapshot of the room.
func (rt *Router) QuizStatus(connID, roomID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, ok := rt.rooms[roomID]
	if !ok {
		rt.emit.SendTo(connID, EventErrorMessage, domain.ErrRoomNotFound.Error())
		return
	}
	rt.emit.SendTo(connID, EventQuizStatus, domain.QuizStatus{
		IsQuizEnded:     room.ended,
		QuestionIndex:   room.questionIndex,
		IsActive:        room.isActive,
		CurrentQuestion: room.current,
		Players:         room.playerViews(),
	})
}

// Disconnect removes the connection from every room it plays in and
// broadcasts the shrunken player map. A disconnecting host leaves its room
// host-less: host-only operations on it are inert from then on.
func (rt *Router) Disconnect(connID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	for roomID, room := range rt.rooms {
		if room.removePlayer(connID) {
			rt.log.Info("player left", zap.String("room", roomID), zap.String("conn", connID))
			rt.emit.Broadcast(roomID, EventPlayersUpdated, room.playerViews())
		}
	}
}

// dispatchQuestion broadcasts the pre-loaded question at the cursor, or runs
// automatic termination when the sequence is exhausted. Caller holds the lock.
func (rt *Router) dispatchQuestion(room *Room) {
	if room.ended {
		return
	}
	if room.questionIndex < 0 || room.questionIndex >= len(room.questions) {
		rt.terminate(room, "automatic")
		return
	}
	q := room.questions[room.questionIndex]
	room.resetAnswers()
	room.active = &activeQuestion{source: answerPreloaded}
	room.current = &domain.QuestionView{
		Index:          room.questionIndex,
		QuestionNumber: room.questionIndex + 1,
		Question:       q.Text,
		Options:        q.Options,
	}
	room.isActive = true
	rt.emit.Broadcast(room.id, EventNewQuestion, room.current)
}

// terminate flips the one-way ended flag and broadcasts final results. An
// explicit host end counts the in-flight question; exhaustion does not.
// Caller holds the lock.
func (rt *Router) terminate(room *Room, endedBy string) {
	room.ended = true
	room.isActive = false

	total := room.questionIndex
	if endedBy == "host" {
		total++
	}
	rt.log.Info("quiz ended",
		zap.String("room", room.id),
		zap.String("endedBy", endedBy),
		zap.Int("totalQuestions", total),
	)
	rt.emit.Broadcast(room.id, EventQuizEnded, domain.QuizEnded{
		Results:        room.results(total),
		TotalQuestions: total,
		EndedBy:        endedBy,
	})
}
