package app

import (
	"sort"

	"quiz-room-service/internal/domain"
)

// answerSource tags where the correct answer for the active question lives:
// the pre-loaded sequence at the room's cursor, or the ad-hoc value supplied
// with a manual question. The variant is chosen at dispatch time so the two
// paths can never shadow each other.
type answerSource int

const (
	answerPreloaded answerSource = iota
	answerManual
)

type activeQuestion struct {
	source       answerSource
	correctIndex int // meaningful for answerManual only
}

// Room holds all state for one quiz session. Rooms carry no lock of their
// own: every access is serialized by the Router's mutex, which reproduces
// the one-event-at-a-time scheduling the protocol assumes.
type Room struct {
	id            string
	host          string
	questionIndex int
	questions     []domain.Question
	current       *domain.QuestionView
	active        *activeQuestion
	isActive      bool
	ended         bool
	players       map[string]*domain.Player
	joinOrder     []string
}

func newRoom(id, host string) *Room {
	return &Room{
		id:      id,
		host:    host,
		players: make(map[string]*domain.Player),
	}
}

func (r *Room) addPlayer(connID, name string) {
	if _, ok := r.players[connID]; !ok {
		r.joinOrder = append(r.joinOrder, connID)
	}
	r.players[connID] = &domain.Player{Name: name}
}

func (r *Room) removePlayer(connID string) bool {
	if _, ok := r.players[connID]; !ok {
		return false
	}
	delete(r.players, connID)
	for i, id := range r.joinOrder {
		if id == connID {
			r.joinOrder = append(r.joinOrder[:i], r.joinOrder[i+1:]...)
			break
		}
	}
	return true
}

// resetAnswers opens a fresh question: every player may answer again.
func (r *Room) resetAnswers() {
	for _, p := range r.players {
		p.HasAnswered = false
		p.CurrentAnswer = 0
	}
}

// correctAnswer resolves the correct option index for the active question.
// Returns false when no question has been dispatched or the cursor points
// past the pre-loaded sequence.
func (r *Room) correctAnswer() (int, bool) {
	if r.active == nil {
		return 0, false
	}
	if r.active.source == answerManual {
		return r.active.correctIndex, true
	}
	if r.questionIndex < 0 || r.questionIndex >= len(r.questions) {
		return 0, false
	}
	return r.questions[r.questionIndex].CorrectIndex, true
}

func (r *Room) playerViews() map[string]domain.PlayerView {
	views := make(map[string]domain.PlayerView, len(r.players))
	for id, p := range r.players {
		views[id] = domain.PlayerView{Name: p.Name, Score: p.Score, HasAnswered: p.HasAnswered}
	}
	return views
}

// results builds the final scoreboard: descending by score, ties keep join
// order, which is why the sort must be stable and iteration walks joinOrder
// rather than the player map.
func (r *Room) results(totalQuestions int) []domain.PlayerResult {
	out := make([]domain.PlayerResult, 0, len(r.players))
	for _, id := range r.joinOrder {
		p, ok := r.players[id]
		if !ok {
			continue
		}
		percentage := 0
		if totalQuestions > 0 {
			percentage = int(float64(p.Score)/float64(totalQuestions)*100 + 0.5)
		}
		out = append(out, domain.PlayerResult{
			Name:           p.Name,
			Score:          p.Score,
			TotalQuestions: totalQuestions,
			Percentage:     percentage,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
