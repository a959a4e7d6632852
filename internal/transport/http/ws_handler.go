package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
)

// WSHandler upgrades HTTP requests and decodes the {type, payload} envelope
// into router calls. Each named message has a fixed payload shape; anything
// that does not decode is rejected here, before it reaches a handler.
type WSHandler struct {
	router   *app.Router
	hub      *Hub
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewWSHandler(router *app.Router, hub *Hub, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		router: router,
		hub:    hub,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type joinRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type addQuestionPayload struct {
	RoomID   string          `json:"roomId"`
	Question domain.Question `json:"question"`
}

type submitAnswerPayload struct {
	RoomID        string `json:"roomId"`
	SelectedIndex int    `json:"selectedIndex"`
}

type manualQuestionPayload struct {
	RoomID       string   `json:"roomId"`
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

type loadQuestionSetPayload struct {
	RoomID string `json:"roomId"`
	SetID  string `json:"setId"`
}

// ServeWS runs the read loop for one connection. Messages from a single
// connection are handled strictly in arrival order; the router serializes
// across connections.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.NewString()
	h.hub.register(connID, conn)
	h.log.Info("connection opened", zap.String("conn", connID))

	defer func() {
		h.hub.drop(connID)
		h.router.Disconnect(connID)
		_ = conn.Close()
		h.log.Info("connection closed", zap.String("conn", connID))
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		h.dispatch(r, connID, inbound)
	}
}

func (h *WSHandler) dispatch(r *http.Request, connID string, inbound inboundMessage) {
	switch inbound.Type {
	case "createRoom":
		var p roomPayload
		if !h.decode(connID, inbound, &p) {
			return
		}
		h.router.CreateRoom(connID, p.RoomID)
	case "joinRoom":
		var p joinRoomPayload
		if !h.decode(connID, inbound, &p) {
			return
		}
		h.router.JoinRoom(connID, p.RoomID, p.Name)
	case "addQuestion":
		var p addQuestionPayload
		if !h.decode(connID, inbound, &p) {
			return
		}
		h.router.AddQuestion(connID, p.RoomID, p.Question)
	case "loadQuestionSet":
		var p loadQuestionSetPayload
		if !h.decode(connID, inbound, &p) {
			return
		}
		h.router.LoadQuestionSet(r.Context(), connID, p.RoomID, p.SetID)
	case "startQuiz":
		var p roomPayload
		if !h.decode(connID, inbound, &p) {
			return
		}
		h.router.StartQuiz(connID, p.RoomID)
	case "submitAnswer":
		var p submitAnswerPayload
		if !h.decode(connID, inbound, &p) {
			return
		}
		h.router.SubmitAnswer(connID, p.RoomID, p.SelectedIndex)
	case "nextQuestion":
		var p roomPayload
		if !h.decode(connID, inbound, &p) {
			return
		}
		h.router.NextQuestion(connID, p.RoomID)
	case "endQuiz":
		var p roomPayload
		if !h.decode(connID, inbound, &p) {
			return
		}
		h.router.EndQuiz(connID, p.RoomID)
	case "sendManualQuestion":
		var p manualQuestionPayload
		if !h.decode(connID, inbound, &p) {
			return
		}
		h.router.SendManualQuestion(connID, p.RoomID, p.Question, p.Options, p.CorrectIndex)
	case "getQuizStatus":
		var p roomPayload
		if !h.decode(connID, inbound, &p) {
			return
		}
		h.router.QuizStatus(connID, p.RoomID)
	default:
		h.hub.SendTo(connID, app.EventErrorMessage, "Unsupported message type")
	}
}

func (h *WSHandler) decode(connID string, inbound inboundMessage, dst any) bool {
	if err := json.Unmarshal(inbound.Payload, dst); err != nil {
		h.hub.SendTo(connID, app.EventErrorMessage, "Invalid "+inbound.Type+" payload")
		return false
	}
	return true
}
