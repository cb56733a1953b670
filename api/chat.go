package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/fixboard/fixboard/internal/chat"
	"github.com/fixboard/fixboard/internal/notify"
	"github.com/fixboard/fixboard/internal/workflow"
	"github.com/fixboard/fixboard/pkg/models"
	"github.com/fixboard/fixboard/pkg/repository"
	"github.com/gorilla/websocket"
)

type ChatHandler struct {
	userRepo repository.UserRepo
	jobRepo  repository.JobRepo
	chatRepo repository.ChatRepo
	hub      *chat.Hub
	notifier Notifier
	upgrader websocket.Upgrader
}

func NewChatHandler(ur repository.UserRepo, jr repository.JobRepo, cr repository.ChatRepo, hub *chat.Hub, n Notifier) *ChatHandler {
	return &ChatHandler{
		userRepo: ur,
		jobRepo:  jr,
		chatRepo: cr,
		hub:      hub,
		notifier: n,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the JWT in the query string is the access control, not the origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *ChatHandler) notify(r *http.Request, typ string, payload any) {
	if h.notifier == nil {
		return
	}
	if _, err := h.notifier.Enqueue(r.Context(), typ, payload, 100); err != nil {
		logger.Error("enqueue notification", "type", typ, "err", err)
	}
}

// room resolves the job's chat room for the calling user. Only the landlord
// and the assigned contractor may enter, and only once a contractor is
// assigned.
func (h *ChatHandler) room(r *http.Request) (*models.User, *models.ChatRoom, error) {
	actor, err := currentUser(r, h.userRepo)
	if err != nil {
		return nil, nil, err
	}
	jobID, err := jobIDFromRequest(r)
	if err != nil {
		return nil, nil, err
	}
	j, err := h.jobRepo.GetJob(r.Context(), jobID)
	if err != nil {
		return nil, nil, err
	}
	if j == nil {
		return nil, nil, workflow.NotFoundf("job %d not found", jobID)
	}
	if j.ContractorID == nil {
		return nil, nil, workflow.Conflictf("job has no assigned contractor yet")
	}
	if actor.ID != j.LandlordID && actor.ID != *j.ContractorID {
		return nil, nil, workflow.Authorizationf("only the job's parties can use its chat")
	}

	room, err := h.chatRepo.GetOrCreateRoom(r.Context(), j)
	if err != nil {
		return nil, nil, err
	}
	return actor, room, nil
}

type chatResponse struct {
	Room     *models.ChatRoom `json:"room"`
	Messages []models.Message `json:"messages"`
}

func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	_, room, err := h.room(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	q := r.URL.Query()
	limit := 100
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	offset := 0
	if o := q.Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	msgs, err := h.chatRepo.ListMessages(r.Context(), room.ID, limit, offset)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	writeJSON(w, chatResponse{Room: room, Messages: msgs}, http.StatusOK)
}

type postMessageRequest struct {
	Body string `json:"body"`
}

func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		writeWorkflowError(w, workflow.Validationf("message body is required"))
		return
	}

	actor, room, err := h.room(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	m := models.Message{RoomID: room.ID, SenderID: actor.ID, Body: req.Body}
	id, err := h.chatRepo.CreateMessage(r.Context(), &m)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	m.ID = id

	h.hub.Publish(room.ID, m)
	h.notify(r, notify.TypeMessagePosted, map[string]any{"room_id": room.ID, "message_id": m.ID, "sender_id": actor.ID})
	writeJSON(w, m, http.StatusCreated)
}

// ChatWS upgrades to a websocket and streams new messages of the job's room
// as JSON frames until the client disconnects.
func (h *ChatHandler) ChatWS(w http.ResponseWriter, r *http.Request) {
	_, room, err := h.room(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	// subscribe before the handshake completes so no frame posted right
	// after the client connects is missed
	msgs, cancel := h.hub.Subscribe(room.ID)
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade", "room_id", room.ID, "err", err)
		return
	}
	defer conn.Close()

	// reader goroutine: we only push, but reading is how we learn the peer
	// went away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case m, ok := <-msgs:
			if !ok {
				return
			}
			if err := conn.WriteJSON(m); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
