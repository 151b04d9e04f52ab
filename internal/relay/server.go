// ABOUTME: HTTP and WebSocket surface of the chat relay
// ABOUTME: Exposes agent listing, room tokens, direct responses, handoff, and /ws

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/attack-capital/chat-relay/internal/agent"
	"github.com/attack-capital/chat-relay/internal/conversation"
	"github.com/attack-capital/chat-relay/internal/livekit"
)

// AgentInfo is one entry in the GET /agents response.
type AgentInfo struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
}

// ListAgentsResponse is the JSON response for GET /agents. The envelope
// matches what the agent registry expects from a remote roster, so one
// relay can serve as another's registry.
type ListAgentsResponse struct {
	Agents []AgentInfo `json:"agents"`
}

// CreateRoomRequest is the JSON request body for POST /create-room.
type CreateRoomRequest struct {
	Username string `json:"username"`
	RoomName string `json:"room_name"`
}

// CreateRoomResponse is the JSON response for POST /create-room.
type CreateRoomResponse struct {
	Token    string `json:"token"`
	RoomName string `json:"room_name"`
}

// AgentResponseRequest is the JSON request body for POST /agent-response.
type AgentResponseRequest struct {
	Username string `json:"username"`
	Message  string `json:"message"`
	Agent    string `json:"agent,omitempty"`
}

// AgentResponseResponse is the JSON response for POST /agent-response.
type AgentResponseResponse struct {
	Response string `json:"response"`
	Agent    string `json:"agent"`
}

// HandoffRequest is the JSON request body for POST /handoff. FromAgent and
// Reason are informational; the switch is driven by username and to_agent.
type HandoffRequest struct {
	Username  string `json:"username"`
	FromAgent string `json:"from_agent,omitempty"`
	ToAgent   string `json:"to_agent"`
	Reason    string `json:"reason,omitempty"`
}

// HandoffResponse is the JSON response for POST /handoff.
type HandoffResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ToAgent string `json:"to_agent,omitempty"`
}

// clientMessage is what WebSocket clients send for one chat message. Agent
// optionally names the persona that should answer this message.
type clientMessage struct {
	Message string `json:"message"`
	Agent   string `json:"agent,omitempty"`
}

// Server hosts the relay's HTTP endpoints and WebSocket rooms.
type Server struct {
	addr     string
	svc      *conversation.Service
	registry *agent.Registry
	minter   *livekit.TokenMinter
	rooms    *Rooms
	logger   *slog.Logger

	httpServer *http.Server
}

func NewServer(addr string, svc *conversation.Service, registry *agent.Registry, minter *livekit.TokenMinter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "relay")
	return &Server{
		addr:     addr,
		svc:      svc,
		registry: registry,
		minter:   minter,
		rooms:    NewRooms(svc, logger),
		logger:   logger,
	}
}

// Routes builds the request mux. Exposed separately so tests can mount the
// handlers on an httptest server.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /agents", s.handleListAgents)
	mux.HandleFunc("POST /create-room", s.handleCreateRoom)
	mux.HandleFunc("POST /agent-response", s.handleAgentResponse)
	mux.HandleFunc("POST /handoff", s.handleHandoff)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws/{username}/{room}", s.handleWebSocket)
	return mux
}

// ListenAndServe runs the server until ctx is cancelled, then drains
// connections and shuts the rooms down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.rooms.Close()
	return s.httpServer.Shutdown(shutdownCtx)
}

// handleListAgents handles GET /agents. Prompts stay server-side; clients
// only see display metadata.
func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents := s.registry.List()
	response := ListAgentsResponse{Agents: make([]AgentInfo, 0, len(agents))}
	for _, a := range agents {
		response.Agents = append(response.Agents, AgentInfo{
			Name:        a.Name,
			Role:        a.Role,
			Description: a.Description,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleCreateRoom handles POST /create-room: mints a LiveKit join token
// for the named user and room.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.RoomName == "" {
		s.sendJSONError(w, http.StatusBadRequest, "username and room_name are required")
		return
	}

	token, err := s.minter.Mint(req.Username, req.RoomName)
	if errors.Is(err, livekit.ErrNotConfigured) {
		s.sendJSONError(w, http.StatusServiceUnavailable, "livekit is not configured")
		return
	}
	if err != nil {
		s.logger.Error("minting room token failed", "user", req.Username, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CreateRoomResponse{Token: token, RoomName: req.RoomName})
}

// handleAgentResponse handles POST /agent-response: one request/response
// chat turn outside any room.
func (s *Server) handleAgentResponse(w http.ResponseWriter, r *http.Request) {
	var req AgentResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Message == "" {
		s.sendJSONError(w, http.StatusBadRequest, "username and message are required")
		return
	}

	reply := s.svc.Respond(r.Context(), req.Username, req.Agent, req.Message)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AgentResponseResponse{Response: reply.Text, Agent: reply.Agent})
}

// handleHandoff handles POST /handoff: switches the user's active agent.
func (s *Server) handleHandoff(w http.ResponseWriter, r *http.Request) {
	var req HandoffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.ToAgent == "" {
		s.sendJSONError(w, http.StatusBadRequest, "username and to_agent are required")
		return
	}

	s.logger.Info("handoff requested",
		"user", req.Username, "from", req.FromAgent, "to", req.ToAgent, "reason", req.Reason)

	reply, err := s.svc.Handoff(r.Context(), req.Username, req.ToAgent)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(HandoffResponse{Success: false, Message: reply.Text})
		return
	}
	json.NewEncoder(w).Encode(HandoffResponse{Success: true, Message: reply.Text, ToAgent: reply.Agent})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	source := "builtin"
	if s.registry.FromRemote() {
		source = "remote"
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":         "ok",
		"agents":         len(s.registry.List()),
		"agent_source":   source,
		"rooms":          s.rooms.Count(),
		"livekit_tokens": s.minter.Configured(),
	})
}

// handleWebSocket handles GET /ws/{username}/{room}: joins the room,
// streams frames out, and feeds inbound messages to the room worker.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	roomName := r.PathValue("room")
	if username == "" || roomName == "" {
		s.sendJSONError(w, http.StatusBadRequest, "username and room are required")
		return
	}

	room := s.rooms.Get(roomName)
	if room == nil {
		s.sendJSONError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", "user", username, "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	frames, subID := room.Join(ctx, username)

	s.logger.Info("websocket connected", "user", username, "room", roomName)

	// Writer: pumps room frames to the socket until the channel closes.
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for frame := range frames {
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				return
			}
		}
	}()

	// Reader: each inbound payload becomes one room message.
	for {
		var in clientMessage
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			break
		}
		if in.Message == "" {
			continue
		}
		room.Submit(username, in.Agent, in.Message)
	}

	// Leaving closes the frame channel, which stops the writer.
	room.Leave(subID)
	<-writeDone
	conn.Close(websocket.StatusNormalClosure, "")
	s.logger.Info("websocket disconnected", "user", username, "room", roomName)
}

func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
