// ABOUTME: In-memory room registry with per-room fan-out and a worker loop
// ABOUTME: One worker per room serializes orchestrator calls so replies stay ordered

package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/attack-capital/chat-relay/internal/conversation"
)

const (
	// participantBufferSize is the channel buffer for each participant.
	// Frames are dropped for participants whose channels are full.
	participantBufferSize = 64

	// inboundQueueSize bounds how many user messages a room can hold
	// while the worker is waiting on the LLM.
	inboundQueueSize = 32
)

// Rooms tracks every active chat room. Rooms are created on first join and
// torn down when the last participant leaves.
type Rooms struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	closed bool
	svc    *conversation.Service
	logger *slog.Logger
}

func NewRooms(svc *conversation.Service, logger *slog.Logger) *Rooms {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rooms{
		rooms:  make(map[string]*Room),
		svc:    svc,
		logger: logger.With("component", "rooms"),
	}
}

// Get returns the named room, creating it (and starting its worker) if it
// does not exist yet. Returns nil after Close: no new workers may start
// once shutdown has begun.
func (rs *Rooms) Get(name string) *Room {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.closed {
		return nil
	}
	if room, ok := rs.rooms[name]; ok {
		return room
	}

	room := &Room{
		name:         name,
		svc:          rs.svc,
		participants: make(map[string]*participant),
		inbound:      make(chan inboundMessage, inboundQueueSize),
		done:         make(chan struct{}),
		onEmpty:      func() { rs.remove(name) },
		logger:       rs.logger.With("room", name),
	}
	rs.rooms[name] = room
	go room.run()

	rs.logger.Info("room created", "room", name)
	return room
}

// Count reports the number of active rooms.
func (rs *Rooms) Count() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.rooms)
}

// Close shuts down every room and its worker. Subsequent Get calls
// return nil.
func (rs *Rooms) Close() {
	rs.mu.Lock()
	rs.closed = true
	rooms := make([]*Room, 0, len(rs.rooms))
	for _, room := range rs.rooms {
		rooms = append(rooms, room)
	}
	rs.rooms = make(map[string]*Room)
	rs.mu.Unlock()

	for _, room := range rooms {
		room.close()
	}
}

func (rs *Rooms) remove(name string) {
	rs.mu.Lock()
	room, ok := rs.rooms[name]
	if ok {
		delete(rs.rooms, name)
	}
	rs.mu.Unlock()

	if ok {
		room.close()
		rs.logger.Info("room closed", "room", name)
	}
}

type participant struct {
	username string
	ch       chan Frame
}

type inboundMessage struct {
	username string
	agent    string // optional persona override for this message
	text     string
}

// Room is one chat room: a set of participants plus a single worker that
// processes user messages in arrival order.
type Room struct {
	name    string
	svc     *conversation.Service
	inbound chan inboundMessage
	done    chan struct{}
	onEmpty func()
	logger  *slog.Logger

	mu           sync.RWMutex
	participants map[string]*participant

	closeOnce sync.Once
}

// Join registers a participant and returns their frame channel and
// subscription ID. Everyone in the room, the joiner included, sees the
// join notice; the personalized welcome goes only to the joiner.
func (r *Room) Join(ctx context.Context, username string) (<-chan Frame, string) {
	subID := uuid.New().String()
	p := &participant{username: username, ch: make(chan Frame, participantBufferSize)}

	r.mu.Lock()
	r.participants[subID] = p
	r.mu.Unlock()

	r.logger.Info("participant joined", "user", username, "sub_id", subID)

	r.broadcast(systemFrame(fmt.Sprintf("%s has joined the room.", username)))

	welcome := r.svc.Welcome(ctx, username)
	r.mu.RLock()
	if _, ok := r.participants[subID]; ok {
		r.send(p, replyFrame(welcome))
	}
	r.mu.RUnlock()

	return p.ch, subID
}

// Leave removes a participant and notifies the rest of the room. When the
// room empties out it is removed from the registry.
func (r *Room) Leave(subID string) {
	r.mu.Lock()
	p, ok := r.participants[subID]
	if ok {
		delete(r.participants, subID)
		close(p.ch)
	}
	empty := len(r.participants) == 0
	r.mu.Unlock()

	if !ok {
		return
	}

	r.logger.Info("participant left", "user", p.username, "sub_id", subID)

	if empty {
		r.onEmpty()
		return
	}
	r.broadcast(systemFrame(fmt.Sprintf("%s has left the room.", p.username)))
}

// Submit queues a user message for processing. agent optionally names the
// persona that should answer; empty means the user's active agent. Returns
// false when the room is backlogged and the message was dropped.
func (r *Room) Submit(username, agent, text string) bool {
	select {
	case r.inbound <- inboundMessage{username: username, agent: agent, text: text}:
		return true
	default:
		r.logger.Warn("inbound queue full, dropping message", "user", username)
		return false
	}
}

// run is the room worker. Messages are handled strictly one at a time: the
// user frame fans out first, then the orchestrator runs, then the reply
// fans out. At most one completion per room is ever in flight.
func (r *Room) run() {
	for {
		select {
		case <-r.done:
			return
		case msg := <-r.inbound:
			r.broadcastUserMessage(msg.username, msg.text)

			reply := r.svc.Respond(context.Background(), msg.username, msg.agent, msg.text)
			r.broadcast(replyFrame(reply))
		}
	}
}

// broadcastUserMessage fans a user's message out to every participant. The
// author's copy carries IsUser set so clients can style it as their own.
// Sends happen under the read lock so channels cannot be closed mid-send;
// they never block because send drops on a full buffer.
func (r *Room) broadcastUserMessage(username, text string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.participants {
		frame := Frame{
			Type:     FrameMessage,
			Content:  text,
			Sender:   username,
			Username: username,
			IsUser:   p.username == username,
		}
		r.send(p, frame)
	}
}

// broadcast delivers the same frame to every participant, sender included.
func (r *Room) broadcast(frame Frame) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.participants {
		r.send(p, frame)
	}
}

func (r *Room) send(p *participant, frame Frame) {
	select {
	case p.ch <- frame:
	default:
		// Participant channel full, drop the frame for this participant.
		r.logger.Debug("dropped frame for slow participant", "user", p.username)
	}
}

func (r *Room) close() {
	r.closeOnce.Do(func() {
		close(r.done)

		r.mu.Lock()
		for subID, p := range r.participants {
			close(p.ch)
			delete(r.participants, subID)
		}
		r.mu.Unlock()
	})
}
