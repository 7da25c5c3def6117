package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/inkpad/inkpad/internal/operation"
)

// saveTimeout bounds one drawing save.
const saveTimeout = 10 * time.Second

type Room struct {
	drawingID string
	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager
	state     *DrawingState

	// opMu orders apply and broadcast so every client sees server order.
	opMu sync.Mutex
}

func NewRoom(drawingID string, state *DrawingState) *Room {
	return &Room{
		drawingID: drawingID,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
		state:     state,
	}
}

type Hub struct {
	mu           sync.RWMutex
	rooms        map[string]*Room // drawingID -> room
	register     chan *Client
	unregister   chan *Client
	persist      Persister
	saveInterval time.Duration

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub that loads rooms through p and saves dirty ones
// every saveInterval.
func NewHub(p Persister, saveInterval time.Duration) *Hub {
	return &Hub{
		rooms:        make(map[string]*Room),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		persist:      p,
		saveInterval: saveInterval,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

func (h *Hub) Run() {
	ticker := time.NewTicker(h.saveInterval)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ticker.C:
			h.saveAll()
		case <-h.stop:
			h.saveAll()
			h.closeAll()
			return
		}
	}
}

// Stop saves every dirty room, disconnects clients and waits for Run to
// return.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Room returns the live room for a drawing, if any.
func (h *Hub) Room(drawingID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[drawingID]
	return room, ok
}

func (h *Hub) addClient(client *Client) {
	h.mu.RLock()
	room, ok := h.rooms[client.DrawingID]
	h.mu.RUnlock()

	if !ok {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		doc, err := h.persist.LoadDrawing(ctx, client.DrawingID)
		cancel()
		if err != nil {
			slog.Error("load drawing", "error", err, "drawing", client.DrawingID)
			client.Send(newMessage(TypeError, ErrorPayload{Message: "could not load drawing"}))
			client.close()
			return
		}
		room = NewRoom(client.DrawingID, NewDrawingState(doc))
		h.mu.Lock()
		h.rooms[client.DrawingID] = room
		h.mu.Unlock()
	}

	h.mu.Lock()
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	room.opMu.Lock()
	docJSON, seq, err := room.state.Snapshot()
	if err == nil {
		client.Send(newMessage(TypeWelcome, WelcomePayload{
			ClientID:    client.ClientID,
			UserID:      client.UserID,
			DisplayName: client.DisplayName,
			ServerSeq:   seq,
		}))
		client.Send(newMessage(TypeDocSync, DocSyncPayload{Drawing: docJSON, ServerSeq: seq}))
	}
	room.opMu.Unlock()
	if err != nil {
		slog.Error("snapshot drawing", "error", err, "drawing", client.DrawingID)
	}

	// Send current presence state to new client
	client.Send(room.presence.StateMessage())

	joinMsg := newMessage(TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg.UserID = client.UserID
	joinMsg.ClientID = client.ClientID
	h.broadcastToRoom(client.DrawingID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "drawing", client.DrawingID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.DrawingID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		client.close()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Remove(client.ClientID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.DrawingID)
	}
	h.mu.Unlock()

	if empty {
		h.saveRoom(room)
	} else {
		leaveMsg := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID})
		leaveMsg.UserID = client.UserID
		leaveMsg.ClientID = client.ClientID
		h.broadcastToRoom(client.DrawingID, leaveMsg, "")
	}

	slog.Info("client left", "user", client.UserID, "drawing", client.DrawingID)
}

func (h *Hub) saveAll() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		h.saveRoom(r)
	}
}

func (h *Hub) saveRoom(room *Room) {
	data, dirty, err := room.state.TakeDirty()
	if err != nil {
		slog.Error("snapshot drawing", "error", err, "drawing", room.drawingID)
		return
	}
	if !dirty {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := h.persist.SaveDrawing(ctx, room.drawingID, data); err != nil {
		slog.Error("save drawing", "error", err, "drawing", room.drawingID)
		room.state.MarkDirty()
		return
	}
	slog.Debug("drawing saved", "drawing", room.drawingID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for _, c := range room.clients {
			c.close()
		}
		delete(h.rooms, id)
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	case TypeDocSync:
		h.handleDocSync(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.Send(newMessage(TypeError, ErrorPayload{Message: "unknown message type " + msg.Type}))
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	room, ok := h.Room(sender.DrawingID)
	if !ok {
		return
	}

	room.presence.Update(sender.ClientID, &presence)

	outMsg := newMessage(TypePresenceUpdate, presence)
	outMsg.UserID = sender.UserID
	outMsg.ClientID = sender.ClientID
	h.broadcastToRoom(sender.DrawingID, outMsg, sender.ClientID)
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{Reason: "invalid operation payload"}))
		return
	}
	rec := submit.Operation

	room, ok := h.Room(sender.DrawingID)
	if !ok {
		return
	}

	room.opMu.Lock()
	defer room.opMu.Unlock()

	seq, err := room.state.Apply(rec)
	if err != nil {
		slog.Debug("operation rejected", "error", err, "op", rec.ID, "user", sender.UserID)
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{
			OperationID: rec.ID,
			Reason:      nackReason(err),
		}))
		return
	}

	ack := newMessage(TypeOpAck, OperationAckPayload{
		OperationID:     rec.ID,
		ServerSeq:       seq,
		ServerTimestamp: GetServerTimestamp(),
	})
	ack.Seq = seq
	sender.Send(ack)

	out := newMessage(TypeOpBroadcast, OperationBroadcastPayload{
		Operation: rec,
		UserID:    sender.UserID,
		ServerSeq: seq,
	})
	out.Seq = seq
	out.UserID = sender.UserID
	out.ClientID = sender.ClientID
	h.broadcastToRoom(sender.DrawingID, out, sender.ClientID)

	if rec.Type == operation.TypeDelete {
		h.clearSelections(room, rec.ShapeID)
	}
}

// clearSelections tells everyone that presences pointing at a deleted
// shape no longer select anything.
func (h *Hub) clearSelections(room *Room, shapeID string) {
	changed := room.presence.ClearSelection(shapeID)
	all := room.presence.GetAll()
	for _, clientID := range changed {
		p, ok := all[clientID]
		if !ok {
			continue
		}
		msg := newMessage(TypePresenceUpdate, p)
		msg.ClientID = clientID
		h.broadcastToRoom(room.drawingID, msg, "")
	}
}

func nackReason(err error) string {
	switch {
	case errors.Is(err, operation.ErrShapeNotFound):
		return "shape not found"
	case errors.Is(err, operation.ErrShapeExists):
		return "shape already exists"
	case errors.Is(err, ErrDuplicateOperation):
		return "duplicate operation"
	case errors.Is(err, operation.ErrUnknownOperation):
		return "unknown operation type"
	default:
		return "invalid operation"
	}
}

func (h *Hub) handleDocSync(sender *Client, msg *Message) {
	var req DocSyncRequest
	if len(msg.Payload) > 0 && string(msg.Payload) != "null" {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			sender.Send(newMessage(TypeError, ErrorPayload{Message: "invalid sync request"}))
			return
		}
	}

	room, ok := h.Room(sender.DrawingID)
	if !ok {
		return
	}

	room.opMu.Lock()
	defer room.opMu.Unlock()

	if req.Since > 0 {
		if ops, ok := room.state.Since(req.Since); ok {
			sender.Send(newMessage(TypeDocSync, DocSyncPayload{Operations: ops, ServerSeq: room.state.ServerSeq()}))
			return
		}
	}

	docJSON, seq, err := room.state.Snapshot()
	if err != nil {
		slog.Error("snapshot drawing", "error", err, "drawing", sender.DrawingID)
		sender.Send(newMessage(TypeError, ErrorPayload{Message: "could not sync drawing"}))
		return
	}
	sender.Send(newMessage(TypeDocSync, DocSyncPayload{Drawing: docJSON, ServerSeq: seq}))
}

func (h *Hub) broadcastToRoom(drawingID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[drawingID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
