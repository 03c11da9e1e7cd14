package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"resumegen/internal/metrics"
	"resumegen/internal/models"
)

// Protocol violations: operations from connections the hub does not know, or
// that carry no verified identity. Rejected, never broadcast.
var (
	ErrNotRegistered = errors.New("connection not registered")
	ErrNoIdentity    = errors.New("connection has no verified identity")
)

// Backplane fans group events out to other hub processes. Optional; a nil
// backplane keeps the hub a plain single-process in-memory dispatcher.
type Backplane interface {
	Publish(ctx context.Context, resumeID string, frame models.WSFrame) error
}

// Hub is the real-time broadcast and presence component. It owns the
// connection registry, the group membership table and the typing table, and
// fans events out to every member of a resume group.
type Hub struct {
	log      *zap.Logger
	registry *Registry
	groups   *GroupTable
	typing   *TypingTracker

	backplane Backplane
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:      log,
		registry: NewRegistry(),
		groups:   NewGroupTable(),
		typing:   NewTypingTracker(),
	}
}

// SetBackplane attaches a cross-process fan-out. Must be called before the
// hub starts accepting connections.
func (h *Hub) SetBackplane(b Backplane) { h.backplane = b }

// Connect registers a new connection. A duplicate id is fatal to that
// connection: it signals a transport-layer bug upstream.
func (h *Hub) Connect(c *Client) error {
	if err := h.registry.Register(c); err != nil {
		h.log.Error("connection rejected", zap.String("connectionId", c.ID), zap.Error(err))
		return err
	}
	metrics.ActiveConnections.Inc()
	h.log.Info("connected",
		zap.String("connectionId", c.ID),
		zap.String("userId", c.UserID),
		zap.Int("active", h.registry.Count()))
	return nil
}

// Disconnect tears down all state for a connection: typing entries, group
// memberships, then the registry record. Idempotent, and it always runs to
// completion regardless of why the connection went away.
func (h *Hub) Disconnect(connID string) {
	c, ok := h.registry.Lookup(connID)
	if !ok {
		return
	}
	for _, cleared := range h.typing.ClearUser(c.UserID) {
		h.Broadcast(cleared.ResumeID, models.WSFrame{
			Type: models.EventTypingIndicator,
			Data: models.TypingIndicator{
				ResumeID: cleared.ResumeID,
				Section:  cleared.Section,
				UserID:   cleared.UserID,
				UserName: cleared.UserName,
				IsTyping: false,
			},
		}, connID)
	}
	for _, resumeID := range h.groups.RemoveEverywhere(connID) {
		h.Broadcast(resumeID, models.WSFrame{
			Type: models.EventUserDisconnected,
			Data: models.UserPresence{ResumeID: resumeID, UserID: c.UserID, UserName: c.UserName},
		}, connID)
		metrics.GroupMembers.Dec()
	}
	h.registry.Unregister(connID)
	c.Close()
	metrics.ActiveConnections.Dec()
	h.log.Info("disconnected", zap.String("connectionId", connID), zap.String("userId", c.UserID))
}

// Join adds the caller to a resume group and announces it to the other
// members. Joining twice is a no-op apart from re-sending the typing state.
func (h *Hub) Join(connID, resumeID string) error {
	c, err := h.caller(connID)
	if err != nil {
		return err
	}
	if h.groups.Join(resumeID, connID) {
		metrics.GroupMembers.Inc()
		h.Broadcast(resumeID, models.WSFrame{
			Type: models.EventUserConnected,
			Data: models.UserPresence{ResumeID: resumeID, UserID: c.UserID, UserName: c.UserName},
		}, connID)
	}

	// Bring the joiner up to date on who is typing right now.
	for _, active := range h.typing.Active(resumeID) {
		if active.UserID == c.UserID {
			continue
		}
		if err := c.Send(models.WSFrame{
			Type: models.EventTypingIndicator,
			Data: models.TypingIndicator{
				ResumeID: active.ResumeID,
				Section:  active.Section,
				UserID:   active.UserID,
				UserName: active.UserName,
				IsTyping: true,
			},
		}); err != nil {
			h.log.Warn("typing snapshot send failed", zap.String("connectionId", connID), zap.Error(err))
		}
	}
	return nil
}

// Leave removes the caller from a resume group and announces it.
func (h *Hub) Leave(connID, resumeID string) error {
	c, err := h.caller(connID)
	if err != nil {
		return err
	}
	if !h.groups.Leave(resumeID, connID) {
		return nil
	}
	metrics.GroupMembers.Dec()
	h.Broadcast(resumeID, models.WSFrame{
		Type: models.EventUserDisconnected,
		Data: models.UserPresence{ResumeID: resumeID, UserID: c.UserID, UserName: c.UserName},
	}, connID)
	return nil
}

// UpdateContent broadcasts one edit to every other member of the group.
// Edits are not merged; the client renders the last broadcast it observed.
func (h *Hub) UpdateContent(connID, resumeID, content, section string) error {
	c, err := h.caller(connID)
	if err != nil {
		return err
	}
	h.Broadcast(resumeID, models.WSFrame{
		Type: models.EventContentUpdated,
		Data: models.ContentUpdated{
			ResumeID:  resumeID,
			Content:   content,
			Section:   section,
			UpdatedBy: c.UserID,
			Timestamp: time.Now().UTC(),
		},
	}, connID)
	return nil
}

// SetTyping records the caller's typing state and broadcasts it to the rest
// of the group. Fire and forget; the idle sweep backstops lost clears.
func (h *Hub) SetTyping(connID, resumeID, section string, isTyping bool) error {
	c, err := h.caller(connID)
	if err != nil {
		return err
	}
	h.typing.Set(resumeID, c.UserID, c.UserName, section, isTyping)
	h.Broadcast(resumeID, models.WSFrame{
		Type: models.EventTypingIndicator,
		Data: models.TypingIndicator{
			ResumeID: resumeID,
			Section:  section,
			UserID:   c.UserID,
			UserName: c.UserName,
			IsTyping: isTyping,
		},
	}, connID)
	return nil
}

// Broadcast fans one frame out to every registered member of the group except
// the excluded sender. Send only queues, so a slow member can never stall the
// loop, and one member's failure never aborts the rest.
func (h *Hub) Broadcast(resumeID string, frame models.WSFrame, excludeConnID string) {
	if h.backplane != nil {
		if err := h.backplane.Publish(context.Background(), resumeID, frame); err != nil {
			h.log.Warn("backplane publish failed", zap.String("resumeId", resumeID), zap.Error(err))
		}
	}
	h.deliver(resumeID, frame, excludeConnID)
}

// DeliverRemote feeds a frame received from the backplane to local members.
// The originating hub already excluded its own sender.
func (h *Hub) DeliverRemote(resumeID string, frame models.WSFrame) {
	h.deliver(resumeID, frame, "")
}

func (h *Hub) deliver(resumeID string, frame models.WSFrame, excludeConnID string) {
	metrics.BroadcastsTotal.Inc()
	for _, id := range h.groups.MembersOf(resumeID) {
		if id == excludeConnID {
			continue
		}
		c, ok := h.registry.Lookup(id)
		if !ok {
			// Membership lagging behind a disconnect; skip the dead reference.
			continue
		}
		if err := c.Send(frame); err != nil {
			metrics.DeliveryFailures.Inc()
			h.log.Warn("delivery failed",
				zap.String("resumeId", resumeID),
				zap.String("connectionId", id),
				zap.String("frameType", frame.Type),
				zap.Error(err))
		}
	}
}

// RunTypingSweeper clears typing records idle longer than ttl and broadcasts
// the clear to the whole group, the idle user included, so their UI resets
// too. Blocks until ctx is done.
func (h *Hub) RunTypingSweeper(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweepTyping(ttl)
		}
	}
}

func (h *Hub) sweepTyping(ttl time.Duration) {
	for _, cleared := range h.typing.SweepStale(ttl) {
		h.log.Info("typing indicator expired",
			zap.String("resumeId", cleared.ResumeID),
			zap.String("userId", cleared.UserID))
		h.Broadcast(cleared.ResumeID, models.WSFrame{
			Type: models.EventTypingIndicator,
			Data: models.TypingIndicator{
				ResumeID: cleared.ResumeID,
				Section:  cleared.Section,
				UserID:   cleared.UserID,
				UserName: cleared.UserName,
				IsTyping: false,
			},
		}, "")
	}
}

func (h *Hub) caller(connID string) (*Client, error) {
	c, ok := h.registry.Lookup(connID)
	if !ok {
		return nil, ErrNotRegistered
	}
	if c.UserID == "" {
		return nil, ErrNoIdentity
	}
	return c, nil
}
