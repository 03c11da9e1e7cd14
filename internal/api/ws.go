package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"resumegen/internal/models"
	"resumegen/internal/session"
	"resumegen/internal/utils"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// WSHandler upgrades collaboration connections and pumps client operations
// into the hub. One connection can join any number of resume groups.
type WSHandler struct {
	log    *zap.Logger
	hub    *session.Hub
	secret string
}

func NewWSHandler(log *zap.Logger, hub *session.Hub, secret string) *WSHandler {
	return &WSHandler{log: log, hub: hub, secret: secret}
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	// Unauthenticated attempts are rejected before any hub state exists.
	claims, err := utils.VerifyRequest(r, h.secret)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := utils.GetUserIDFromClaims(claims)
	if err != nil || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	userName := utils.GetUserNameFromClaims(claims)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := session.NewClient(uuid.New().String(), userID, userName, conn)
	if err := h.hub.Connect(client); err != nil {
		_ = conn.WriteJSON(errFrame("connection rejected"))
		return
	}
	defer h.hub.Disconnect(client.ID)

	// Event loop. Read errors (close, transport failure) end the session;
	// per-operation errors only come back to the caller.
	for {
		var frame models.WSFrame
		if err := conn.ReadJSON(&frame); err != nil {
			h.log.Info("connection closed", zap.String("connectionId", client.ID), zap.Error(err))
			return
		}

		// Malformed or incomplete payloads come back to the caller as an
		// error frame; they never reach the hub as zero-valued operations.
		switch frame.Type {
		case "joinGroup":
			var op models.JoinGroup
			if err := decode(frame.Data, &op); err != nil || op.ResumeID == "" {
				_ = client.Send(errFrame("invalid_payload"))
				continue
			}
			h.apply(client, op.ResumeID, h.hub.Join(client.ID, op.ResumeID))

		case "leaveGroup":
			var op models.LeaveGroup
			if err := decode(frame.Data, &op); err != nil || op.ResumeID == "" {
				_ = client.Send(errFrame("invalid_payload"))
				continue
			}
			h.apply(client, op.ResumeID, h.hub.Leave(client.ID, op.ResumeID))

		case "updateContent":
			var op models.UpdateContent
			if err := decode(frame.Data, &op); err != nil || op.ResumeID == "" {
				_ = client.Send(errFrame("invalid_payload"))
				continue
			}
			h.apply(client, op.ResumeID, h.hub.UpdateContent(client.ID, op.ResumeID, op.Content, op.Section))

		case "setTyping":
			var op models.SetTyping
			if err := decode(frame.Data, &op); err != nil || op.ResumeID == "" {
				_ = client.Send(errFrame("invalid_payload"))
				continue
			}
			h.apply(client, op.ResumeID, h.hub.SetTyping(client.ID, op.ResumeID, op.Section, op.IsTyping))

		default:
			_ = client.Send(errFrame("unknown_type"))
		}
	}
}

// apply reports an operation failure to the caller only. Other group members
// never learn about it.
func (h *WSHandler) apply(client *session.Client, resumeID string, err error) {
	if err == nil {
		return
	}
	h.log.Warn("operation rejected",
		zap.String("connectionId", client.ID),
		zap.String("resumeId", resumeID),
		zap.Error(err))
	_ = client.Send(errFrame(err.Error()))
}

func decode(in any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func errFrame(msg string) models.WSFrame { return models.WSFrame{Type: models.EventError, Data: msg} }
