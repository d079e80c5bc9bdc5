// Package ws serves the browser activity socket. Each connection drives one
// activity detector and receives status frames back.
package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/activity"
	"github.com/spec-kit/counselor-presence/internal/auth"
	"github.com/spec-kit/counselor-presence/internal/domain"
	apperrors "github.com/spec-kit/counselor-presence/pkg/util/errorutil"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 8
)

// Authenticator resolves a bearer token.
type Authenticator interface {
	Authenticate(token string) (*auth.Principal, error)
}

// ClientFrame is sent by the browser for each interaction.
type ClientFrame struct {
	Type activity.EventKind `json:"type"`
}

// ServerFrame is pushed to the browser.
type ServerFrame struct {
	Type   string                `json:"type"`
	Status domain.PresenceStatus `json:"status,omitempty"`
	At     time.Time             `json:"at"`
}

// ActivityHandler upgrades counselor connections.
type ActivityHandler struct {
	authn    Authenticator
	recorder activity.Recorder
	logger   *zap.Logger
	opts     []activity.Option
	upgrader websocket.Upgrader
}

// NewActivityHandler builds the handler. opts configure every detector.
func NewActivityHandler(authn Authenticator, recorder activity.Recorder, logger *zap.Logger, opts ...activity.Option) *ActivityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityHandler{
		authn:    authn,
		recorder: recorder,
		logger:   logger,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *ActivityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, err := h.authn.Authenticate(tokenFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if !principal.IsCounselor() {
		writeError(w, apperrors.NewForbidden("activity socket is for counselors"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	send := make(chan ServerFrame, sendBuffer)
	push := func(status domain.PresenceStatus) {
		select {
		case send <- ServerFrame{Type: "status", Status: status, At: time.Now()}:
		default:
			h.logger.Debug("status frame dropped", zap.String("counselor_id", principal.SubjectID))
		}
	}

	opts := append(append([]activity.Option{}, h.opts...),
		activity.WithLogger(h.logger),
		activity.WithStatusHandler(push))
	detector := activity.Start(ctx, principal.SubjectID, h.recorder, opts...)
	defer detector.Close()
	push(detector.Status())

	h.logger.Info("activity socket opened", zap.String("counselor_id", principal.SubjectID))
	go h.writePump(ctx, conn, send)
	h.readPump(conn, detector)
	h.logger.Info("activity socket closed", zap.String("counselor_id", principal.SubjectID))
}

func (h *ActivityHandler) readPump(conn *websocket.Conn, detector *activity.Detector) {
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame ClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("activity socket read", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		detector.Observe(activity.EventKind(strings.ToLower(string(frame.Type))))
	}
}

func (h *ActivityHandler) writePump(ctx context.Context, conn *websocket.Conn, send <-chan ServerFrame) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func tokenFrom(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func writeError(w http.ResponseWriter, err error) {
	de := apperrors.ToDomainError(err)
	http.Error(w, de.Message, de.HTTPStatus)
}
