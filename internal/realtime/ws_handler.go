package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/taskmaster/tasksync/internal/application/services"
	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/infrastructure/config"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/ports"
)

var errRateLimited = &entities.DomainError{Kind: "rate_limited", Message: "Too many messages, slow down"}

// Handler serves the websocket push channel. Mutations go through the same
// services as the REST API; their results reach the sender through the
// broadcast like every other subscriber.
type Handler struct {
	hub      *Hub
	tasks    *services.TaskService
	comments *services.CommentService
	auth     *services.AuthService
	settings *services.SettingsService
	cfg      config.RealtimeConfig
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

func NewHandler(hub *Hub, tasks *services.TaskService, comments *services.CommentService, auth *services.AuthService, settings *services.SettingsService, cfg config.RealtimeConfig, logger *logger.Logger) *Handler {
	h := &Handler{
		hub:      hub,
		tasks:    tasks,
		comments: comments,
		auth:     auth,
		settings: settings,
		cfg:      cfg,
		logger:   logger.WithComponent("realtime"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	allowed := strings.TrimSpace(h.cfg.AllowedOrigins)
	if allowed == "" || allowed == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range strings.Split(allowed, ",") {
		if strings.EqualFold(strings.TrimSpace(o), origin) {
			return true
		}
	}
	return false
}

// Handle upgrades the request and runs the session until it disconnects.
func (h *Handler) Handle(c echo.Context) error {
	req := c.Request()
	features, err := h.settings.Features(req.Context())
	if err != nil {
		return err
	}
	if !features.EnableRealTimeSync {
		return entities.ErrRealtimeDisabled
	}

	conn, err := h.upgrader.Upgrade(c.Response(), req, nil)
	if err != nil {
		// the upgrader already answered the client
		h.logger.Debugw("Websocket upgrade failed", "error", err)
		return nil
	}

	s := NewSession(h.cfg.SendBuffer)
	h.hub.Register(s)
	log := h.logger.WithSession(s.ID)
	log.Debugw("Session connected", "ip", c.RealIP())

	ctx := ports.WithRequestMeta(context.WithoutCancel(req.Context()), ports.RequestMeta{
		IPAddress: c.RealIP(),
		UserAgent: req.UserAgent(),
	})

	go h.writePump(conn, s)
	h.readPump(ctx, conn, s)

	h.hub.Unregister(s)
	_ = conn.Close()
	log.Debugw("Session disconnected")
	return nil
}

func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, s *Session) {
	conn.SetReadLimit(h.cfg.MaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	limiter := rate.NewLimiter(rate.Limit(h.cfg.MessagesPerSec), h.cfg.MessageBurst)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debugw("Websocket closed unexpectedly", "session_id", s.ID, "error", err)
			}
			return
		}
		if !limiter.Allow() {
			h.replyError(s, "", errRateLimited)
			continue
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			h.replyError(s, "", entities.NewValidationError("Malformed message"))
			continue
		}
		h.Dispatch(ctx, s, f)
	}
}

func (h *Handler) writePump(conn *websocket.Conn, s *Session) {
	ticker := time.NewTicker(h.cfg.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Dispatch handles one inbound frame. Failures are reported to s only.
func (h *Handler) Dispatch(ctx context.Context, s *Session, f Frame) {
	if err := h.dispatch(ctx, s, f); err != nil {
		h.replyError(s, f.RequestID, err)
	}
}

func (h *Handler) dispatch(ctx context.Context, s *Session, f Frame) error {
	if f.Type == MsgJoin {
		return h.join(ctx, s, f)
	}

	// everything past join, reads included, needs an identity
	actor, err := h.actor(ctx, s)
	if err != nil {
		return err
	}

	switch f.Type {
	case MsgSubscribe:
		var m dateMessage
		if err := decode(f, &m); err != nil {
			return err
		}
		return h.subscribe(s, m.Date)
	case MsgUnsubscribe:
		var m dateMessage
		if err := decode(f, &m); err != nil {
			return err
		}
		h.hub.Unsubscribe(s, m.Date)
		return nil
	case MsgRequestTaskList:
		var m dateMessage
		if err := decode(f, &m); err != nil {
			return err
		}
		if err := h.subscribe(s, m.Date); err != nil {
			return err
		}
		tasks, err := h.tasks.ForDate(ctx, m.Date)
		if err != nil {
			return err
		}
		return h.reply(s, MsgTaskList, taskListPayload{Date: m.Date, Tasks: tasks}, f.RequestID)
	}

	switch f.Type {
	case MsgAddTask:
		var m addTaskMessage
		if err := decode(f, &m); err != nil {
			return err
		}
		if m.Task.Date == "" {
			m.Task.Date = m.Date
		}
		if err := h.subscribe(s, m.Task.Date); err != nil {
			return err
		}
		_, err := h.tasks.Create(ctx, actor, m.Task)
		return err

	case MsgUpdateProgress:
		var m progressMessage
		if err := h.decodeScoped(ctx, s, f, &m, &m.TaskID); err != nil {
			return err
		}
		_, err := h.tasks.UpdateProgress(ctx, actor, m.TaskID, m.Progress)
		return err

	case MsgChangeStatus:
		var m statusMessage
		if err := h.decodeScoped(ctx, s, f, &m, &m.TaskID); err != nil {
			return err
		}
		_, err := h.tasks.ChangeStatus(ctx, actor, m.TaskID, m.Status)
		return err

	case MsgAddSubTask:
		var m subTaskMessage
		if err := h.decodeScoped(ctx, s, f, &m, &m.TaskID); err != nil {
			return err
		}
		_, _, err := h.tasks.AddSubTask(ctx, actor, m.TaskID, m.Text)
		return err

	case MsgCompleteSubTask:
		var m subTaskMessage
		if err := h.decodeScoped(ctx, s, f, &m, &m.TaskID); err != nil {
			return err
		}
		if m.SubTaskID == uuid.Nil {
			return entities.NewValidationError("subTaskId is required")
		}
		_, _, err := h.tasks.CompleteSubTask(ctx, actor, m.TaskID, m.SubTaskID)
		return err

	case MsgExtendDeadline:
		var m extendMessage
		if err := h.decodeScoped(ctx, s, f, &m, &m.TaskID); err != nil {
			return err
		}
		_, _, err := h.tasks.ExtendDeadline(ctx, actor, m.TaskID, ports.ExtendDeadlineRequest{
			Amount: m.Amount,
			Unit:   m.Unit,
			Reason: m.Reason,
		})
		return err

	case MsgAddComment:
		var m commentMessage
		if err := h.decodeScoped(ctx, s, f, &m, &m.TaskID); err != nil {
			return err
		}
		_, err := h.comments.Add(ctx, actor, m.TaskID, ports.CommentRequest{Text: m.CommentText})
		return err

	case MsgDeleteTask:
		var m taskMessage
		if err := h.decodeScoped(ctx, s, f, &m, &m.TaskID); err != nil {
			return err
		}
		return h.tasks.Delete(ctx, actor, m.TaskID)
	}

	return entities.NewValidationError("Unknown message type: " + f.Type)
}

func (h *Handler) join(ctx context.Context, s *Session, f Frame) error {
	var m joinMessage
	if len(f.Data) > 0 {
		if err := decode(f, &m); err != nil {
			return err
		}
	}

	var payload joinedPayload
	if m.Token != "" {
		user, err := h.auth.Authenticate(ctx, m.Token)
		if err != nil {
			return err
		}
		payload.User = user
	} else {
		resp, err := h.auth.JoinGuest(ctx, ports.GuestRequest{Name: m.GuestName})
		if err != nil {
			return err
		}
		payload.User, payload.Token = resp.User, resp.Token
	}

	if err := h.reply(s, MsgJoined, payload, f.RequestID); err != nil {
		return err
	}
	h.hub.Join(s, payload.User)
	return nil
}

// actor reloads the joined user so suspensions apply to open sessions.
func (h *Handler) actor(ctx context.Context, s *Session) (entities.Actor, error) {
	joined, ok := s.Actor()
	if !ok {
		return entities.Actor{}, entities.ErrUnauthenticated
	}
	user, err := h.auth.Me(ctx, joined.ID)
	if err != nil {
		if entities.KindOf(err) == entities.KindNotFound {
			return entities.Actor{}, entities.ErrUnauthenticated
		}
		return entities.Actor{}, err
	}
	if err := user.CheckAccess(); err != nil {
		return entities.Actor{}, err
	}
	return entities.ActorFromUser(user), nil
}

func (h *Handler) subscribe(s *Session, date string) error {
	if !entities.IsCalendarDate(date) {
		return entities.NewValidationError("Validation failed",
			entities.FieldError{Field: "date", Message: "Date must be a calendar day (YYYY-MM-DD)"})
	}
	h.hub.Subscribe(s, date)
	return nil
}

// decodeScoped decodes a mutation and subscribes the sender to the date of
// the task it targets before the mutation runs. The date the client sent
// is not trusted.
func (h *Handler) decodeScoped(ctx context.Context, s *Session, f Frame, v any, taskID *uuid.UUID) error {
	if err := decode(f, v); err != nil {
		return err
	}
	if *taskID == uuid.Nil {
		return entities.NewValidationError("taskId is required")
	}
	date, err := h.tasks.DateOf(ctx, *taskID)
	if err != nil {
		return err
	}
	h.hub.Subscribe(s, date)
	return nil
}

func decode(f Frame, v any) error {
	if len(f.Data) == 0 {
		return entities.NewValidationError("Message data is required")
	}
	if err := json.Unmarshal(f.Data, v); err != nil {
		return entities.NewValidationError("Malformed message data")
	}
	return nil
}

func (h *Handler) reply(s *Session, typ string, data any, requestID string) error {
	frame, err := encode(typ, data, requestID)
	if err != nil {
		return err
	}
	if !h.hub.SendTo(s, frame) {
		h.logger.Warnw("Reply dropped for slow session", "session_id", s.ID, "type", typ)
	}
	return nil
}

func (h *Handler) replyError(s *Session, requestID string, err error) {
	payload := errorPayload(err)
	if payload.Code == "internal" {
		h.logger.Errorw("Push-channel request failed", "session_id", s.ID, "error", err)
	}
	if rerr := h.reply(s, MsgError, payload, requestID); rerr != nil {
		h.logger.Errorw("Failed to encode error reply", "error", rerr)
	}
}
