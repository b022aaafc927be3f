package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/ports"
)

// Inbound message types
const (
	MsgJoin            = "join"
	MsgSubscribe       = "subscribe"
	MsgUnsubscribe     = "unsubscribe"
	MsgRequestTaskList = "requestTaskList"
	MsgAddTask         = "addTask"
	MsgUpdateProgress  = "updateProgress"
	MsgChangeStatus    = "changeStatus"
	MsgAddSubTask      = "addSubTask"
	MsgCompleteSubTask = "completeSubTask"
	MsgExtendDeadline  = "extendDeadline"
	MsgAddComment      = "addComment"
	MsgDeleteTask      = "deleteTask"
)

// Outbound message types not covered by delta events
const (
	MsgJoined      = "joined"
	MsgActiveUsers = "activeUsers"
	MsgTaskList    = "taskList"
	MsgError       = "error"
)

// Frame is the JSON envelope of every message in both directions.
type Frame struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

type outFrame struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	RequestID string `json:"requestId,omitempty"`
}

func encode(typ string, data any, requestID string) ([]byte, error) {
	return json.Marshal(outFrame{Type: typ, Data: data, RequestID: requestID})
}

type joinMessage struct {
	Token     string `json:"token"`
	GuestName string `json:"guestName"`
}

type dateMessage struct {
	Date string `json:"date"`
}

type addTaskMessage struct {
	Date string                  `json:"date"`
	Task ports.CreateTaskRequest `json:"task"`
}

type progressMessage struct {
	Date     string    `json:"date"`
	TaskID   uuid.UUID `json:"taskId"`
	Progress int       `json:"progress"`
}

type statusMessage struct {
	Date   string              `json:"date"`
	TaskID uuid.UUID           `json:"taskId"`
	Status entities.TaskStatus `json:"status"`
}

type subTaskMessage struct {
	Date      string    `json:"date"`
	TaskID    uuid.UUID `json:"taskId"`
	Text      string    `json:"text"`
	SubTaskID uuid.UUID `json:"subTaskId"`
}

type extendMessage struct {
	Date   string                 `json:"date"`
	TaskID uuid.UUID              `json:"taskId"`
	Amount int                    `json:"amount"`
	Unit   entities.ExtensionUnit `json:"unit"`
	Reason *string                `json:"reason"`
}

type commentMessage struct {
	Date        string    `json:"date"`
	TaskID      uuid.UUID `json:"taskId"`
	CommentText string    `json:"commentText"`
}

type taskMessage struct {
	Date   string    `json:"date"`
	TaskID uuid.UUID `json:"taskId"`
}

type joinedPayload struct {
	User  *entities.User `json:"user"`
	Token string         `json:"token,omitempty"`
}

type taskListPayload struct {
	Date  string               `json:"date"`
	Tasks []*ports.TaskDetails `json:"tasks"`
}

// ErrorPayload is sent to the originating session only.
type ErrorPayload struct {
	Code                 string                `json:"code"`
	Message              string                `json:"message"`
	RequiresRegistration bool                  `json:"requiresRegistration,omitempty"`
	Fields               []entities.FieldError `json:"errors,omitempty"`
}

// PresenceEntry describes one joined session.
type PresenceEntry struct {
	SessionID string            `json:"sessionId"`
	Name      string            `json:"name"`
	Role      entities.UserRole `json:"role"`
	IsGuest   bool              `json:"isGuest"`
	JoinedAt  time.Time         `json:"joinedAt"`
}

func errorPayload(err error) ErrorPayload {
	if de, ok := entities.AsDomainError(err); ok {
		return ErrorPayload{
			Code:                 string(de.Kind),
			Message:              de.Message,
			RequiresRegistration: de.RequiresRegistration,
			Fields:               de.Fields,
		}
	}
	return ErrorPayload{Code: "internal", Message: "Internal server error"}
}
