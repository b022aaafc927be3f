package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/taskmaster/tasksync/internal/ports"
)

var (
	_ ports.TaskRepository        = (*TaskRepository)(nil)
	_ ports.CommentRepository     = (*CommentRepository)(nil)
	_ ports.FileRepository        = (*FileRepository)(nil)
	_ ports.ShareLinkRepository   = (*ShareLinkRepository)(nil)
	_ ports.ActivityLogRepository = (*ActivityLogRepository)(nil)
	_ ports.SettingsRepository    = (*SettingsRepository)(nil)
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// idArray converts ids into a postgres text array usable with "= ANY($n::uuid[])".
func idArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// whereBuilder accumulates numbered conditions for dynamic filters.
type whereBuilder struct {
	conditions []string
	args       []interface{}
}

func (w *whereBuilder) add(format string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conditions = append(w.conditions, fmt.Sprintf(format, len(w.args)))
}

func (w *whereBuilder) raw(condition string) {
	w.conditions = append(w.conditions, condition)
}

func (w *whereBuilder) clause() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conditions, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns them.
func (w *whereBuilder) page(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	w.args = append(w.args, limit, offset)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(w.args)-1, len(w.args))
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
