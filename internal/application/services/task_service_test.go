package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/domain/events"
	"github.com/taskmaster/tasksync/internal/ports"
)

func TestGuestQuota(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alex := h.user(t, "Alex", entities.UserRoleUser, true)

	first := h.task(t, alex, "Buy groceries")

	_, err := h.tasks.Create(ctx, alex, ports.CreateTaskRequest{Text: "Second task", Date: "2025-03-10"})
	wantErr(t, err, entities.ErrGuestTaskQuota)
	if de, ok := entities.AsDomainError(err); !ok || !de.RequiresRegistration {
		t.Errorf("quota error should ask for registration: %+v", err)
	}

	if _, err := h.comments.Add(ctx, alex, first.ID, ports.CommentRequest{Text: "on my way"}); err != nil {
		t.Fatalf("first comment: %v", err)
	}
	_, err = h.comments.Add(ctx, alex, first.ID, ports.CommentRequest{Text: "done"})
	wantErr(t, err, entities.ErrGuestCommentQuota)

	stored, err := h.store.Users().GetByID(ctx, alex.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.TasksCreated != 1 || stored.CommentsPosted != 1 {
		t.Errorf("counters = %d tasks, %d comments; want 1, 1", stored.TasksCreated, stored.CommentsPosted)
	}

	// registered users are never limited
	sam := h.user(t, "Sam", entities.UserRoleUser, false)
	for i := 0; i < 3; i++ {
		h.task(t, sam, "task")
	}
}

func TestCreateRequiresIdentity(t *testing.T) {
	h := newHarness(t)
	_, err := h.tasks.Create(context.Background(), entities.Actor{}, ports.CreateTaskRequest{Text: "x", Date: "2025-03-10"})
	wantKind(t, err, entities.KindUnauthenticated)
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)

	tests := []struct {
		name string
		req  ports.CreateTaskRequest
	}{
		{"missing text", ports.CreateTaskRequest{Date: "2025-03-10"}},
		{"blank text", ports.CreateTaskRequest{Text: "   ", Date: "2025-03-10"}},
		{"bad date", ports.CreateTaskRequest{Text: "x", Date: "10/03/2025"}},
		{"long text", ports.CreateTaskRequest{Text: strings.Repeat("a", 201), Date: "2025-03-10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.tasks.Create(context.Background(), owner, tt.req)
			wantKind(t, err, entities.KindValidation)
		})
	}
	if got := h.events.names(); len(got) != 0 {
		t.Errorf("rejected creates published %v", got)
	}
}

func TestCreatePublishesTaskAdded(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)

	created := h.task(t, owner, "Plan sprint")

	ev := h.events.last(t)
	if ev.Name != events.TaskAdded || ev.Scope != "2025-03-10" || ev.TaskID != created.ID {
		t.Errorf("event = %+v", ev)
	}
	if h.logs(t, entities.ActionTaskCreated) != 1 {
		t.Error("task creation not logged")
	}
}

func TestProgressCompletesTask(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	created := h.task(t, owner, "Ship release")

	task, err := h.tasks.UpdateProgress(ctx, owner, created.ID, 100)
	if err != nil {
		t.Fatalf("UpdateProgress() = %v", err)
	}
	if task.Status != entities.TaskStatusCompleted || task.CompletedAt == nil {
		t.Errorf("task not completed: status=%s completedAt=%v", task.Status, task.CompletedAt)
	}

	ev := h.events.last(t)
	payload, ok := ev.Payload.(events.ProgressPayload)
	if ev.Name != events.ProgressUpdated || !ok {
		t.Fatalf("event = %+v", ev)
	}
	if payload.Progress != 100 || payload.Status != entities.TaskStatusCompleted {
		t.Errorf("payload = %+v", payload)
	}

	task, err = h.tasks.UpdateProgress(ctx, owner, created.ID, 40)
	if err != nil {
		t.Fatalf("UpdateProgress(40) = %v", err)
	}
	if task.Status != entities.TaskStatusOngoing || task.Progress != 40 {
		t.Errorf("task not reopened: %s %d", task.Status, task.Progress)
	}

	// the reopen delta must clear completedAt downstream, not omit it
	raw, err := json.Marshal(h.events.last(t).Payload)
	if err != nil {
		t.Fatal(err)
	}
	var delta map[string]json.RawMessage
	if err := json.Unmarshal(raw, &delta); err != nil {
		t.Fatal(err)
	}
	if got, ok := delta["completedAt"]; !ok || string(got) != "null" {
		t.Errorf("completedAt = %s (present %v), want null", got, ok)
	}
	if got := string(delta["statusChangedBy"]); got != `"`+owner.ID.String()+`"` {
		t.Errorf("statusChangedBy = %s", got)
	}
	if _, ok := delta["statusChangedAt"]; !ok {
		t.Error("statusChangedAt missing")
	}
}

func TestStatusChangeCarriesSubTasks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	created := h.task(t, owner, "Checklist")
	for _, text := range []string{"draft", "review"} {
		if _, _, err := h.tasks.AddSubTask(ctx, owner, created.ID, text); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := h.tasks.ChangeStatus(ctx, owner, created.ID, entities.TaskStatusCompleted); err != nil {
		t.Fatalf("ChangeStatus() = %v", err)
	}
	ev := h.events.last(t)
	payload, ok := ev.Payload.(events.StatusPayload)
	if ev.Name != events.StatusChanged || !ok {
		t.Fatalf("event = %+v", ev)
	}
	if !payload.HasSubTasks || len(payload.SubTasks) != 2 {
		t.Fatalf("payload sub-tasks = %+v", payload.SubTasks)
	}
	for _, st := range payload.SubTasks {
		if !st.IsCompleted {
			t.Errorf("sub-task %q still open in the delta", st.Text)
		}
	}
	if payload.StatusChangedBy == nil || *payload.StatusChangedBy != owner.ID || payload.StatusChangedAt == nil {
		t.Errorf("status change not attributed: %+v", payload)
	}
}

func TestMutationAccess(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	other := h.user(t, "Bob", entities.UserRoleUser, false)
	admin := h.user(t, "Ada", entities.UserRoleAdmin, false)
	created := h.task(t, owner, "Shared work")

	text := "Renamed"
	tests := []struct {
		name  string
		actor entities.Actor
		kind  entities.ErrorKind
	}{
		{"owner", owner, ""},
		{"admin", admin, ""},
		{"other user", other, entities.KindForbidden},
		{"anonymous", entities.Actor{}, entities.KindUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.tasks.Update(context.Background(), tt.actor, created.ID, ports.UpdateTaskRequest{Text: &text})
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("Update() = %v", err)
				}
				return
			}
			wantKind(t, err, tt.kind)
		})
	}

	_, err := h.tasks.Archive(context.Background(), owner, created.ID)
	wantKind(t, err, entities.KindForbidden)
	archived, err := h.tasks.Archive(context.Background(), admin, created.ID)
	if err != nil || !archived.IsArchived {
		t.Fatalf("Archive() = %v, archived=%v", err, archived != nil && archived.IsArchived)
	}
}

func TestSubTasksDriveProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	created := h.task(t, owner, "Checklist")

	_, a, err := h.tasks.AddSubTask(ctx, owner, created.ID, "first")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := h.tasks.AddSubTask(ctx, owner, created.ID, "second"); err != nil {
		t.Fatal(err)
	}

	_, err = h.tasks.UpdateProgress(ctx, owner, created.ID, 70)
	wantErr(t, err, entities.ErrProgressDerived)

	task, st, err := h.tasks.CompleteSubTask(ctx, owner, created.ID, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !st.IsCompleted || task.Progress != 50 {
		t.Errorf("after one of two: completed=%v progress=%d", st.IsCompleted, task.Progress)
	}
	if ev := h.events.last(t); ev.Name != events.SubTaskCompleted {
		t.Errorf("last event = %s", ev.Name)
	}
}

func TestExtendDeadline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	created := h.task(t, owner, "No deadline yet")

	req := ports.ExtendDeadlineRequest{Amount: 2, Unit: entities.ExtensionUnitDays}
	_, _, err := h.tasks.ExtendDeadline(ctx, owner, created.ID, req)
	wantErr(t, err, entities.ErrNoDeadline)

	deadline := start.Add(time.Hour)
	if _, err := h.tasks.Update(ctx, owner, created.ID, ports.UpdateTaskRequest{Deadline: &deadline}); err != nil {
		t.Fatal(err)
	}
	task, ext, err := h.tasks.ExtendDeadline(ctx, owner, created.ID, req)
	if err != nil {
		t.Fatalf("ExtendDeadline() = %v", err)
	}
	if want := deadline.Add(48 * time.Hour); !task.Deadline.Equal(want) {
		t.Errorf("deadline = %s, want %s", task.Deadline, want)
	}
	if !ext.NewDeadline.Equal(*task.Deadline) || len(task.TimeExtensions) != 1 {
		t.Errorf("extension not recorded: %+v", ext)
	}
	if ev := h.events.last(t); ev.Name != events.DeadlineExtended {
		t.Errorf("last event = %s", ev.Name)
	}

	for _, amount := range []int{entities.MaxExtensionAmount + 1, 200_000_000_000} {
		_, _, err := h.tasks.ExtendDeadline(ctx, owner, created.ID, ports.ExtendDeadlineRequest{Amount: amount, Unit: entities.ExtensionUnitDays})
		wantKind(t, err, entities.KindValidation)
	}
	stored, err := h.tasks.Get(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Deadline.Equal(*task.Deadline) || len(stored.TimeExtensions) != 1 {
		t.Errorf("rejected extension changed the task: %v", stored.Deadline)
	}
}

func TestSweepDeadlines(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)

	deadline := start.Add(time.Hour)
	late, err := h.tasks.Create(ctx, owner, ports.CreateTaskRequest{Text: "late", Date: "2025-03-10", Deadline: &deadline})
	if err != nil {
		t.Fatal(err)
	}
	h.task(t, owner, "no deadline")

	h.advance(2 * time.Hour)
	moved, err := h.tasks.SweepDeadlines(ctx)
	if err != nil {
		t.Fatalf("SweepDeadlines() = %v", err)
	}
	if moved != 1 {
		t.Fatalf("moved = %d, want 1", moved)
	}
	stored, _ := h.store.Tasks().GetByID(ctx, late.ID)
	if stored.Status != entities.TaskStatusDelayed {
		t.Errorf("status = %s, want delayed", stored.Status)
	}
	if ev := h.events.last(t); ev.Name != events.StatusChanged || ev.TaskID != late.ID {
		t.Errorf("last event = %+v", ev)
	}

	// a second sweep finds nothing to move
	if moved, _ := h.tasks.SweepDeadlines(ctx); moved != 0 {
		t.Errorf("second sweep moved %d", moved)
	}
}

func TestDeleteCascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	created := h.task(t, owner, "Doomed")

	if _, err := h.comments.Add(ctx, owner, created.ID, ports.CommentRequest{Text: "note"}); err != nil {
		t.Fatal(err)
	}
	file, err := h.files.Upload(ctx, owner, Upload{
		TaskID:  created.ID,
		Name:    "notes.txt",
		Size:    11,
		Content: strings.NewReader("hello world"),
	})
	if err != nil {
		t.Fatalf("Upload() = %v", err)
	}
	blob := filepath.Join(h.uploadDir, file.StoredName)
	if _, err := os.Stat(blob); err != nil {
		t.Fatalf("blob not written: %v", err)
	}

	other := h.user(t, "Bob", entities.UserRoleUser, false)
	wantKind(t, h.tasks.Delete(ctx, other, created.ID), entities.KindForbidden)

	if err := h.tasks.Delete(ctx, owner, created.ID); err != nil {
		t.Fatalf("Delete() = %v", err)
	}

	_, err = h.store.Tasks().GetByID(ctx, created.ID)
	wantKind(t, err, entities.KindNotFound)
	if n, _ := h.store.Comments().Count(ctx); n != 0 {
		t.Errorf("%d comments left behind", n)
	}
	if _, err := h.store.Files().GetByID(ctx, file.ID); entities.KindOf(err) != entities.KindNotFound {
		t.Errorf("file record left behind: %v", err)
	}
	if _, err := os.Stat(blob); !os.IsNotExist(err) {
		t.Errorf("blob left behind: %v", err)
	}

	if ev := h.events.last(t); ev.Name != events.TaskDeleted {
		t.Errorf("last event = %s", ev.Name)
	}
	// the audit trail outlives the task
	if h.logs(t, entities.ActionTaskCreated) != 1 || h.logs(t, entities.ActionTaskDeleted) != 1 {
		t.Error("activity logs did not survive the delete")
	}
}

func TestCommentDeleteAccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	author := h.user(t, "Bob", entities.UserRoleUser, false)
	created := h.task(t, owner, "Discuss")

	comment, err := h.comments.Add(ctx, author, created.ID, ports.CommentRequest{Text: "my two cents"})
	if err != nil {
		t.Fatal(err)
	}

	// owning the task is not enough
	wantKind(t, h.comments.Delete(ctx, owner, created.ID, comment.ID), entities.KindForbidden)

	if err := h.comments.Delete(ctx, author, created.ID, comment.ID); err != nil {
		t.Fatalf("Delete() = %v", err)
	}
	if ev := h.events.last(t); ev.Name != events.CommentDeleted {
		t.Errorf("last event = %s", ev.Name)
	}
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	created := h.task(t, owner, "Attach")

	// a zip archive is not on the default allow-list
	zip := []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00")
	_, err := h.files.Upload(context.Background(), owner, Upload{
		TaskID:  created.ID,
		Name:    "archive.zip",
		Size:    int64(len(zip)),
		Content: strings.NewReader(string(zip)),
	})
	wantErr(t, err, entities.ErrFileTypeNotAllowed)

	entries, _ := os.ReadDir(h.uploadDir)
	if len(entries) != 0 {
		t.Errorf("rejected upload left %d blobs", len(entries))
	}
}

func TestListPaginates(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	for i := 0; i < 5; i++ {
		h.task(t, owner, "task")
	}

	page, err := h.tasks.List(context.Background(), ports.TaskFilter{}, 2, 2)
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if page.Total != 5 || page.TotalPages != 3 || page.CurrentPage != 2 || len(page.Items) != 2 {
		t.Errorf("page = total %d, pages %d, current %d, items %d", page.Total, page.TotalPages, page.CurrentPage, len(page.Items))
	}
}
