package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestContextHelpersAddFields(t *testing.T) {
	log, logs := observed()

	log.WithRequestID("req-7").WithUserID("u-1").WithError(errors.New("boom")).Errorw("Request failed")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	fields := entries[0].ContextMap()
	want := map[string]string{"request_id": "req-7", "user_id": "u-1", "error": "boom"}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("%s = %v, want %s", k, fields[k], v)
		}
	}
}

func TestLogHTTPRequest(t *testing.T) {
	log, logs := observed()

	log.LogHTTPRequest("GET", "/api/tasks", "curl/8", "10.0.0.1", 200, 1.5)

	entries := logs.FilterMessage("HTTP request").All()
	if len(entries) != 1 || entries[0].Level != zapcore.InfoLevel {
		t.Fatalf("entries = %+v", logs.All())
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/api/tasks" || fields["status_code"] != int64(200) || fields["ip"] != "10.0.0.1" {
		t.Errorf("fields = %v", fields)
	}
}

func TestLogUserAction(t *testing.T) {
	log, logs := observed()

	log.LogUserAction("u-1", "task_created", map[string]interface{}{"target_type": "task"})

	entries := logs.FilterMessage("User action").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %+v", logs.All())
	}
	fields := entries[0].ContextMap()
	if fields["user_id"] != "u-1" || fields["action"] != "task_created" || fields["target_type"] != "task" {
		t.Errorf("fields = %v", fields)
	}
}

func TestLogBroadcastWarnsOnDrops(t *testing.T) {
	log, logs := observed()

	log.LogBroadcast("taskAdded", "2025-03-10", 3, 0)
	log.LogBroadcast("taskAdded", "2025-03-10", 2, 1)

	if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != 1 {
		t.Errorf("warnings = %d, want 1", n)
	}
	if n := logs.FilterLevelExact(zapcore.DebugLevel).Len(); n != 1 {
		t.Errorf("debug entries = %d, want 1", n)
	}
}
