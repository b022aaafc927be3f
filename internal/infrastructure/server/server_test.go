package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/tasksync/internal/adapters/repository/memory"
	"github.com/taskmaster/tasksync/internal/adapters/storage"
	"github.com/taskmaster/tasksync/internal/application/services"
	"github.com/taskmaster/tasksync/internal/application/validation"
	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/infrastructure/config"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/infrastructure/metrics"
	"github.com/taskmaster/tasksync/internal/realtime"
)

type testServer struct {
	handler http.Handler
	store   *memory.Store
	auth    *services.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		App:      config.AppConfig{Name: "tasksync", Version: "test", BaseURL: "http://localhost:3000"},
		Security: config.SecurityConfig{CORSAllowedOrigins: "*", BcryptCost: bcrypt.MinCost},
		JWT:      config.JWTConfig{Secret: "server-test-secret", ExpiresIn: time.Hour, Issuer: "tasksync-test"},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Realtime: config.RealtimeConfig{SendBuffer: 16, WriteWait: time.Second, PongWait: time.Second, MaxMessageBytes: 1 << 16},
	}

	store := memory.NewStore()
	log := logger.NewNop()
	m := metrics.New()
	v := validation.New()
	blobs, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	hub := realtime.NewHub(log, m)

	settingsSvc := services.NewSettingsService(store.Settings())
	activitySvc := services.NewActivityService(store.ActivityLogs(), settingsSvc, log)
	quota := services.NewQuotaGate(store.Users(), settingsSvc, m, log)
	taskSvc := services.NewTaskService(services.TaskDeps{
		Tasks:       store.Tasks(),
		Comments:    store.Comments(),
		Files:       store.Files(),
		Storage:     blobs,
		Quota:       quota,
		Activity:    activitySvc,
		Broadcaster: hub,
		Validator:   v,
		Logger:      log,
	})
	commentSvc := services.NewCommentService(taskSvc, store.Comments(), quota, activitySvc, v)
	fileSvc := services.NewFileService(taskSvc, store.Files(), store.Comments(), blobs, settingsSvc, activitySvc, log)
	shareSvc := services.NewShareService(store.ShareLinks(), taskSvc, commentSvc, fileSvc, activitySvc, v, log, cfg.App.BaseURL)
	authSvc := services.NewAuthService(store.Users(), settingsSvc, activitySvc, v, cfg.JWT, cfg.Security.BcryptCost, log)
	adminSvc := services.NewAdminService(services.AdminDeps{
		Users:     store.Users(),
		Tasks:     store.Tasks(),
		Comments:  store.Comments(),
		Files:     store.Files(),
		Logs:      store.ActivityLogs(),
		TaskSvc:   taskSvc,
		Settings:  settingsSvc,
		Activity:  activitySvc,
		Validator: v,
		Logger:    log,
	})

	srv := New(Options{
		Config:    cfg,
		Logger:    log,
		Metrics:   m,
		Validator: v,
		Services: Services{
			Auth:     authSvc,
			Tasks:    taskSvc,
			Comments: commentSvc,
			Files:    fileSvc,
			Shares:   shareSvc,
			Admin:    adminSvc,
			Settings: settingsSvc,
		},
		Realtime: realtime.NewHandler(hub, taskSvc, commentSvc, authSvc, settingsSvc, cfg.Realtime, log),
		Hub:      hub,
		Checks: map[string]HealthCheck{
			"memory": func(context.Context) error { return nil },
		},
	})
	return &testServer{handler: srv.Handler(), store: store, auth: authSvc}
}

type response struct {
	status int
	body   map[string]any
}

func (r response) str(path ...string) string {
	var cur any = r.body
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[p]
	}
	s, _ := cur.(string)
	return s
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	resp := response{status: rec.Code}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp.body); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return resp
}

func (ts *testServer) register(t *testing.T, name, email string) string {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "Secret@123",
	})
	if resp.status != http.StatusCreated {
		t.Fatalf("register %s: %d %v", email, resp.status, resp.body)
	}
	return resp.str("token")
}

// admin stores an administrator directly and logs it in over HTTP.
func (ts *testServer) admin(t *testing.T) string {
	t.Helper()
	hash, err := ts.auth.HashPassword("Secret@123")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now().UTC()
	user := &entities.User{
		ID:           uuid.New(),
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: hash,
		Role:         entities.UserRoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := ts.store.Users().Create(context.Background(), user); err != nil {
		t.Fatal(err)
	}
	resp := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "Secret@123",
	})
	if resp.status != http.StatusOK {
		t.Fatalf("admin login: %d %v", resp.status, resp.body)
	}
	return resp.str("token")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/health", "", nil)
	if resp.status != http.StatusOK || resp.str("status") != "ok" {
		t.Errorf("health = %d %v", resp.status, resp.body)
	}
	ready := ts.do(t, http.MethodGet, "/health/ready", "", nil)
	if ready.status != http.StatusOK || ready.str("checks", "memory") != "ok" {
		t.Errorf("ready = %d %v", ready.status, ready.body)
	}
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Olivia", "olivia@example.com")

	me := ts.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if me.status != http.StatusOK || me.str("user", "email") != "olivia@example.com" {
		t.Errorf("me = %d %v", me.status, me.body)
	}

	dup := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Other", "email": "olivia@example.com", "password": "Secret@123",
	})
	if dup.status != http.StatusConflict || dup.body["success"] != false {
		t.Errorf("duplicate register = %d %v", dup.status, dup.body)
	}

	bad := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "olivia@example.com", "password": "Wrong@123",
	})
	if bad.status != http.StatusUnauthorized {
		t.Errorf("bad login = %d", bad.status)
	}

	weak := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Weak", "email": "weak@example.com", "password": "short",
	})
	if weak.status != http.StatusBadRequest || weak.body["errors"] == nil {
		t.Errorf("weak password = %d %v", weak.status, weak.body)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage token", "garbage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodGet, "/api/v1/tasks", tt.token, nil)
			if resp.status != http.StatusUnauthorized {
				t.Errorf("status = %d", resp.status)
			}
		})
	}
}

func TestGuestQuotaOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	guest := ts.do(t, http.MethodPost, "/api/v1/auth/guest", "", map[string]string{"name": "Alex"})
	if guest.status != http.StatusCreated || guest.body["guestLimits"] == nil {
		t.Fatalf("guest = %d %v", guest.status, guest.body)
	}
	token := guest.str("token")

	first := ts.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]string{"text": "Buy groceries", "date": "2025-03-10"})
	if first.status != http.StatusCreated || first.str("task", "text") != "Buy groceries" {
		t.Fatalf("create = %d %v", first.status, first.body)
	}

	second := ts.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]string{"text": "Second", "date": "2025-03-10"})
	if second.status != http.StatusForbidden || second.body["requiresRegistration"] != true {
		t.Errorf("second create = %d %v", second.status, second.body)
	}

	list := ts.do(t, http.MethodGet, "/api/v1/tasks?date=2025-03-10", token, nil)
	if list.status != http.StatusOK {
		t.Errorf("list = %d %v", list.status, list.body)
	}
}

func TestShareLinkOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Olivia", "olivia@example.com")

	created := ts.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]string{"text": "Shared", "date": "2025-03-10"})
	taskID := created.str("task", "id")

	link := ts.do(t, http.MethodPost, "/api/v1/share", token, map[string]any{"taskId": taskID})
	if link.status != http.StatusOK {
		t.Fatalf("share = %d %v", link.status, link.body)
	}
	shareToken := link.str("shareLink", "shareToken")
	if shareToken == "" {
		t.Fatalf("no token in %v", link.body)
	}

	view := ts.do(t, http.MethodGet, "/api/v1/share/"+shareToken, "", nil)
	if view.status != http.StatusOK || view.str("task", "text") != "Shared" || view.body["isOwner"] != false {
		t.Errorf("anonymous view = %d %v", view.status, view.body)
	}

	missing := ts.do(t, http.MethodGet, "/api/v1/share/nope", "", nil)
	if missing.status != http.StatusNotFound {
		t.Errorf("unknown token = %d", missing.status)
	}
}

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t)
	user := ts.register(t, "Olivia", "olivia@example.com")

	if resp := ts.do(t, http.MethodGet, "/api/v1/admin/users", user, nil); resp.status != http.StatusForbidden {
		t.Errorf("non-admin = %d", resp.status)
	}

	admin := ts.admin(t)
	resp := ts.do(t, http.MethodGet, "/api/v1/admin/stats", admin, nil)
	if resp.status != http.StatusOK {
		t.Errorf("stats = %d %v", resp.status, resp.body)
	}
}

func TestMaintenanceMode(t *testing.T) {
	ts := newTestServer(t)
	user := ts.register(t, "Olivia", "olivia@example.com")
	admin := ts.admin(t)

	resp := ts.do(t, http.MethodPut, "/api/v1/admin/settings", admin, map[string]any{
		"maintenance": map[string]any{"enabled": true, "message": "Back at noon"},
	})
	if resp.status != http.StatusOK {
		t.Fatalf("update settings = %d %v", resp.status, resp.body)
	}

	blocked := ts.do(t, http.MethodGet, "/api/v1/tasks", user, nil)
	if blocked.status != http.StatusServiceUnavailable || blocked.str("message") != "Back at noon" {
		t.Errorf("user during maintenance = %d %v", blocked.status, blocked.body)
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
	}{
		{"public settings", http.MethodGet, "/api/v1/settings/public", "", nil},
		{"login", http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "olivia@example.com", "password": "Secret@123"}},
		{"me", http.MethodGet, "/api/v1/auth/me", user, nil},
		{"admin", http.MethodGet, "/api/v1/tasks", admin, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := ts.do(t, tt.method, tt.path, tt.token, tt.body); resp.status != http.StatusOK {
				t.Errorf("status = %d %v", resp.status, resp.body)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/health", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Errorf("metrics = %d", rec.Code)
	}
}
