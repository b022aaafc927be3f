package commands

import (
	"context"
	"fmt"

	"github.com/taskmaster/tasksync/internal/adapters/repository"
	"github.com/taskmaster/tasksync/internal/adapters/repository/memory"
	"github.com/taskmaster/tasksync/internal/adapters/storage"
	"github.com/taskmaster/tasksync/internal/application/services"
	"github.com/taskmaster/tasksync/internal/application/validation"
	"github.com/taskmaster/tasksync/internal/infrastructure/cache"
	"github.com/taskmaster/tasksync/internal/infrastructure/config"
	"github.com/taskmaster/tasksync/internal/infrastructure/database"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/infrastructure/metrics"
	"github.com/taskmaster/tasksync/internal/infrastructure/scheduler"
	"github.com/taskmaster/tasksync/internal/infrastructure/server"
	"github.com/taskmaster/tasksync/internal/ports"
	"github.com/taskmaster/tasksync/internal/realtime"
)

// repositories is the persistence backend chosen at startup.
type repositories struct {
	users    ports.UserRepository
	tasks    ports.TaskRepository
	comments ports.CommentRepository
	files    ports.FileRepository
	links    ports.ShareLinkRepository
	logs     ports.ActivityLogRepository
	settings ports.SettingsRepository
}

func postgresRepositories(db *database.DB) repositories {
	return repositories{
		users:    repository.NewUserRepository(db),
		tasks:    repository.NewTaskRepository(db),
		comments: repository.NewCommentRepository(db),
		files:    repository.NewFileRepository(db),
		links:    repository.NewShareLinkRepository(db),
		logs:     repository.NewActivityLogRepository(db),
		settings: repository.NewSettingsRepository(db),
	}
}

func memoryRepositories() repositories {
	store := memory.NewStore()
	return repositories{
		users:    store.Users(),
		tasks:    store.Tasks(),
		comments: store.Comments(),
		files:    store.Files(),
		links:    store.ShareLinks(),
		logs:     store.ActivityLogs(),
		settings: store.Settings(),
	}
}

// app holds every long-lived component of the serve command.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *database.DB
	redis     *cache.Redis
	hub       *realtime.Hub
	relay     *realtime.Relay
	scheduler *scheduler.Scheduler
	server    *server.Server
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, inMemory bool) (*app, error) {
	a := &app{cfg: cfg, log: log}
	checks := map[string]server.HealthCheck{}

	var repos repositories
	if inMemory {
		log.Warnw("Running with in-memory storage, data is lost on exit")
		repos = memoryRepositories()
	} else {
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		checks["database"] = db.HealthCheck

		applied, err := db.MigrateUp()
		if err != nil {
			a.close()
			return nil, err
		}
		log.Infow("Database schema ready", "migrated", applied)
		repos = postgresRepositories(db)
	}

	blobs, err := storage.NewLocal(cfg.Storage.UploadDir)
	if err != nil {
		a.close()
		return nil, err
	}

	m := metrics.New()
	v := validation.New()
	a.hub = realtime.NewHub(log, m)

	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			a.close()
			return nil, err
		}
		a.redis = rdb
		checks["redis"] = rdb.HealthCheck
		a.relay = realtime.NewRelay(rdb.Client, cfg.Redis.Channel, a.hub, log, m)
		a.hub.SetForwarder(a.relay)
	}

	settingsSvc := services.NewSettingsService(repos.settings)
	activitySvc := services.NewActivityService(repos.logs, settingsSvc, log)
	quota := services.NewQuotaGate(repos.users, settingsSvc, m, log)
	taskSvc := services.NewTaskService(services.TaskDeps{
		Tasks:       repos.tasks,
		Comments:    repos.comments,
		Files:       repos.files,
		Storage:     blobs,
		Quota:       quota,
		Activity:    activitySvc,
		Broadcaster: a.hub,
		Validator:   v,
		Logger:      log,
	})
	commentSvc := services.NewCommentService(taskSvc, repos.comments, quota, activitySvc, v)
	fileSvc := services.NewFileService(taskSvc, repos.files, repos.comments, blobs, settingsSvc, activitySvc, log)
	shareSvc := services.NewShareService(repos.links, taskSvc, commentSvc, fileSvc, activitySvc, v, log, cfg.App.BaseURL)
	authSvc := services.NewAuthService(repos.users, settingsSvc, activitySvc, v, cfg.JWT, cfg.Security.BcryptCost, log)
	adminSvc := services.NewAdminService(services.AdminDeps{
		Users:     repos.users,
		Tasks:     repos.tasks,
		Comments:  repos.comments,
		Files:     repos.files,
		Logs:      repos.logs,
		TaskSvc:   taskSvc,
		Settings:  settingsSvc,
		Activity:  activitySvc,
		Validator: v,
		Logger:    log,
	})

	a.scheduler = scheduler.New(log,
		scheduler.Job{
			Name:     "deadline_sweep",
			Interval: cfg.Scheduler.DeadlineSweepInterval,
			Run: func(ctx context.Context) error {
				_, err := taskSvc.SweepDeadlines(ctx)
				return err
			},
		},
		scheduler.Job{
			Name:     "activity_purge",
			Interval: cfg.Scheduler.PurgeInterval,
			Run: func(ctx context.Context) error {
				_, err := activitySvc.Purge(ctx, cfg.Scheduler.ActivityRetention)
				return err
			},
		},
	)

	a.server = server.New(server.Options{
		Config:    cfg,
		Logger:    log,
		Metrics:   m,
		Validator: v,
		Services: server.Services{
			Auth:     authSvc,
			Tasks:    taskSvc,
			Comments: commentSvc,
			Files:    fileSvc,
			Shares:   shareSvc,
			Admin:    adminSvc,
			Settings: settingsSvc,
		},
		Realtime: realtime.NewHandler(a.hub, taskSvc, commentSvc, authSvc, settingsSvc, cfg.Realtime, log),
		Hub:      a.hub,
		Checks:   checks,
	})
	return a, nil
}

// start launches the background loops. They stop when ctx is done.
func (a *app) start(ctx context.Context) {
	if a.relay != nil {
		go func() {
			if err := a.relay.Run(ctx); err != nil {
				a.log.Errorw("Event relay stopped", "error", err)
			}
		}()
	}
	a.scheduler.Start(ctx)
}

func (a *app) close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warnw("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warnw("Failed to close database", "error", err)
		}
	}
}

func (a *app) String() string {
	return fmt.Sprintf("%s %s (%s)", a.cfg.App.Name, a.cfg.App.Version, a.cfg.App.Environment)
}
