package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/sorvide-admin/internal/config"
	"github.com/makkenzo/sorvide-admin/internal/tasks"
	"go.uber.org/zap"
)

// Handlers are the task processors the worker serves.
type Handlers struct {
	Digest *tasks.DigestHandler
	Prune  *tasks.AuditPruneHandler
}

func NewServeMux(h Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeDashboardDigest, h.Digest.ProcessTask)
	mux.HandleFunc(tasks.TypeAuditPrune, h.Prune.ProcessTask)
	return mux
}

// Run starts the asynq server and scheduler and blocks until ctx is done.
func Run(ctx context.Context, cfg *config.Config, h Handlers, logger *zap.Logger) error {
	redisConnOpts := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	concurrency := cfg.Worker.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	srv := asynq.NewServer(
		redisConnOpts,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 3,
				"low":     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Named("AsynqServerErrorHandler").Error("Asynq task processing failed",
					zap.String("task_type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err),
				)
			}),
			Logger: NewAsynqLoggerAdapter(logger.Named("AsynqServer")),
		},
	)

	scheduler := asynq.NewScheduler(
		redisConnOpts,
		&asynq.SchedulerOpts{
			Logger: NewAsynqLoggerAdapter(logger.Named("AsynqScheduler")),
		},
	)
	if err := registerPeriodic(scheduler, cfg.Worker, logger); err != nil {
		return err
	}

	if err := srv.Start(NewServeMux(h)); err != nil {
		return fmt.Errorf("asynq server error: %w", err)
	}
	logger.Info("Asynq Server started", zap.Int("concurrency", concurrency))

	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		return fmt.Errorf("asynq scheduler error: %w", err)
	}
	logger.Info("Asynq Scheduler started")

	<-ctx.Done()

	logger.Info("Shutting down Asynq Scheduler...")
	scheduler.Shutdown()
	logger.Info("Shutting down Asynq Server...")
	srv.Shutdown()
	logger.Info("Asynq workers stopped.")
	return nil
}

// scheduleRegistrar is the part of *asynq.Scheduler used to register jobs.
type scheduleRegistrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

func registerPeriodic(s scheduleRegistrar, cfg config.WorkerConfig, logger *zap.Logger) error {
	digestTask, err := tasks.NewDashboardDigestTask()
	if err != nil {
		return fmt.Errorf("scheduler task creation error: %w", err)
	}
	pruneTask, err := tasks.NewAuditPruneTask()
	if err != nil {
		return fmt.Errorf("scheduler task creation error: %w", err)
	}

	jobs := []struct {
		spec string
		task *asynq.Task
	}{
		{cfg.DigestSchedule, digestTask},
		{cfg.PruneSchedule, pruneTask},
	}
	for _, j := range jobs {
		if j.spec == "" {
			logger.Info("Periodic task disabled", zap.String("task", j.task.Type()))
			continue
		}
		entryID, err := s.Register(j.spec, j.task)
		if err != nil {
			return fmt.Errorf("scheduler registration error for %s: %w", j.task.Type(), err)
		}
		logger.Info("Registered periodic task",
			zap.String("task", j.task.Type()),
			zap.String("entry_id", entryID),
			zap.String("schedule", j.spec),
		)
	}
	return nil
}

type asynqLoggerAdapter struct {
	logger *zap.Logger
}

func NewAsynqLoggerAdapter(logger *zap.Logger) *asynqLoggerAdapter {
	return &asynqLoggerAdapter{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (l *asynqLoggerAdapter) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}
func (l *asynqLoggerAdapter) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
