package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"novelstore-backend/internal/config"
	"novelstore-backend/internal/domains/promotion/job"
	"novelstore-backend/pkg/logger"
)

// Scheduler đăng ký các periodic task lên asynq
type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.WorkerConfig
}

func NewScheduler(redisOpt asynq.RedisClientOpt, jobConfig config.WorkerConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

// RegisterReportJobs đăng ký toàn bộ scheduled jobs
// ReportCron rỗng = tắt report định kỳ
func (s *Scheduler) RegisterReportJobs() error {
	if s.jobConfig.ReportCron == "" {
		logger.Info("Daily coupon report disabled (REPORT_CRON empty)", map[string]interface{}{})
		return nil
	}
	return s.registerCouponReportJob()
}

// ================================================
// JOB: Export Coupon Usage Report (REPORT_CRON, default 1 AM UTC)
// ================================================
func (s *Scheduler) registerCouponReportJob() error {
	task, err := job.NewCouponReportTask(job.CouponReportPayload{})
	if err != nil {
		return err
	}

	entryID, err := s.scheduler.Register(s.jobConfig.ReportCron, task)
	if err != nil {
		logger.Error("Failed to register CouponReport job", err)
		return fmt.Errorf("register coupon report (%q): %w", s.jobConfig.ReportCron, err)
	}

	logger.Info("✓ Registered CouponReport", map[string]interface{}{
		"cron":     s.jobConfig.ReportCron,
		"entry_id": entryID,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
