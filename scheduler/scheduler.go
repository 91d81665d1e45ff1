package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"bds_scrooper/config"
	"bds_scrooper/models"
	"bds_scrooper/scraper"
)

const commandPollInterval = 2 * time.Second

// Triggerable allows workers to be triggered manually
type Triggerable interface {
	Trigger()
}

// Runner is the part of the orchestrator the scheduler drives.
type Runner interface {
	RunBulk(ctx context.Context, queries []string) scraper.BulkStats
	HandleCommand(ctx context.Context, cmd *models.Command) error
}

type CommandQueue interface {
	GetPendingCommands() ([]models.Command, error)
	MarkCommandProcessed(id int64) error
}

type Scheduler struct {
	cfg      *config.Config
	runner   Runner
	commands CommandQueue
	logger   *slog.Logger
	cron     *cron.Cron
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	indexWorker Triggerable
}

func New(cfg *config.Config, runner Runner, commands CommandQueue, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:      cfg,
		runner:   runner,
		commands: commands,
		logger:   logger.With("component", "scheduler"),
		cron:     cron.New(),
		stopCh:   make(chan struct{}),
	}
}

// SetIndexWorker registers the embedding worker for run_indexer commands.
func (s *Scheduler) SetIndexWorker(w Triggerable) {
	s.indexWorker = w
}

func (s *Scheduler) Start(ctx context.Context) error {
	go s.pollCommands(ctx)

	if s.cfg.Scheduler.Cron != "" {
		s.logger.Info("starting scheduler", "cron", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			s.runBulk(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Scheduler.Interval > 0 {
		s.logger.Info("starting scheduler", "interval", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.runBulk(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		s.logger.Info("no schedule configured, daemon will only respond to commands")
	}

	return nil
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.cron != nil {
			<-s.cron.Stop().Done()
		}
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
	})
}

// TriggerNow runs the bulk query list immediately.
func (s *Scheduler) TriggerNow(ctx context.Context) scraper.BulkStats {
	return s.runner.RunBulk(ctx, s.cfg.Queries)
}

// runBulk skips a tick while the previous bulk run is still going.
func (s *Scheduler) runBulk(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous bulk run still in progress, skipping")
		return
	}
	defer s.running.Store(false)

	stats := s.runner.RunBulk(ctx, s.cfg.Queries)
	if stats.Errors > 0 {
		s.logger.Warn("scheduled run finished with errors", "queries", stats.Queries, "errors", stats.Errors)
	}
}

func (s *Scheduler) pollCommands(ctx context.Context) {
	ticker := time.NewTicker(commandPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processCommands(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) processCommands(ctx context.Context) {
	cmds, err := s.commands.GetPendingCommands()
	if err != nil {
		s.logger.Error("get pending commands", "error", err)
		return
	}

	for _, cmd := range cmds {
		s.logger.Info("processing command", "id", cmd.ID, "command", cmd.Command)
		if err := s.handleCommand(ctx, &cmd); err != nil {
			s.logger.Error("command failed", "id", cmd.ID, "command", cmd.Command, "error", err)
		}
		if err := s.commands.MarkCommandProcessed(cmd.ID); err != nil {
			s.logger.Error("mark command processed", "id", cmd.ID, "error", err)
		}
	}
}

func (s *Scheduler) handleCommand(ctx context.Context, cmd *models.Command) error {
	switch cmd.Command {
	case models.CmdRunIndexer:
		if s.indexWorker != nil {
			s.indexWorker.Trigger()
			s.logger.Info("index worker triggered via command")
			return nil
		}
	case models.CmdBulkNow:
		s.runBulk(ctx)
		return nil
	}
	return s.runner.HandleCommand(ctx, cmd)
}
