package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"
)

const defaultRunTimeout = 5 * time.Minute

// Renewer продлевает подписки, срок которых истекает в пределах lead
type Renewer interface {
	RenewExpiring(ctx context.Context, lead time.Duration) (int, error)
}

// Scheduler периодически продлевает push-подписки Google
type Scheduler struct {
	cron    *cron.Cron
	renewer Renewer
	lead    time.Duration
	timeout time.Duration
	log     *slog.Logger
}

// New создает планировщик по cron-выражению, выражение проверяется сразу
func New(spec string, renewer Renewer, lead time.Duration, log *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		renewer: renewer,
		lead:    lead,
		timeout: defaultRunTimeout,
		log:     log.With("component", "watch_scheduler"),
	}

	if _, err := s.cron.AddFunc(spec, s.renew); err != nil {
		return nil, fmt.Errorf("parse renewal schedule %q: %w", spec, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.log.Info("watch renewal scheduler started", "lead", s.lead)
	s.cron.Start()
}

// Stop останавливает планировщик и ждет завершения текущего прогона
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) renew() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	renewed, err := s.renewer.RenewExpiring(ctx, s.lead)
	if err != nil {
		s.log.Error("watch renewal failed", "renewed", renewed, "error", err)
		return
	}

	s.log.Info("watch renewal finished", "renewed", renewed, "duration", time.Since(start))
}
