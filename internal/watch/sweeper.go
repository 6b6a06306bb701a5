package watch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alexanderramin/timeclock/internal/service"
)

// Resolver is the part of the resolver service the sweeper drives.
type Resolver interface {
	ReconcileAll(ctx context.Context) (int, error)
	SweepAbandoned(ctx context.Context, heartbeatTimeout, maxAge time.Duration) (*service.SweepReport, error)
}

// Sweeper is the auto-clockout monitor pass: converge duplicate active rows,
// then close sessions whose device went silent or that ran too long.
type Sweeper struct {
	Resolver         Resolver
	HeartbeatTimeout time.Duration
	MaxAge           time.Duration
	Logger           *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) (*service.SweepReport, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	resolved, rerr := s.Resolver.ReconcileAll(ctx)
	if rerr != nil {
		logger.Warn("watch: reconcile failed", "error", rerr)
	} else if resolved > 0 {
		logger.Info("watch: reconciled duplicate sessions", "employees", resolved)
	}

	report, err := s.Resolver.SweepAbandoned(ctx, s.HeartbeatTimeout, s.MaxAge)
	if err != nil {
		logger.Warn("watch: sweep failed", "error", err)
		return nil, errors.Join(rerr, err)
	}
	if report.Closed() > 0 {
		logger.Info("watch: auto-clockout",
			"checked", report.Checked, "abandoned", len(report.Abandoned), "stale", len(report.Stale))
	}
	return report, rerr
}
