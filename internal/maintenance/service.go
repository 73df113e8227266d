// Package maintenance runs the background upkeep for the invocation
// history store.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agrigate/agrigate/internal/history"
)

type Config struct {
	RetentionMaxAge   time.Duration
	RetentionInterval time.Duration
}

type Service struct {
	History history.Recorder
	Config  Config
	Logger  *slog.Logger
	Clock   func() time.Time
}

type RetentionSummary struct {
	Cutoff      time.Time `json:"cutoff"`
	RemovedRows int64     `json:"removed_rows"`
}

// Run prunes on a fixed interval until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.ensureDefaults()

	ticker := time.NewTicker(s.Config.RetentionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			summary, err := s.RunRetentionOnce(ctx)
			if err != nil {
				if s.Logger != nil {
					s.Logger.ErrorContext(ctx, "retention cycle failed", slog.Any("error", err), slog.Any("summary", summary))
				}
				continue
			}
			if s.Logger != nil {
				s.Logger.InfoContext(ctx, "retention cycle completed", slog.Any("summary", summary))
			}
		}
	}
}

func (s *Service) RunRetentionOnce(ctx context.Context) (RetentionSummary, error) {
	s.ensureDefaults()
	if s.History == nil {
		return RetentionSummary{}, fmt.Errorf("history recorder is required")
	}
	if s.Config.RetentionMaxAge <= 0 {
		return RetentionSummary{}, fmt.Errorf("retention max age must be positive")
	}

	cutoff := s.Clock().Add(-s.Config.RetentionMaxAge).UTC()
	removed, err := s.History.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		retentionRunsTotal.WithLabelValues("failed").Inc()
		return RetentionSummary{Cutoff: cutoff}, fmt.Errorf("prune invocation history: %w", err)
	}

	if removed > 0 {
		retentionRowsPrunedTotal.Add(float64(removed))
	}
	retentionRunsTotal.WithLabelValues("completed").Inc()
	return RetentionSummary{Cutoff: cutoff, RemovedRows: removed}, nil
}

func (s *Service) ensureDefaults() {
	if s.Clock == nil {
		s.Clock = time.Now
	}
	if s.Config.RetentionInterval <= 0 {
		s.Config.RetentionInterval = 10 * time.Minute
	}
}
