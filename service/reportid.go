package service

import (
	"context"
	"fmt"
	"log"
	"vendtrack/db"
	"vendtrack/metrics"
	"vendtrack/models"
)

const (
	reportIDPrefix = "DGS-"
	dateLayout     = "20060102"
)

// GetDailyReportCount counts the reports created on the current UTC date.
func (s *ReportService) GetDailyReportCount(ctx context.Context) (int, error) {
	snaps, err := s.store.All(ctx, db.CollectionReports)
	if err != nil {
		return 0, newError(KindInternal, "Failed to count reports", err)
	}

	today := s.now().UTC().Format(dateLayout)
	count := 0
	for _, report := range decodeAll[models.Report](db.CollectionReports, snaps) {
		if !report.CreatedAt.IsZero() && report.CreatedAt.UTC().Format(dateLayout) == today {
			count++
		}
	}
	return count, nil
}

// GenerateReportID returns DGS-<seq><YYYYMMDD>. The sequence is drawn from
// an atomic per-day counter seeded with today's report count, so concurrent
// submissions get distinct ids. If anything fails a random sequence in
// 100-999 is used instead; id generation never blocks a submission.
func (s *ReportService) GenerateReportID(ctx context.Context) string {
	date := s.now().UTC().Format(dateLayout)

	seq, err := s.nextSequence(ctx, date)
	if err != nil {
		seq = int64(100 + s.randIntn(900))
		metrics.ReportIDFallbacks.Inc()
		log.Printf("⚠️  Report sequence unavailable, using random %d: %v", seq, err)
	}

	return formatReportID(seq, date)
}

func (s *ReportService) nextSequence(ctx context.Context, date string) (int64, error) {
	count, err := s.GetDailyReportCount(ctx)
	if err != nil {
		return 0, err
	}

	seq, err := s.store.Increment(ctx, db.CollectionCounters, "reports-"+date, int64(count))
	if err != nil {
		return 0, fmt.Errorf("failed to advance report counter: %w", err)
	}
	return seq, nil
}

// formatReportID pads the sequence to three digits; larger sequences widen.
func formatReportID(seq int64, date string) string {
	return fmt.Sprintf("%s%03d%s", reportIDPrefix, seq, date)
}
