package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/core/ports"
	"github.com/smartretail/storefront/internal/metrics"
)

const dateLayout = "2006-01-02"

// ReportExporter downloads the CSV sales report and archives it.
type ReportExporter struct {
	source ports.SalesReportSource
	store  ports.ObjectStorage
	log    zerolog.Logger
	now    func() time.Time
}

func NewReportExporter(source ports.SalesReportSource, store ports.ObjectStorage, log zerolog.Logger) *ReportExporter {
	return &ReportExporter{source: source, store: store, log: log, now: time.Now}
}

// Export stores the report under reports/sales_<group>_<from>_<to>.csv.
// Missing bounds are resolved the way the analytics service resolves them
// (the last 30 days up to today) so the key always names a concrete range.
func (e *ReportExporter) Export(ctx context.Context, group domain.ReportGroup, from, to string) (*domain.ArchivedReport, error) {
	if group == "" {
		group = domain.GroupDay
	}
	if !group.Valid() {
		return nil, fmt.Errorf("export report: unknown group %q", group)
	}
	from, to = e.resolveRange(from, to)

	data, err := e.source.DownloadSalesReportCSV(ctx, group, from, to)
	if err != nil {
		return nil, fmt.Errorf("export report: download: %w", err)
	}

	if err := e.store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("export report: ensure bucket: %w", err)
	}
	key := fmt.Sprintf("reports/sales_%s_%s_%s.csv", group, from, to)
	if err := e.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "text/csv"); err != nil {
		return nil, fmt.Errorf("export report: store %s: %w", key, err)
	}

	metrics.ReportsExportedTotal.WithLabelValues(e.store.Bucket()).Inc()
	e.log.Info().
		Str("bucket", e.store.Bucket()).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("sales report archived")

	return &domain.ArchivedReport{Bucket: e.store.Bucket(), Key: key, Size: int64(len(data))}, nil
}

func (e *ReportExporter) resolveRange(from, to string) (string, string) {
	today := e.now().UTC()
	if to == "" {
		to = today.Format(dateLayout)
	}
	if from == "" {
		from = today.AddDate(0, 0, -domain.DefaultReportDays).Format(dateLayout)
	}
	return from, to
}
