package ports

import (
	"context"
	"io"

	"github.com/smartretail/storefront/internal/core/domain"
)

// ObjectStorage is where exported reports are archived.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// SalesReportSource downloads the CSV sales report.
type SalesReportSource interface {
	DownloadSalesReportCSV(ctx context.Context, group domain.ReportGroup, from, to string) ([]byte, error)
}
