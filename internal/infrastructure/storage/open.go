// Package storage provides the report archive backends.
package storage

import (
	"fmt"

	"github.com/smartretail/storefront/internal/core/ports"
	"github.com/smartretail/storefront/internal/infrastructure/config"
)

// Open returns the backend selected by cfg.Reports.Store.
func Open(cfg *config.Config) (ports.ObjectStorage, error) {
	switch cfg.Reports.Store {
	case "file":
		return NewFileStorage(cfg.Reports.Dir)
	case "minio":
		return NewMinioStorage(cfg.Minio)
	}
	return nil, fmt.Errorf("unknown report store %q", cfg.Reports.Store)
}
