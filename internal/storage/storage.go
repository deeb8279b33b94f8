package storage

import (
	"unclebob/internal/config"
	"unclebob/internal/domain"
)

// Storage persists and loads the record of the last run (e.g. for the last-run viewer).
type Storage interface {
	Save(record *domain.RunRecord) error
	Load() (*domain.RunRecord, error)
}

// JSONStorage stores the record in a JSON file under the configured results path.
type JSONStorage struct {
	cfg *config.Config
}

var _ Storage = (*JSONStorage)(nil)

// NewJSONStorage returns a Storage that reads/writes the config's results path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}
