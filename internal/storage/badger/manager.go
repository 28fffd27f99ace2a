package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/interfaces"
)

// Manager aggregates the Badger-backed storage interfaces behind one connection
type Manager struct {
	db        *BadgerDB
	jobs      interfaces.JobStorage
	credits   interfaces.CreditStorage
	artifacts interfaces.ArtifactStorage
	logger    arbor.ILogger
}

// NewStorageManager opens the database and wires up the storage interfaces
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return &Manager{
		db:        db,
		jobs:      NewJobStorage(db, logger),
		credits:   NewCreditStorage(db, logger),
		artifacts: NewArtifactStorage(db, logger),
		logger:    logger,
	}, nil
}

func (m *Manager) JobStorage() interfaces.JobStorage {
	return m.jobs
}

func (m *Manager) CreditStorage() interfaces.CreditStorage {
	return m.credits
}

func (m *Manager) ArtifactStorage() interfaces.ArtifactStorage {
	return m.artifacts
}

func (m *Manager) Close() error {
	return m.db.Close()
}
