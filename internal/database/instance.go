package database

import (
	"context"
	"fmt"

	"github.com/diegoclair/support-roster-bot/internal/domain/contract"
)

// instance implements DataManager interface
type instance struct {
	db               *DB
	inTx             bool
	rosterRepo       contract.RosterRepo
	announcementRepo contract.AnnouncementRepo
}

// NewInstance creates a new database instance with all repositories
func NewInstance(db *DB) contract.DataManager {
	instance := repoInstancesWithConn(db.conn)
	instance.db = db
	return instance
}

// repoInstancesWithConn creates repository instances with custom dbConn
func repoInstancesWithConn(db dbConn) *instance {
	return &instance{
		rosterRepo:       newRosterRepository(db),
		announcementRepo: newAnnouncementRepository(db),
	}
}

// Roster returns the roster repository
func (i *instance) Roster() contract.RosterRepo {
	return i.rosterRepo
}

// Announcement returns the announcement repository
func (i *instance) Announcement() contract.AnnouncementRepo {
	return i.announcementRepo
}

// WithTransaction executes a function within a database transaction.
// Calls made on a transaction instance join the running transaction.
func (i *instance) WithTransaction(ctx context.Context, fn func(dm contract.DataManager) error) error {
	if i.inTx {
		return fn(i)
	}

	tx, err := i.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txInstance := repoInstancesWithConn(tx)
	txInstance.inTx = true

	err = fn(txInstance)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			return fmt.Errorf("error rolling back transaction: %v, original error: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
