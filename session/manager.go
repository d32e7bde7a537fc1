package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prashantdagar001/automation-api/config"
	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/internal/mylog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type (
	Manager interface {
		CreateSession(ctx context.Context) (*Session, error)
		GetSession(ctx context.Context, sessionID string) (*Session, error)
		AddInteraction(ctx context.Context, sessionID string, interaction Interaction) error
		GetHistory(ctx context.Context, sessionID string) ([]Interaction, error)
		Cleanup(ctx context.Context, maxAge time.Duration) (int, error)
		RecentSuccesses(ctx context.Context, sessionID string, limit int) ([]Interaction, error)
		Close() error
	}

	manager struct {
		logger *mylog.Logger
		db     *gorm.DB
		config *config.SessionConfig

		// appendLocks serializes appends per session and lets the cleanup
		// sweep exclude a session that is mid-append.
		mu          sync.Mutex
		appendLocks map[string]*sync.Mutex
	}
)

var (
	_ Manager = (*manager)(nil)
)

func NewManager(conf *config.SessionConfig, logger *mylog.Logger) (Manager, error) {
	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL", conf.SqlitePath)),
		&gorm.Config{},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open session database")
	}

	if err := db.AutoMigrate(&Session{}, &Interaction{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate session tables")
	}

	return &manager{
		logger:      logger,
		db:          db,
		config:      conf,
		appendLocks: make(map[string]*sync.Mutex),
	}, nil
}

func (m *manager) CreateSession(ctx context.Context) (*Session, error) {
	now := time.Now()
	session := Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := m.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to create session")
	}

	m.logger.Debug("created session", "session_id", session.ID)
	return &session, nil
}

func (m *manager) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	if r := m.db.WithContext(ctx).Find(&session, "id = ?", sessionID); r.Error != nil {
		return nil, errors.Wrapf(r.Error, "failed to find session")
	} else if r.RowsAffected == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "session %s not found", sessionID)
	}

	return &session, nil
}

// AddInteraction appends one history record, bumps the session activity
// timestamp, and trims history beyond the configured maximum, oldest first.
func (m *manager) AddInteraction(ctx context.Context, sessionID string, interaction Interaction) error {
	lock := m.appendLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session Session
		if r := tx.Find(&session, "id = ?", sessionID); r.Error != nil {
			return errors.Wrapf(r.Error, "failed to find session")
		} else if r.RowsAffected == 0 {
			return errors.Wrapf(errors.ErrNotFound, "session %s not found", sessionID)
		}

		interaction.SessionID = sessionID
		interaction.CreatedAt = time.Now()
		if err := tx.Create(&interaction).Error; err != nil {
			return errors.Wrapf(err, "failed to save interaction")
		}

		session.LastActivity = time.Now()
		if err := tx.Save(&session).Error; err != nil {
			return errors.Wrapf(err, "failed to update session activity")
		}

		if m.config.MaxHistory > 0 {
			var count int64
			if err := tx.Model(&Interaction{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
				return errors.Wrapf(err, "failed to count interactions")
			}
			if overflow := count - int64(m.config.MaxHistory); overflow > 0 {
				if err := tx.Exec(`
					DELETE FROM interactions WHERE id IN (
						SELECT id FROM interactions
						WHERE session_id = ?
						ORDER BY id ASC
						LIMIT ?
					)
				`, sessionID, overflow).Error; err != nil {
					return errors.Wrapf(err, "failed to trim history")
				}
			}
		}

		return nil
	})
}

func (m *manager) GetHistory(ctx context.Context, sessionID string) ([]Interaction, error) {
	if _, err := m.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	var interactions []Interaction
	if err := m.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&interactions).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to find interactions")
	}

	return interactions, nil
}

// RecentSuccesses returns up to limit of the most recent successful
// interactions, oldest first, for prompt enrichment.
func (m *manager) RecentSuccesses(ctx context.Context, sessionID string, limit int) ([]Interaction, error) {
	var interactions []Interaction
	if err := m.db.WithContext(ctx).
		Where("session_id = ? AND success = ?", sessionID, true).
		Order("id DESC").
		Limit(limit).
		Find(&interactions).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to find interactions")
	}

	for i, j := 0, len(interactions)-1; i < j; i, j = i+1, j-1 {
		interactions[i], interactions[j] = interactions[j], interactions[i]
	}
	return interactions, nil
}

// Cleanup removes sessions idle for longer than maxAge together with their
// history. A session currently being appended to is skipped this sweep.
func (m *manager) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	var stale []Session
	if err := m.db.WithContext(ctx).
		Where("last_activity < ?", cutoff).
		Find(&stale).Error; err != nil {
		return 0, errors.Wrapf(err, "failed to find stale sessions")
	}

	removed := 0
	for _, session := range stale {
		lock := m.appendLock(session.ID)
		if !lock.TryLock() {
			m.logger.Debug("skipping session mid-append", "session_id", session.ID)
			continue
		}

		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Re-check under the lock: an append may have revived it.
			var current Session
			if r := tx.Find(&current, "id = ?", session.ID); r.Error != nil {
				return errors.Wrapf(r.Error, "failed to find session")
			} else if r.RowsAffected == 0 || !current.LastActivity.Before(cutoff) {
				return nil
			}

			if err := tx.Where("session_id = ?", session.ID).Delete(&Interaction{}).Error; err != nil {
				return errors.Wrapf(err, "failed to delete interactions")
			}
			if err := tx.Delete(&Session{}, "id = ?", session.ID).Error; err != nil {
				return errors.Wrapf(err, "failed to delete session")
			}
			removed++
			return nil
		})
		lock.Unlock()
		if err != nil {
			return removed, err
		}

		m.forgetLock(session.ID)
	}

	if removed > 0 {
		m.logger.Info("cleaned up stale sessions", "removed", removed)
	}
	return removed, nil
}

// RunSweeper periodically cleans up stale sessions until ctx is cancelled.
func RunSweeper(ctx context.Context, m Manager, conf *config.SessionConfig, logger *mylog.Logger) {
	if conf.SweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(conf.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Cleanup(ctx, conf.MaxAge); err != nil {
				logger.Warn("session sweep failed", "err", err)
			}
		}
	}
}

func (m *manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return errors.Wrapf(err, "failed to get db")
	}
	return sqlDB.Close()
}

func (m *manager) appendLock(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.appendLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		m.appendLocks[sessionID] = lock
	}
	return lock
}

func (m *manager) forgetLock(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.appendLocks, sessionID)
}
