package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arcadialabs-io/actionbridge/core/types"
	models "github.com/arcadialabs-io/actionbridge/dbmodels"
)

// Store is the action ledger. It is the only mutable shared resource in the
// pipeline: all coordination between concurrent requests goes through its
// key-qualified atomic writes, never through application-level locks.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindByNaturalKey looks up the record for (user_id, event_hash). A missing
// record is (nil, nil), not an error.
func (s *Store) FindByNaturalKey(ctx context.Context, userID uuid.UUID, eventHash string) (*models.DetectedAction, error) {
	var rec models.DetectedAction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND event_hash = ?", userID, eventHash).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// InsertOrFetch inserts rec, or fetches the existing row when another writer
// got there first. ON CONFLICT on the (user_id, event_hash) unique index is
// what closes the race two near-simultaneous submissions open after both pass
// the dedup lookup: the database picks the winner, the loser's payload is
// discarded. The second return value reports whether rec itself was stored.
func (s *Store) InsertOrFetch(ctx context.Context, rec *models.DetectedAction) (*models.DetectedAction, bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_hash"}},
			DoNothing: true,
		}).
		Create(rec)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return rec, true, nil
	}

	existing, err := s.FindByNaturalKey(ctx, rec.UserID, rec.EventHash)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	return existing, false, nil
}

// FindByID fetches a record by primary id, scoped to the owning user.
func (s *Store) FindByID(ctx context.Context, id string, userID uuid.UUID) (*models.DetectedAction, error) {
	var rec models.DetectedAction
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ClaimForExecution flips the record to executing, but only from an
// executable status. The conditional UPDATE is the record's optimistic lock:
// of two concurrent execute calls, exactly one sees RowsAffected == 1 and may
// fire the side effect; the other observes executing (or a terminal status)
// and must report a conflict.
func (s *Store) ClaimForExecution(ctx context.Context, id string, userID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.DetectedAction{}).
		Where("id = ? AND user_id = ? AND status IN ?", id, userID,
			[]types.ActionStatus{types.StatusPending, types.StatusApproved}).
		Update("status", types.StatusExecuting)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Finalize records the terminal outcome of an execution. It only applies to a
// record currently executing, so a terminal record stays immutable.
func (s *Store) Finalize(ctx context.Context, id string, userID uuid.UUID, success bool, message string) (*models.DetectedAction, error) {
	status := types.StatusCompleted
	if !success {
		status = types.StatusFailed
	}
	now := time.Now().UTC()

	res := s.db.WithContext(ctx).
		Model(&models.DetectedAction{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, types.StatusExecuting).
		Updates(map[string]interface{}{
			"status":         status,
			"status_message": message,
			"resolved_at":    now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	return s.FindByID(ctx, id, userID)
}

// Approve promotes a pending record to approved. Any other current status is
// a conflict reported through the false return.
func (s *Store) Approve(ctx context.Context, id string, userID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.DetectedAction{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, types.StatusPending).
		Update("status", types.StatusApproved)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListRecent returns the user's newest records, for the edge client's panel.
func (s *Store) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.DetectedAction, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []models.DetectedAction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

// RecordExecution writes the per-attempt audit row.
func (s *Store) RecordExecution(ctx context.Context, entry *models.ExecutionLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}
