package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/relaylogic/relaysim/internal/sim"
)

// RunRecord is one completed simulation run, keyed by document id and
// start time, persisted purely as additive bookkeeping — it never feeds
// back into simulation semantics.
type RunRecord struct {
	ID         uint      `gorm:"primaryKey"`
	DocumentID string    `gorm:"uniqueIndex:idx_run_history_doc_start;not null"`
	StartedAt  time.Time `gorm:"uniqueIndex:idx_run_history_doc_start;not null"`
	Outcome    string    `gorm:"not null"`
	Iterations int
	WallTimeMS int64
	DirtyPeak  int
	Offenders  string // comma-joined VNET ids, empty when none
}

func (RunRecord) TableName() string { return "run_history" }

// RunHistoryRepository records and queries completed-run statistics in a
// local SQLite database.
type RunHistoryRepository struct {
	db *gorm.DB
}

// OpenRunHistory opens (creating if needed) the SQLite database at path
// and migrates the run_history table.
func OpenRunHistory(path string) (*RunHistoryRepository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: opening run history db: %w", err)
	}
	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, fmt.Errorf("store: migrating run history: %w", err)
	}
	return &RunHistoryRepository{db: db}, nil
}

// Record upserts one completed run's statistics, keyed by document id and
// start time.
func (r *RunHistoryRepository) Record(ctx context.Context, documentID string, startedAt time.Time, stats sim.Statistics) error {
	rec := RunRecord{
		DocumentID: documentID,
		StartedAt:  startedAt,
		Outcome:    string(stats.Outcome),
		Iterations: stats.Iterations,
		WallTimeMS: stats.WallTime.Milliseconds(),
		DirtyPeak:  stats.DirtyPeak,
		Offenders:  joinOffenders(stats.OscillationOffenders),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "document_id"}, {Name: "started_at"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"outcome", "iterations", "wall_time_ms", "dirty_peak", "offenders",
		}),
	}).Create(&rec).Error
}

// ForDocument returns every recorded run for a document id, most recent
// first.
func (r *RunHistoryRepository) ForDocument(ctx context.Context, documentID string, limit int) ([]RunRecord, error) {
	var recs []RunRecord
	q := r.db.WithContext(ctx).Where("document_id = ?", documentID).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&recs).Error
	return recs, err
}

func joinOffenders(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}
