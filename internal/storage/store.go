// Package storage keeps local playback history and a recording cache
// in sqlite, so replays can be audited and work when the recording
// host is unreachable.
package storage

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Run outcomes.
const (
	OutcomeComplete = "complete"
	OutcomeStopped  = "stopped"
	OutcomeFailed   = "failed"
)

// Run is one playback attempt.
type Run struct {
	ID          string `gorm:"primaryKey"`
	SessionID   string `gorm:"index"`
	StartedAt   time.Time
	FinishedAt  *time.Time
	StepsPlayed int
	Outcome     string
}

// CachedRecording is a fetched recording document kept for offline
// fallback.
type CachedRecording struct {
	SessionID string `gorm:"primaryKey"`
	Document  []byte
	FetchedAt time.Time
}

// Store wraps the sqlite database.
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) the database at dsn.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	if err := db.AutoMigrate(&Run{}, &CachedRecording{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// BeginRun records the start of a playback attempt and returns its id.
func (s *Store) BeginRun(sessionID string) (string, error) {
	run := Run{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		StartedAt: time.Now(),
	}
	if err := s.db.Create(&run).Error; err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return run.ID, nil
}

// FinishRun records how a playback attempt ended.
func (s *Store) FinishRun(runID string, stepsPlayed int, outcome string) error {
	now := time.Now()
	err := s.db.Model(&Run{}).Where("id = ?", runID).Updates(map[string]any{
		"finished_at":  &now,
		"steps_played": stepsPlayed,
		"outcome":      outcome,
	}).Error
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

// Runs returns the most recent playback attempts, newest first.
func (s *Store) Runs(limit int) ([]Run, error) {
	var runs []Run
	err := s.db.Order("started_at desc").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// SaveRecording upserts a fetched recording document.
func (s *Store) SaveRecording(sessionID string, raw []byte) error {
	rec := CachedRecording{SessionID: sessionID, Document: raw, FetchedAt: time.Now()}
	err := s.db.Save(&rec).Error
	if err != nil {
		return fmt.Errorf("cache recording %s: %w", sessionID, err)
	}
	return nil
}

// LoadRecording returns a cached recording document when present.
func (s *Store) LoadRecording(sessionID string) ([]byte, bool) {
	var rec CachedRecording
	err := s.db.First(&rec, "session_id = ?", sessionID).Error
	if err != nil {
		return nil, false
	}
	return rec.Document, true
}
