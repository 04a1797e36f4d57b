// Package store persists voices, generations and settings in SQLite through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// GenerationListLimit caps ListGenerations.
const GenerationListLimit = 50

// KeyFishAPIKey is the settings key holding the provider credential.
const KeyFishAPIKey = "fish_api_key"

const (
	dirPermissions  = 0o750
	newestFirst     = "created_at DESC, rowid DESC"
	pragmaWALMode   = "PRAGMA journal_mode = WAL"
	errFmtQueryFail = "failed to %s: %w"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Store is the relational store. Create it once with Open and share it.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces the clock used for created_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens (creating if needed) the SQLite database at path and switches it
// to WAL journaling. Call Migrate before use.
func Open(path string, opts ...Option) (*Store, error) {
	dirErr := os.MkdirAll(filepath.Dir(path), dirPermissions)
	if dirErr != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", dirErr)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	err = db.Exec(pragmaWALMode).Error
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{
		db:  db,
		now: time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Migrate creates or updates the voices, generations and settings tables.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(&Voice{}, &Generation{}, &Setting{})
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}

	err = sqlDB.Close()
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// NewVoice holds the fields supplied when a voice is created.
type NewVoice struct {
	Name       string
	AudioPath  string
	Transcript *string
}

// CreateVoice inserts a voice with a freshly generated id.
func (s *Store) CreateVoice(ctx context.Context, input NewVoice) (*Voice, error) {
	audioPath := input.AudioPath
	voice := &Voice{
		ID:         uuid.NewString(),
		Name:       input.Name,
		AudioPath:  &audioPath,
		Transcript: input.Transcript,
		CreatedAt:  s.timestamp(),
	}

	err := s.db.WithContext(ctx).Create(voice).Error
	if err != nil {
		return nil, fmt.Errorf(errFmtQueryFail, "insert voice", err)
	}

	return voice, nil
}

// GetVoice returns the voice with id, or ErrNotFound.
func (s *Store) GetVoice(ctx context.Context, id string) (*Voice, error) {
	var voice Voice

	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&voice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf(errFmtQueryFail, "select voice", err)
	}

	return &voice, nil
}

// ListVoices returns every voice, newest first.
func (s *Store) ListVoices(ctx context.Context) ([]Voice, error) {
	voices := make([]Voice, 0)

	err := s.db.WithContext(ctx).Order(newestFirst).Find(&voices).Error
	if err != nil {
		return nil, fmt.Errorf(errFmtQueryFail, "list voices", err)
	}

	return voices, nil
}

// DeleteVoice removes the voice row with id. Unknown ids are not an error.
func (s *Store) DeleteVoice(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Voice{}).Error
	if err != nil {
		return fmt.Errorf(errFmtQueryFail, "delete voice", err)
	}

	return nil
}

// NewGeneration holds the fields supplied when a generation is recorded.
type NewGeneration struct {
	VoiceID   *string
	VoiceName *string
	Text      string
	AudioPath string
	Model     string
}

// CreateGeneration appends a generation record.
func (s *Store) CreateGeneration(ctx context.Context, input NewGeneration) (*Generation, error) {
	audioPath := input.AudioPath
	generation := &Generation{
		ID:        uuid.NewString(),
		VoiceID:   input.VoiceID,
		VoiceName: input.VoiceName,
		Text:      input.Text,
		AudioPath: &audioPath,
		Model:     input.Model,
		CreatedAt: s.timestamp(),
	}

	err := s.db.WithContext(ctx).Create(generation).Error
	if err != nil {
		return nil, fmt.Errorf(errFmtQueryFail, "insert generation", err)
	}

	return generation, nil
}

// ListGenerations returns the GenerationListLimit most recent generations, newest first.
func (s *Store) ListGenerations(ctx context.Context) ([]Generation, error) {
	generations := make([]Generation, 0, GenerationListLimit)

	err := s.db.WithContext(ctx).Order(newestFirst).Limit(GenerationListLimit).Find(&generations).Error
	if err != nil {
		return nil, fmt.Errorf(errFmtQueryFail, "list generations", err)
	}

	return generations, nil
}

// GetSetting returns the value stored under key and whether it exists.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var setting Setting

	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf(errFmtQueryFail, "select setting", err)
	}

	return setting.Value, true, nil
}

// SetSetting inserts or replaces the value stored under key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	setting := &Setting{Key: key, Value: value}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(setting).Error
	if err != nil {
		return fmt.Errorf(errFmtQueryFail, "save setting", err)
	}

	return nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}
