// Package audit keeps a best-effort ledger of plan generation attempts.
package audit

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
	"gorm.io/gorm"

	"github.com/mealwise/backend/internal/models"
)

// Outcome classifies how a generation attempt ended
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeRateLimited      Outcome = "rate_limited"
	OutcomeMethodNotAllowed Outcome = "method_not_allowed"
	OutcomeRequestInvalid   Outcome = "request_invalid"
	OutcomeUpstreamError    Outcome = "upstream_error"
	OutcomeParseError       Outcome = "parse_error"
	OutcomeResponseInvalid  Outcome = "response_invalid"
	OutcomeUnknown          Outcome = "unknown"
)

// Entry describes one attempt before it is written
type Entry struct {
	ClientKey  string
	MonthYear  string
	Provider   string
	Outcome    Outcome
	StatusCode int
	Duration   time.Duration
}

// Ledger records attempts and lists the most recent ones
type Ledger interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]models.GenerationRecord, error)
}

// GormLedger stores attempts in a SQL database
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) Record(ctx context.Context, entry Entry) error {
	record := models.GenerationRecord{
		ClientKey:  HashClientKey(entry.ClientKey),
		MonthYear:  entry.MonthYear,
		Provider:   entry.Provider,
		Outcome:    string(entry.Outcome),
		StatusCode: entry.StatusCode,
		DurationMS: entry.Duration.Milliseconds(),
	}
	if err := l.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to record generation attempt: %w", err)
	}
	return nil
}

func (l *GormLedger) Recent(ctx context.Context, limit int) ([]models.GenerationRecord, error) {
	var records []models.GenerationRecord
	err := l.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list generation attempts: %w", err)
	}
	return records, nil
}

// Prune deletes attempts recorded before the cutoff and returns how many
// were removed
func (l *GormLedger) Prune(ctx context.Context, before time.Time) (int64, error) {
	result := l.db.WithContext(ctx).Where("created_at < ?", before).Delete(&models.GenerationRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune generation attempts: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// NopLedger discards every entry. It is used when no database is configured.
type NopLedger struct{}

func (NopLedger) Record(context.Context, Entry) error { return nil }

func (NopLedger) Recent(context.Context, int) ([]models.GenerationRecord, error) {
	return []models.GenerationRecord{}, nil
}

// HashClientKey pseudonymises a client key so raw addresses are never stored
func HashClientKey(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

var (
	_ Ledger = (*GormLedger)(nil)
	_ Ledger = NopLedger{}
)
