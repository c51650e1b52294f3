// Package scoring assigns risk scores, categories and fraud indicators to
// transactions.
//
// Scores are uniform random draws. They do not depend on any transaction
// field, so identical input scores differently on every call.
package scoring

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"finsec/internal/models"

	"github.com/google/uuid"
)

// Category thresholds: scores below MediumThreshold are Low, scores below
// HighThreshold are Medium, everything else is High.
const (
	MediumThreshold = 0.3
	HighThreshold   = 0.7
)

// DefaultLatency is the simulated network delay of single-transaction scoring.
const DefaultLatency = time.Second

// Indicators is the fixed indicator vocabulary. Medium risk draws from the
// first three entries only.
var Indicators = []string{
	"Unusual transaction amount",
	"Suspicious IP address",
	"Multiple transactions in short time",
	"Unusual location",
	"Mismatched billing information",
}

const mediumVocabulary = 3

// Source is the randomness the engine draws from. *rand.Rand satisfies it.
type Source interface {
	// Float64 returns a value in [0,1).
	Float64() float64
	// IntN returns a value in [0,n).
	IntN(n int) int
}

// NewSource returns a seeded PCG source. The same seed yields the same draws.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Engine scores transactions. It is safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	src     Source
	now     func() time.Time
	latency time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource replaces the random source.
func WithSource(src Source) Option {
	return func(e *Engine) { e.src = src }
}

// WithLatency sets the simulated delay of ScoreSingle. Zero disables it.
func WithLatency(d time.Duration) Option {
	return func(e *Engine) { e.latency = d }
}

// WithClock sets the clock used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine seeded from the current time.
func New(opts ...Option) *Engine {
	e := &Engine{
		src:     NewSource(uint64(time.Now().UnixNano())),
		now:     time.Now,
		latency: DefaultLatency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify maps a score to its risk category.
func Classify(score float64) models.RiskCategory {
	switch {
	case score < MediumThreshold:
		return models.RiskLow
	case score < HighThreshold:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// ScoreBatch scores every row and summarizes the batch. The result has one
// entry per input row, in input order.
func (e *Engine) ScoreBatch(rows []models.Transaction) ([]models.ScoredTransaction, models.Summary) {
	now := e.now()

	e.mu.Lock()
	results := make([]models.ScoredTransaction, len(rows))
	for i, tx := range rows {
		results[i] = e.scoreLocked(tx, now)
	}
	e.mu.Unlock()

	return results, Summarize(results)
}

// ScoreSingle scores one transaction after the simulated latency. A missing
// transaction ID is replaced by a new UUID.
func (e *Engine) ScoreSingle(ctx context.Context, tx models.Transaction) (models.ScoredTransaction, error) {
	if e.latency > 0 {
		timer := time.NewTimer(e.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return models.ScoredTransaction{}, ctx.Err()
		case <-timer.C:
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scoreLocked(tx, e.now()), nil
}

func (e *Engine) scoreLocked(tx models.Transaction, now time.Time) models.ScoredTransaction {
	score := e.src.Float64()
	category := Classify(score)

	id := tx.TransactionID
	if id == "" {
		id = uuid.NewString()
	}

	return models.ScoredTransaction{
		TransactionID:   id,
		RiskScore:       score,
		RiskCategory:    category,
		FraudIndicators: e.indicatorsLocked(category),
		Timestamp:       now,
	}
}

func (e *Engine) indicatorsLocked(category models.RiskCategory) []string {
	switch category {
	case models.RiskMedium:
		return e.sampleLocked(Indicators[:mediumVocabulary], 1, 2)
	case models.RiskHigh:
		return e.sampleLocked(Indicators, 2, 3)
	default:
		return []string{}
	}
}

// sampleLocked draws between lo and hi entries of vocab without replacement.
func (e *Engine) sampleLocked(vocab []string, lo, hi int) []string {
	k := lo + e.src.IntN(hi-lo+1)
	pool := append([]string(nil), vocab...)
	for i := 0; i < k; i++ {
		j := i + e.src.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// Summarize counts results per category. Each percentage is rounded on its
// own (half to even), so the three need not add up to 100.
func Summarize(results []models.ScoredTransaction) models.Summary {
	s := models.Summary{Total: len(results)}
	for _, r := range results {
		switch r.RiskCategory {
		case models.RiskHigh:
			s.HighCount++
		case models.RiskMedium:
			s.MediumCount++
		default:
			s.LowCount++
		}
	}
	if s.Total == 0 {
		return s
	}

	s.HighPercent = percent(s.HighCount, s.Total)
	s.MediumPercent = percent(s.MediumCount, s.Total)
	s.LowPercent = percent(s.LowCount, s.Total)
	s.Text = fmt.Sprintf("%d%% of transactions were high risk, %d%% medium risk, and %d%% low risk.",
		s.HighPercent, s.MediumPercent, s.LowPercent)
	return s
}

func percent(count, total int) int {
	return int(math.RoundToEven(float64(count) / float64(total) * 100))
}
