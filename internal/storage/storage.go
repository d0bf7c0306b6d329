// Package storage persists crawl results and domain intelligence to a
// document database. The orchestrator consumes the Store interface; the
// MongoDB implementation lives alongside it.
package storage

import (
	"context"

	"github.com/jonesrussell/scamintel/internal/domain"
)

// Store is the persistence capability consumed by the crawl pipeline.
// Implementations must be safe for concurrent use; upserts for the same key
// are last-write-wins.
type Store interface {
	// UpsertPageResult persists a scored page, keyed by URL plus fetch
	// timestamp so repeat crawls of a page never contend.
	UpsertPageResult(ctx context.Context, result domain.ScoredResult) error

	// UpsertDomainRecord merges a domain record by domain name: non-empty
	// incoming fields overwrite, arrays are replaced rather than appended.
	UpsertDomainRecord(ctx context.Context, rec domain.DomainRecord) error

	// FindHighRisk returns stored results with suspicious_score >= minScore,
	// highest scores first. limit <= 0 means no limit.
	FindHighRisk(ctx context.Context, minScore, limit int) ([]domain.ScoredResult, error)

	// FindDomain returns the stored record for a domain name, or nil when
	// none exists.
	FindDomain(ctx context.Context, name string) (*domain.DomainRecord, error)
}
