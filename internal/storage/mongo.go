package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jonesrussell/scamintel/internal/domain"
	"github.com/jonesrussell/scamintel/internal/logger"
)

// Collection names. Field names and shapes in these collections are a
// compatibility contract with downstream query tooling.
const (
	pagesCollection   = "scam_pages"
	domainsCollection = "domains"
)

// MongoStore implements Store on a MongoDB database.
type MongoStore struct {
	pages   *mongo.Collection
	domains *mongo.Collection
	log     logger.Interface

	retryAttempts int
	retryBackoff  time.Duration
}

// Config configures the Mongo adapter.
type Config struct {
	URI           string
	Database      string
	RetryAttempts int
	RetryBackoff  time.Duration
}

// NewMongoStore connects to MongoDB and verifies the connection with a ping.
func NewMongoStore(ctx context.Context, cfg Config, log logger.Interface) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", domain.ErrStorage, err)
	}

	if pingErr := client.Ping(ctx, nil); pingErr != nil {
		return nil, fmt.Errorf("%w: ping: %v", domain.ErrStorage, pingErr)
	}

	db := client.Database(cfg.Database)

	return &MongoStore{
		pages:         db.Collection(pagesCollection),
		domains:       db.Collection(domainsCollection),
		log:           log,
		retryAttempts: cfg.RetryAttempts,
		retryBackoff:  cfg.RetryBackoff,
	}, nil
}

// Disconnect closes the underlying client.
func (s *MongoStore) Disconnect(ctx context.Context) error {
	return s.pages.Database().Client().Disconnect(ctx)
}

// UpsertPageResult stores a scored page keyed by (url, fetched_at).
func (s *MongoStore) UpsertPageResult(ctx context.Context, result domain.ScoredResult) error {
	filter := bson.M{"url": result.URL, "fetched_at": result.FetchedAt}
	update := bson.M{"$set": result}

	return s.withRetry(ctx, "upsert page result", func(callCtx context.Context) error {
		_, err := s.pages.UpdateOne(callCtx, filter, update, options.Update().SetUpsert(true))
		return err
	})
}

// UpsertDomainRecord merges a record into the domains collection. Only
// non-empty incoming fields are written, so a later lookup that lost its
// WHOIS data does not erase an earlier complete record. Arrays and record
// sets are replaced wholesale.
func (s *MongoStore) UpsertDomainRecord(ctx context.Context, rec domain.DomainRecord) error {
	set := bson.M{
		"domain":       rec.Domain,
		"last_updated": rec.LastUpdated,
	}
	if rec.Registrar != "" {
		set["registrar"] = rec.Registrar
	}
	if rec.CreationDate != nil {
		set["creation_date"] = rec.CreationDate
	}
	if rec.ExpirationDate != nil {
		set["expiration_date"] = rec.ExpirationDate
	}
	if rec.Status != "" {
		set["status"] = rec.Status
	}
	if len(rec.NameServers) > 0 {
		set["name_servers"] = rec.NameServers
	}
	if len(rec.DNSRecords) > 0 {
		set["dns_records"] = rec.DNSRecords
	}

	filter := bson.M{"domain": rec.Domain}
	update := bson.M{"$set": set}

	return s.withRetry(ctx, "upsert domain record", func(callCtx context.Context) error {
		_, err := s.domains.UpdateOne(callCtx, filter, update, options.Update().SetUpsert(true))
		return err
	})
}

// FindHighRisk returns stored results at or above minScore, highest first.
func (s *MongoStore) FindHighRisk(ctx context.Context, minScore, limit int) ([]domain.ScoredResult, error) {
	filter := bson.M{"suspicious_score": bson.M{"$gte": minScore}}

	opts := options.Find().SetSort(bson.D{{Key: "suspicious_score", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := s.pages.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find high risk: %v", domain.ErrStorage, err)
	}
	defer cursor.Close(ctx)

	var results []domain.ScoredResult
	if decodeErr := cursor.All(ctx, &results); decodeErr != nil {
		return nil, fmt.Errorf("%w: decode high risk: %v", domain.ErrStorage, decodeErr)
	}

	return results, nil
}

// FindDomain returns the stored record for name, or nil when absent.
func (s *MongoStore) FindDomain(ctx context.Context, name string) (*domain.DomainRecord, error) {
	var rec domain.DomainRecord

	err := s.domains.FindOne(ctx, bson.M{"domain": name}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find domain: %v", domain.ErrStorage, err)
	}

	return &rec, nil
}

// withRetry runs op with capped exponential backoff. Exhausted retries map
// to domain.ErrStorage; the caller reports the task failed and the run
// continues.
func (s *MongoStore) withRetry(ctx context.Context, what string, op func(context.Context) error) error {
	attempts := s.retryAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := s.retryBackoff
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		s.log.Warn("storage operation failed, retrying",
			logger.String("op", what),
			logger.Int("attempt", attempt),
			logger.Err(lastErr))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", domain.ErrStorage, what, ctx.Err())
		}

		backoff *= 2
	}

	return fmt.Errorf("%w: %s: %v", domain.ErrStorage, what, lastErr)
}
