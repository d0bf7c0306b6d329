// Package domain defines the core data model shared across the crawl
// pipeline: frontier tasks, visit lifecycle records, extraction results,
// domain intelligence and scored output documents.
package domain

import "time"

// VisitStatus tracks the lifecycle of a URL within a single crawl run.
// Transitions are monotonic: pending -> in_progress -> done|failed.
type VisitStatus string

const (
	VisitPending    VisitStatus = "pending"
	VisitInProgress VisitStatus = "in_progress"
	VisitDone       VisitStatus = "done"
	VisitFailed     VisitStatus = "failed"
)

// CrawlTask is a unit of crawl work. Immutable once created; consumed exactly
// once by a worker.
type CrawlTask struct {
	// URL is the normalized absolute URL to fetch.
	URL string
	// Depth is the link distance from the seed that discovered this task.
	Depth int
	// Origin is the parent URL that linked here. Provenance only.
	Origin string
	// Attempt counts fetch attempts for this URL, starting at 1.
	Attempt int
}

// VisitRecord is the frontier's per-URL bookkeeping. Owned exclusively by
// the frontier; mutated only through its synchronized API.
type VisitRecord struct {
	URL       string
	Status    VisitStatus
	Attempts  int
	LastError string
}

// CryptoWallet is a cryptocurrency address tagged with its format family.
type CryptoWallet struct {
	Type    string `bson:"type" json:"type"`
	Address string `bson:"address" json:"address"`
}

// SocialProfile is a social-media profile reference found on a page.
type SocialProfile struct {
	Platform string `bson:"platform" json:"platform"`
	Handle   string `bson:"handle" json:"handle"`
}

// Extractions holds everything the pattern extractors pulled from one page.
// Emails and phones are deduplicated sets; wallets and profiles are
// deduplicated sequences preserving first-seen order.
type Extractions struct {
	Emails         []string        `bson:"emails" json:"emails"`
	Phones         []string        `bson:"phones" json:"phones"`
	CryptoWallets  []CryptoWallet  `bson:"crypto_wallets" json:"crypto_wallets"`
	SocialProfiles []SocialProfile `bson:"social_profiles" json:"social_profiles"`
}

// EmptyExtractions returns an Extractions with all collections allocated,
// so pages without indicators persist empty arrays rather than nulls.
func EmptyExtractions() Extractions {
	return Extractions{
		Emails:         []string{},
		Phones:         []string{},
		CryptoWallets:  []CryptoWallet{},
		SocialProfiles: []SocialProfile{},
	}
}

// IsEmpty reports whether no indicator of any kind was extracted.
func (e Extractions) IsEmpty() bool {
	return len(e.Emails) == 0 && len(e.Phones) == 0 &&
		len(e.CryptoWallets) == 0 && len(e.SocialProfiles) == 0
}

// PageResult is the immutable outcome of one successfully fetched page,
// before scoring.
type PageResult struct {
	URL         string      `bson:"url" json:"url"`
	Title       string      `bson:"title" json:"title"`
	Extractions Extractions `bson:"extractions" json:"extractions"`
	Domain      string      `bson:"domain" json:"domain"`
	FetchedAt   time.Time   `bson:"fetched_at" json:"fetched_at"`
}

// DomainRecord holds WHOIS registration data and DNS record sets for one
// hostname. Registration fields may be empty when the registry had no data;
// the scorer treats missing registration as a signal in its own right.
type DomainRecord struct {
	Domain         string              `bson:"domain" json:"domain"`
	Registrar      string              `bson:"registrar,omitempty" json:"registrar,omitempty"`
	CreationDate   *time.Time          `bson:"creation_date,omitempty" json:"creation_date,omitempty"`
	ExpirationDate *time.Time          `bson:"expiration_date,omitempty" json:"expiration_date,omitempty"`
	Status         string              `bson:"status,omitempty" json:"status,omitempty"`
	NameServers    []string            `bson:"name_servers,omitempty" json:"name_servers,omitempty"`
	DNSRecords     map[string][]string `bson:"dns_records,omitempty" json:"dns_records,omitempty"`
	LastUpdated    time.Time           `bson:"last_updated" json:"last_updated"`
}

// ScoredResult is the terminal artifact persisted to the primary collection:
// a PageResult plus its heuristic suspicion score.
type ScoredResult struct {
	PageResult `bson:",inline"`

	SuspiciousScore int      `bson:"suspicious_score" json:"suspicious_score"`
	ScoreReasons    []string `bson:"score_reasons,omitempty" json:"score_reasons,omitempty"`
	RunID           string   `bson:"run_id" json:"run_id"`
}
