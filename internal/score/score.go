// Package score computes the heuristic suspicion score for a crawled page.
// Scoring is a declarative rule list evaluated in a fixed order, so scores
// are reproducible and each rule is independently testable.
package score

import (
	"strings"
	"time"

	"github.com/jonesrussell/scamintel/internal/domain"
)

// Config holds the scorer's tunable thresholds. These are heuristic
// defaults, not calibrated truths.
type Config struct {
	// RecentWindow marks a registration as suspicious when the domain was
	// created within it. Missing registration data also fires this rule:
	// unavailable is treated as suspicious, not neutral.
	RecentWindow time.Duration
	// EmailThreshold is the distinct-email count above which the
	// mass-contact rule fires.
	EmailThreshold int
	// SuspiciousTXT lists substrings of TXT records associated with
	// known-suspicious hosting and forwarding services.
	SuspiciousTXT []string
}

// Rule is one scoring signal. Eval returns the points the rule contributes;
// most rules are binary but some scale with the evidence found.
type Rule struct {
	Name string
	Eval func(page domain.PageResult, rec *domain.DomainRecord, cfg Config, now time.Time) int
}

// rules is the fixed evaluation order. Appending here is the only change
// needed to add a signal.
var rules = []Rule{
	{
		// One point per distinct wallet family present on the page.
		Name: "crypto_wallet_families",
		Eval: func(page domain.PageResult, _ *domain.DomainRecord, _ Config, _ time.Time) int {
			families := map[string]struct{}{}
			for _, w := range page.Extractions.CryptoWallets {
				families[w.Type] = struct{}{}
			}
			return len(families)
		},
	},
	{
		// Recently registered domain, or registration data absent.
		Name: "recently_registered",
		Eval: func(_ domain.PageResult, rec *domain.DomainRecord, cfg Config, now time.Time) int {
			if rec == nil || rec.CreationDate == nil {
				return 1
			}
			if now.Sub(*rec.CreationDate) < cfg.RecentWindow {
				return 1
			}
			return 0
		},
	},
	{
		// Unusually many distinct contact emails.
		Name: "email_harvest",
		Eval: func(page domain.PageResult, _ *domain.DomainRecord, cfg Config, _ time.Time) int {
			if len(page.Extractions.Emails) > cfg.EmailThreshold {
				return 1
			}
			return 0
		},
	},
	{
		// TXT record matches a known-suspicious hosting/forwarding signature.
		Name: "suspicious_txt",
		Eval: func(_ domain.PageResult, rec *domain.DomainRecord, cfg Config, _ time.Time) int {
			if rec == nil {
				return 0
			}
			for _, txt := range rec.DNSRecords["TXT"] {
				lower := strings.ToLower(txt)
				for _, sig := range cfg.SuspiciousTXT {
					if sig != "" && strings.Contains(lower, strings.ToLower(sig)) {
						return 1
					}
				}
			}
			return 0
		},
	},
	{
		// No social presence at all. A legitimacy proxy, not a certainty.
		Name: "no_social_profiles",
		Eval: func(page domain.PageResult, _ *domain.DomainRecord, _ Config, _ time.Time) int {
			if len(page.Extractions.SocialProfiles) == 0 {
				return 1
			}
			return 0
		},
	},
}

// Scorer evaluates the rule list against page results.
type Scorer struct {
	cfg Config
	now func() time.Time
}

// NewScorer builds a scorer with the given thresholds.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg, now: time.Now}
}

// NewScorerWithClock builds a scorer with an injected time source for
// deterministic tests.
func NewScorerWithClock(cfg Config, now func() time.Time) *Scorer {
	return &Scorer{cfg: cfg, now: now}
}

// Score returns the unweighted sum of all rule contributions plus the names
// of the rules that fired. rec may be nil when domain intelligence was
// unavailable. Identical inputs always produce the identical score.
func (s *Scorer) Score(page domain.PageResult, rec *domain.DomainRecord) (int, []string) {
	now := s.now().UTC()

	total := 0
	var reasons []string

	for _, rule := range rules {
		points := rule.Eval(page, rec, s.cfg, now)
		if points > 0 {
			total += points
			reasons = append(reasons, rule.Name)
		}
	}

	return total, reasons
}
