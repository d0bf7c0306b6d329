// Package intel enriches hostnames with WHOIS registration data and DNS
// record sets. Results are cached process-wide with a TTL, and concurrent
// lookups for the same hostname collapse into one in-flight call.
package intel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/likexian/whois"

	"github.com/jonesrussell/scamintel/internal/domain"
	"github.com/jonesrussell/scamintel/internal/logger"
)

// dnsRecordTypes lists the record sets gathered for every hostname.
var dnsRecordTypes = []string{"A", "MX", "NS", "TXT"}

// WhoisClient performs a registration lookup, returning the raw record text.
type WhoisClient interface {
	Lookup(ctx context.Context, domainName string) (string, error)
}

// DNSResolver answers individual DNS queries.
type DNSResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupMX(ctx context.Context, host string) ([]*net.MX, error)
	LookupNS(ctx context.Context, host string) ([]*net.NS, error)
	LookupTXT(ctx context.Context, host string) ([]string, error)
}

// Gatherer looks up and caches domain intelligence.
type Gatherer struct {
	whois    WhoisClient
	resolver DNSResolver
	log      logger.Interface
	timeout  time.Duration

	cache *recordCache
	now   func() time.Time
}

// Option configures a Gatherer.
type Option func(*Gatherer)

// WithWhoisClient substitutes the WHOIS client. Used in tests.
func WithWhoisClient(c WhoisClient) Option {
	return func(g *Gatherer) { g.whois = c }
}

// WithDNSResolver substitutes the DNS resolver. Used in tests.
func WithDNSResolver(r DNSResolver) Option {
	return func(g *Gatherer) { g.resolver = r }
}

// WithClock substitutes the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gatherer) { g.now = now }
}

// NewGatherer builds a gatherer with the given cache TTL and per-lookup
// timeout.
func NewGatherer(cacheTTL, lookupTimeout time.Duration, log logger.Interface, opts ...Option) *Gatherer {
	g := &Gatherer{
		whois:    likexianClient{},
		resolver: net.DefaultResolver,
		log:      log,
		timeout:  lookupTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.cache = newRecordCache(cacheTTL, g.now)

	return g
}

// Gather returns the DomainRecord for hostname, from cache when fresh.
// When the registry has no data for the hostname the record comes back with
// empty registration fields but populated DNS sets; that is not an error.
// domain.ErrLookupUnavailable is returned only when neither WHOIS nor DNS
// could be reached.
func (g *Gatherer) Gather(ctx context.Context, hostname string) (*domain.DomainRecord, error) {
	hostname = strings.ToLower(strings.TrimSuffix(hostname, "."))
	if hostname == "" {
		return nil, fmt.Errorf("%w: empty hostname", domain.ErrLookupUnavailable)
	}

	if rec, ok := g.cache.get(hostname); ok {
		return rec, nil
	}

	// Collapse concurrent callers: only the leader performs the lookup,
	// the rest wait for its result.
	rec, err, leader := g.cache.beginFlight(hostname)
	if !leader {
		return rec, err
	}

	rec, err = g.lookup(ctx, hostname)
	g.cache.endFlight(hostname, rec, err)

	return rec, err
}

func (g *Gatherer) lookup(ctx context.Context, hostname string) (*domain.DomainRecord, error) {
	rec := &domain.DomainRecord{
		Domain:      hostname,
		DNSRecords:  make(map[string][]string, len(dnsRecordTypes)),
		LastUpdated: g.now().UTC(),
	}

	whoisErr := g.gatherWhois(ctx, hostname, rec)
	dnsErr := g.gatherDNS(ctx, hostname, rec)

	if whoisErr != nil && !errors.Is(whoisErr, domain.ErrRegistrationNotFound) && dnsErr != nil {
		return nil, fmt.Errorf("%w: whois: %v; dns: %v", domain.ErrLookupUnavailable, whoisErr, dnsErr)
	}

	if whoisErr != nil {
		g.log.Debug("whois data unavailable, keeping dns-only record",
			logger.String("domain", hostname), logger.Err(whoisErr))
	}

	return rec, nil
}

// gatherWhois fills registration fields from the raw WHOIS text. A registry
// no-match answer maps to domain.ErrRegistrationNotFound.
func (g *Gatherer) gatherWhois(ctx context.Context, hostname string, rec *domain.DomainRecord) error {
	lookupCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.whois.Lookup(lookupCtx, hostname)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLookupUnavailable, err)
	}

	parsed := parseWhois(raw)
	if parsed.notFound {
		return domain.ErrRegistrationNotFound
	}

	rec.Registrar = parsed.registrar
	rec.CreationDate = parsed.creationDate
	rec.ExpirationDate = parsed.expirationDate
	rec.Status = parsed.status
	rec.NameServers = parsed.nameServers

	return nil
}

// gatherDNS fills the A/MX/NS/TXT record sets. Missing individual record
// types are normal; only a total failure is reported.
func (g *Gatherer) gatherDNS(ctx context.Context, hostname string, rec *domain.DomainRecord) error {
	lookupCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	failures := 0

	if addrs, err := g.resolver.LookupHost(lookupCtx, hostname); err == nil {
		rec.DNSRecords["A"] = addrs
	} else {
		failures++
	}

	if mxs, err := g.resolver.LookupMX(lookupCtx, hostname); err == nil {
		hosts := make([]string, 0, len(mxs))
		for _, mx := range mxs {
			hosts = append(hosts, strings.TrimSuffix(mx.Host, "."))
		}
		rec.DNSRecords["MX"] = hosts
	} else {
		failures++
	}

	if nss, err := g.resolver.LookupNS(lookupCtx, hostname); err == nil {
		hosts := make([]string, 0, len(nss))
		for _, ns := range nss {
			hosts = append(hosts, strings.TrimSuffix(ns.Host, "."))
		}
		rec.DNSRecords["NS"] = hosts
	} else {
		failures++
	}

	if txts, err := g.resolver.LookupTXT(lookupCtx, hostname); err == nil {
		rec.DNSRecords["TXT"] = txts
	} else {
		failures++
	}

	if failures == len(dnsRecordTypes) {
		return fmt.Errorf("all record lookups failed for %s", hostname)
	}

	return nil
}

// likexianClient adapts the likexian whois package, which has no context
// support, by running the lookup in a goroutine bounded by ctx.
type likexianClient struct{}

func (likexianClient) Lookup(ctx context.Context, domainName string) (string, error) {
	type result struct {
		raw string
		err error
	}

	ch := make(chan result, 1)
	go func() {
		raw, err := whois.Whois(domainName)
		ch <- result{raw, err}
	}()

	select {
	case res := <-ch:
		return res.raw, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
