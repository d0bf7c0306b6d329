package domain

import "errors"

// Error taxonomy for the crawl pipeline. Failures are always local to a
// single task; none of these abort the run.
var (
	// ErrFetch wraps network, timeout and HTTP-status failures from the
	// fetch capability. Retryable up to the configured retry limit.
	ErrFetch = errors.New("fetch failed")

	// ErrParse marks a malformed document. Non-retryable; the page is
	// persisted with empty extractions rather than dropped.
	ErrParse = errors.New("parse failed")

	// ErrLookupUnavailable means the WHOIS or DNS resolver was unreachable
	// or timed out. Non-fatal; the page is persisted without domain info.
	ErrLookupUnavailable = errors.New("domain lookup unavailable")

	// ErrRegistrationNotFound means no registration data exists for the
	// hostname. Not an error condition: DNS fields are still populated.
	ErrRegistrationNotFound = errors.New("registration data not found")

	// ErrStorage wraps persistence failures after adapter-side retries
	// are exhausted.
	ErrStorage = errors.New("storage failed")

	// ErrFrontierClosed is returned by Dequeue once the frontier has
	// quiesced or been closed; it tells workers to exit.
	ErrFrontierClosed = errors.New("frontier closed")

	// ErrDuplicateURL reports an enqueue rejected by same-run dedup.
	ErrDuplicateURL = errors.New("duplicate url")

	// ErrDepthExceeded reports an enqueue beyond the configured max depth.
	ErrDepthExceeded = errors.New("depth exceeded")
)
