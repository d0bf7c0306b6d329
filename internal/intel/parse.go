package intel

import (
	"strings"
	"time"
)

// parsedWhois holds the registration fields scraped from raw WHOIS text.
type parsedWhois struct {
	registrar      string
	creationDate   *time.Time
	expirationDate *time.Time
	status         string
	nameServers    []string
	notFound       bool
}

// notFoundPatterns indicate the registry has no data for the queried name.
var notFoundPatterns = []string{
	"no match for",
	"not found",
	"no entries found",
	"domain not found",
	"no data found",
	"no object found",
	"object does not exist",
	"the queried object does not exist",
	"no such domain",
	"no matching record",
}

// whoisDateLayouts covers the date formats seen across registries.
var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"02.01.2006",
}

// parseWhois scans raw WHOIS text line by line. WHOIS has no standard
// format, so fields are matched by their common key names across registries.
func parseWhois(raw string) parsedWhois {
	var out parsedWhois

	lower := strings.ToLower(raw)
	for _, pattern := range notFoundPatterns {
		if strings.Contains(lower, pattern) {
			out.notFound = true
			return out
		}
	}

	seenNS := map[string]struct{}{}

	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := splitWhoisLine(line)
		if !ok {
			continue
		}

		switch key {
		case "registrar":
			if out.registrar == "" {
				out.registrar = value
			}
		case "creation date", "created", "created on", "registered on", "registration date":
			if out.creationDate == nil {
				out.creationDate = parseWhoisDate(value)
			}
		case "registry expiry date", "expiration date", "expiry date", "expires", "expires on":
			if out.expirationDate == nil {
				out.expirationDate = parseWhoisDate(value)
			}
		case "domain status", "status":
			if out.status == "" {
				// Status lines often carry a trailing ICANN URL.
				out.status = strings.Fields(value)[0]
			}
		case "name server", "nameserver", "nserver":
			ns := strings.ToLower(strings.TrimSuffix(value, "."))
			if _, dup := seenNS[ns]; !dup && ns != "" {
				seenNS[ns] = struct{}{}
				out.nameServers = append(out.nameServers, ns)
			}
		}
	}

	return out
}

// splitWhoisLine splits "Key: value" records, lowercasing the key.
func splitWhoisLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}

	key = strings.ToLower(strings.TrimSpace(line[:idx]))
	value = strings.TrimSpace(line[idx+1:])
	if value == "" {
		return "", "", false
	}

	return key, value, true
}

// parseWhoisDate tries the known registry layouts, returning nil when none
// match.
func parseWhoisDate(value string) *time.Time {
	for _, layout := range whoisDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}

	return nil
}
