// Package extract scans page text and HTML for fraud indicators: contact
// identifiers, cryptocurrency wallet addresses and social-media profiles.
// All extractors are pure functions: no I/O, deterministic for identical
// input.
package extract

import (
	"regexp"
	"strings"

	"github.com/jonesrussell/scamintel/internal/domain"
)

// maxInputBytes bounds extractor input. Pages larger than this are truncated
// before matching so pathological documents cannot blow up match time.
const maxInputBytes = 2 * 1024 * 1024

// maxTokenLen rejects any single candidate match longer than this.
const maxTokenLen = 128

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,24}`)

	// Matches  +1 (234) 567-8901,  234-567-8901,  1.234.567.8901,  +12345678901.
	phonePattern = regexp.MustCompile(
		`(?:\+\d{1,3}[\s.-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`)
)

// walletFamily pairs a wallet-type tag with the structural pattern of its
// address format. Families are matched independently and in this fixed
// order; an address matching several families is reported once per family.
type walletFamily struct {
	walletType string
	pattern    *regexp.Regexp
}

var walletFamilies = []walletFamily{
	{"btc-like", regexp.MustCompile(`\b[13][a-km-zA-HJ-NP-Z1-9]{25,34}\b`)},
	{"btc-bech32", regexp.MustCompile(`\bbc1[a-z0-9]{25,39}\b`)},
	{"eth", regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`)},
	{"ltc", regexp.MustCompile(`\b[LM3][a-km-zA-HJ-NP-Z1-9]{26,33}\b`)},
	{"xrp", regexp.MustCompile(`\br[0-9a-zA-Z]{24,34}\b`)},
}

// socialPlatform pairs a platform name with the URL path shape of its
// profile links. The handle is the first capture group.
type socialPlatform struct {
	platform string
	pattern  *regexp.Regexp
}

var socialPlatforms = []socialPlatform{
	{"facebook", regexp.MustCompile(`facebook\.com/([\w.]+)`)},
	{"twitter", regexp.MustCompile(`twitter\.com/(\w+)`)},
	{"instagram", regexp.MustCompile(`instagram\.com/([\w.]+)`)},
	{"telegram", regexp.MustCompile(`t\.me/(\w+)`)},
	{"whatsapp", regexp.MustCompile(`wa\.me/(\d+)`)},
	{"discord", regexp.MustCompile(`discord\.gg/(\w+)`)},
}

// socialPathBlocklist filters platform paths that are site chrome rather
// than profiles.
var socialPathBlocklist = map[string]struct{}{
	"sharer": {}, "share": {}, "intent": {}, "home": {}, "login": {},
	"privacy": {}, "policies": {}, "hashtag": {}, "search": {},
}

// Extract scans the normalized page text and raw HTML and returns every
// indicator found, deduplicated within the page. Emails and phones behave as
// sets; wallets and profiles keep first-seen order, deduplicated by
// (type, address) and (platform, handle). All collections come back
// allocated so an empty result marshals as [] rather than null.
func Extract(normalizedText, rawHTML string) domain.Extractions {
	content := bound(normalizedText) + "\n" + bound(rawHTML)

	return domain.Extractions{
		Emails:         extractEmails(content),
		Phones:         extractPhones(content),
		CryptoWallets:  extractWallets(content),
		SocialProfiles: extractSocialProfiles(content),
	}
}

func extractEmails(content string) []string {
	var (
		out  = []string{}
		seen = map[string]struct{}{}
	)

	for _, m := range emailPattern.FindAllString(content, -1) {
		if len(m) > maxTokenLen {
			continue
		}
		email := strings.ToLower(m)
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}

	return out
}

func extractPhones(content string) []string {
	var (
		out  = []string{}
		seen = map[string]struct{}{}
	)

	for _, m := range phonePattern.FindAllString(content, -1) {
		if len(m) > maxTokenLen {
			continue
		}
		phone := StandardizePhone(m)
		if phone == "" {
			continue
		}
		if _, dup := seen[phone]; dup {
			continue
		}
		seen[phone] = struct{}{}
		out = append(out, phone)
	}

	return out
}

// StandardizePhone reduces a matched phone candidate to a canonical
// +<digits> form. Ten-digit numbers are assumed North American. Candidates
// with too few digits are rejected.
func StandardizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	switch {
	case len(d) == 10:
		return "+1" + d
	case len(d) > 10 && len(d) <= 15:
		return "+" + d
	default:
		return ""
	}
}

func extractWallets(content string) []domain.CryptoWallet {
	var (
		out  = []domain.CryptoWallet{}
		seen = map[domain.CryptoWallet]struct{}{}
	)

	for _, family := range walletFamilies {
		for _, m := range family.pattern.FindAllString(content, -1) {
			if len(m) > maxTokenLen {
				continue
			}
			wallet := domain.CryptoWallet{Type: family.walletType, Address: m}
			if _, dup := seen[wallet]; dup {
				continue
			}
			seen[wallet] = struct{}{}
			out = append(out, wallet)
		}
	}

	return out
}

func extractSocialProfiles(content string) []domain.SocialProfile {
	var (
		out  = []domain.SocialProfile{}
		seen = map[domain.SocialProfile]struct{}{}
	)

	for _, sp := range socialPlatforms {
		for _, m := range sp.pattern.FindAllStringSubmatch(content, -1) {
			handle := strings.TrimSuffix(m[1], ".")
			if handle == "" || len(handle) > maxTokenLen {
				continue
			}
			if _, blocked := socialPathBlocklist[strings.ToLower(handle)]; blocked {
				continue
			}
			profile := domain.SocialProfile{Platform: sp.platform, Handle: handle}
			if _, dup := seen[profile]; dup {
				continue
			}
			seen[profile] = struct{}{}
			out = append(out, profile)
		}
	}

	return out
}

// bound truncates input to the extractor size limit.
func bound(s string) string {
	if len(s) > maxInputBytes {
		return s[:maxInputBytes]
	}

	return s
}
