package purge

import (
	"fmt"
	"net/url"
)

// MaxFilesPerRequest is the Cloudflare limit on URLs in one purge_cache call.
// See: https://developers.cloudflare.com/cache/how-to/purge-cache/purge-by-single-file/
const MaxFilesPerRequest = 30

// ValidationError describes a single malformed entry.
type ValidationError struct {
	Key     string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// PayloadStats holds summary size information for a Payload.
type PayloadStats struct {
	NumEntries int
	NumPaths   int
	NumOrigins int
}

// OverLimit reports whether the payload exceeds the per-request file limit.
func (s PayloadStats) OverLimit() bool {
	return s.NumEntries > MaxFilesPerRequest
}

// Stats returns entry, path and origin counts for the payload.
func (p *Payload) Stats() PayloadStats {
	return PayloadStats{
		NumEntries: len(p.Entries),
		NumPaths:   len(p.Paths),
		NumOrigins: len(p.Origins),
	}
}

// Validate checks that every URL and origin is absolute http(s). Returns nil if valid.
func (p *Payload) Validate() []ValidationError {
	var errs []ValidationError

	for _, origin := range p.Origins {
		if msg := checkHTTPURL(origin); msg != "" {
			errs = append(errs, ValidationError{Key: origin, Message: "origin " + msg})
		}
	}

	seen := make(map[string]bool)
	for _, e := range p.Entries {
		if seen[e.URL] {
			continue
		}
		seen[e.URL] = true
		if msg := checkHTTPURL(e.URL); msg != "" {
			errs = append(errs, ValidationError{Key: e.URL, Message: "url " + msg})
		}
	}

	return errs
}

func checkHTTPURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("does not parse: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("must use http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return "has no host"
	}
	return ""
}
