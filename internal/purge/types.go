package purge

import "encoding/json"

// SentinelFile is purged on every run, whether or not any data file changed.
const SentinelFile = "meta.json"

// OriginHeader is the request header each entry sets to pick the cached variant.
const OriginHeader = "Origin"

// Entry is a single URL to purge, as seen from one origin.
type Entry struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

// Origin returns the Origin header value for the entry.
func (e Entry) Origin() string {
	return e.Headers[OriginHeader]
}

// Payload holds every entry for a single purge call.
type Payload struct {
	Paths   []string // File paths, sentinel first
	Origins []string
	Entries []Entry
}

// Body returns the JSON request body sent to the purge endpoint.
func (p *Payload) Body() ([]byte, error) {
	return json.Marshal(struct {
		Files []Entry `json:"files"`
	}{Files: p.Entries})
}
