package purge

import "strings"

// Files returns the full list of files to purge: the sentinel followed by changed.
func Files(changed []string) []string {
	files := make([]string, 0, len(changed)+1)
	files = append(files, SentinelFile)
	return append(files, changed...)
}

// URL joins a file path onto the base domain.
func URL(domain, file string) string {
	return strings.TrimRight(domain, "/") + "/" + file
}

// Build expands changed files across origins into a single payload.
// The sentinel file is always included, so the payload holds
// len(origins) * (len(changed)+1) entries, ordered by origin then file.
func Build(domain string, changed []string, origins []string) *Payload {
	files := Files(changed)
	payload := &Payload{
		Paths:   files,
		Origins: append([]string(nil), origins...),
		Entries: make([]Entry, 0, len(origins)*len(files)),
	}

	for _, origin := range origins {
		for _, f := range files {
			payload.Entries = append(payload.Entries, Entry{
				URL:     URL(domain, f),
				Headers: map[string]string{OriginHeader: origin},
			})
		}
	}

	return payload
}
