package manifest

import "net/url"

// Manifest is the ordered, immutable list of relative asset identifiers
// the installer must pre-cache. Construction is the only mutation point;
// a built Manifest never changes.
type Manifest struct {
	entries []string
}

func (m Manifest) Entries() []string {
	entries := make([]string, len(m.entries))
	copy(entries, m.entries)
	return entries
}

func (m Manifest) Len() int {
	return len(m.entries)
}

// ResolvedAsset pairs one manifest entry with the absolute URL it will be
// fetched from and the canonical key it will be stored under.
type ResolvedAsset struct {
	Entry    string
	FetchURL url.URL
	Key      string
}
