package manifest

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/kelvie/precache/pkg/failure"
	"github.com/kelvie/precache/pkg/urlutil"
)

/*
Responsibilities
- Validate asset identifiers
- Preserve configuration order
- Deduplicate entries
- Resolve entries against the base URL

The manifest knows nothing about fetching or storage. It is a data
structure + validation module, not a pipeline executor.

Entry rules:
- An entry is a relative path ("./", "./app.js", "app.wasm", "/icons/x.png")
- Entries with a scheme or host are rejected
- Entries that escape above the base path ("../secret") are rejected
- Duplicates collapse to the first occurrence, order otherwise preserved
*/

// New validates the raw entries and builds an immutable Manifest.
// The input slice is not retained.
func New(rawEntries []string) (Manifest, failure.ClassifiedError) {
	if len(rawEntries) == 0 {
		return Manifest{}, &ManifestError{
			Message: "asset list cannot be empty",
			Cause:   ErrCauseEmptyManifest,
		}
	}

	seen := make(map[string]struct{}, len(rawEntries))
	entries := make([]string, 0, len(rawEntries))

	for _, raw := range rawEntries {
		cleaned, err := validateEntry(raw)
		if err != nil {
			return Manifest{}, err
		}
		if _, exists := seen[cleaned]; exists {
			continue
		}
		seen[cleaned] = struct{}{}
		entries = append(entries, raw)
	}

	return Manifest{entries: entries}, nil
}

// Resolve maps every entry to the absolute URL it will be fetched from and
// the canonical key it will be stored under, in manifest order.
func (m Manifest) Resolve(base url.URL) ([]ResolvedAsset, failure.ClassifiedError) {
	resolved := make([]ResolvedAsset, 0, len(m.entries))
	for _, entry := range m.entries {
		fetchURL, err := urlutil.Resolve(base, entry)
		if err != nil {
			return nil, &ManifestError{
				Message: err.Error(),
				Cause:   ErrCauseUnparseable,
			}
		}
		key := urlutil.Canonicalize(fetchURL)
		resolved = append(resolved, ResolvedAsset{
			Entry:    entry,
			FetchURL: fetchURL,
			Key:      key.String(),
		})
	}
	return resolved, nil
}

// validateEntry checks a single raw entry and returns its cleaned form,
// which is used only for deduplication.
func validateEntry(raw string) (string, failure.ClassifiedError) {
	if strings.TrimSpace(raw) == "" {
		return "", &ManifestError{
			Message: "entry is empty",
			Cause:   ErrCauseEmptyEntry,
		}
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", &ManifestError{
			Message: fmt.Sprintf("%q: %v", raw, err),
			Cause:   ErrCauseUnparseable,
		}
	}
	if parsed.Scheme != "" || parsed.Host != "" {
		return "", &ManifestError{
			Message: fmt.Sprintf("%q must be a relative path", raw),
			Cause:   ErrCauseAbsoluteEntry,
		}
	}

	cleaned := path.Clean(parsed.Path)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", &ManifestError{
			Message: fmt.Sprintf("%q escapes the base path", raw),
			Cause:   ErrCauseEscapingEntry,
		}
	}

	// "./" and "." both mean the base document itself
	if cleaned == "." {
		cleaned = "./"
	}
	return cleaned, nil
}
