package manifest_test

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelvie/precache/internal/manifest"
)

func TestNew_PreservesOrder(t *testing.T) {
	man, err := manifest.New([]string{"./", "./index.html", "./app.js", "./app.wasm"})
	require.Nil(t, err)

	assert.Equal(t, []string{"./", "./index.html", "./app.js", "./app.wasm"}, man.Entries())
	assert.Equal(t, 4, man.Len())
}

func TestNew_DeduplicatesKeepingFirst(t *testing.T) {
	man, err := manifest.New([]string{"./app.js", "./index.html", "./app.js", "app.js"})
	require.Nil(t, err)

	// "./app.js" and "app.js" clean to the same path
	assert.Equal(t, []string{"./app.js", "./index.html"}, man.Entries())
}

func TestNew_RejectsEmptyList(t *testing.T) {
	_, err := manifest.New(nil)
	require.NotNil(t, err)

	var manErr *manifest.ManifestError
	require.True(t, errors.As(err, &manErr))
	assert.Equal(t, manifest.ErrCauseEmptyManifest, manErr.Cause)
}

func TestNew_RejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name     string
		entries  []string
		expected manifest.ManifestErrorCause
	}{
		{
			name:     "blank entry",
			entries:  []string{"./", "  "},
			expected: manifest.ErrCauseEmptyEntry,
		},
		{
			name:     "absolute URL entry",
			entries:  []string{"https://cdn.example.com/app.js"},
			expected: manifest.ErrCauseAbsoluteEntry,
		},
		{
			name:     "scheme-relative entry",
			entries:  []string{"//cdn.example.com/app.js"},
			expected: manifest.ErrCauseAbsoluteEntry,
		},
		{
			name:     "escaping entry",
			entries:  []string{"../secret.txt"},
			expected: manifest.ErrCauseEscapingEntry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manifest.New(tt.entries)
			require.NotNil(t, err)

			var manErr *manifest.ManifestError
			require.True(t, errors.As(err, &manErr))
			assert.Equal(t, tt.expected, manErr.Cause)
		})
	}
}

func TestResolve_MapsEntriesToKeys(t *testing.T) {
	man, err := manifest.New([]string{"./", "./index.html", "./app.js", "./app.wasm"})
	require.Nil(t, err)

	base, parseErr := url.Parse("https://example.com/")
	require.NoError(t, parseErr)

	resolved, resolveErr := man.Resolve(*base)
	require.Nil(t, resolveErr)
	require.Len(t, resolved, 4)

	assert.Equal(t, "https://example.com/", resolved[0].Key)
	assert.Equal(t, "https://example.com/index.html", resolved[1].Key)
	assert.Equal(t, "https://example.com/app.js", resolved[2].Key)
	assert.Equal(t, "https://example.com/app.wasm", resolved[3].Key)

	for i, asset := range resolved {
		assert.Equal(t, man.Entries()[i], asset.Entry)
	}
}

func TestResolve_IsStableAcrossCalls(t *testing.T) {
	man, err := manifest.New([]string{"./app.js"})
	require.Nil(t, err)

	base, _ := url.Parse("https://example.com/")

	first, firstErr := man.Resolve(*base)
	require.Nil(t, firstErr)
	second, secondErr := man.Resolve(*base)
	require.Nil(t, secondErr)

	assert.Equal(t, first, second)
}
