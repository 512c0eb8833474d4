package manifest

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/kelvie/precache/pkg/failure"
	"github.com/kelvie/precache/pkg/urlutil"
)

/*
Discovery Strategy
- Parse the shell document into a DOM tree
- Collect subresource references in document order:
	- <link href>
	- <script src>
	- <img src>
- Keep only same-host references
- Rewrite each reference as a path relative to the base URL root

Discovery supplements the configured asset list; it never replaces it.
References on other hosts are skipped, not errors.
*/

var subresourceSelectors = []struct {
	selector string
	attr     string
}{
	{"link[href]", "href"},
	{"script[src]", "src"},
	{"img[src]", "src"},
}

// Discover extracts same-host subresource references from an HTML shell
// document, as additional manifest entries in document order. Duplicates
// are collapsed to the first occurrence.
func Discover(base url.URL, htmlBody []byte) ([]string, failure.ClassifiedError) {
	node, err := html.Parse(bytes.NewReader(htmlBody))
	if err != nil {
		return nil, &ManifestError{
			Message: fmt.Sprintf("unparseable shell document: %v", err),
			Cause:   ErrCauseUnparseable,
		}
	}
	doc := goquery.NewDocumentFromNode(node)

	canonicalBase := urlutil.Canonicalize(base)

	seen := make(map[string]struct{})
	var discovered []string

	for _, rule := range subresourceSelectors {
		doc.Find(rule.selector).Each(func(_ int, sel *goquery.Selection) {
			ref, exists := sel.Attr(rule.attr)
			if !exists || strings.TrimSpace(ref) == "" {
				return
			}

			resolved, resolveErr := urlutil.Resolve(base, ref)
			if resolveErr != nil {
				return
			}
			canonical := urlutil.Canonicalize(resolved)
			if canonical.Host != canonicalBase.Host || canonical.Scheme != canonicalBase.Scheme {
				return
			}

			entry := canonical.Path
			if entry == "" {
				entry = "/"
			}
			if _, dup := seen[entry]; dup {
				return
			}
			seen[entry] = struct{}{}
			discovered = append(discovered, entry)
		})
	}

	return discovered, nil
}
