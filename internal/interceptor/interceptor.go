package interceptor

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kelvie/precache/internal/cachestore"
	"github.com/kelvie/precache/internal/metadata"
	"github.com/kelvie/precache/pkg/urlutil"
)

/*
Responsibilities
- Serve requests from a populated cache store
- Fall back to the network upstream on a miss

The interceptor has exactly two states per request:
- check-cache: canonicalize the request path against the upstream base
  and look the key up in the store
- fallback-to-network: proxy the request to the upstream and stream the
  response through unchanged

It is fully decoupled from the installer: it never writes to the store,
never triggers an install, and serves whatever the last successful
install committed.
*/

type Handler struct {
	store        *cachestore.Store
	upstream     http.Handler
	metadataSink metadata.MetadataSink
	keyFor       func(*http.Request) string
}

// New builds an interceptor over a populated store. Cache keys are
// derived the same way the installer derives them: the request path
// resolved against base, canonicalized.
func New(
	store *cachestore.Store,
	base url.URL,
	upstream http.Handler,
	metadataSink metadata.MetadataSink,
) *Handler {
	return &Handler{
		store:        store,
		upstream:     upstream,
		metadataSink: metadataSink,
		keyFor: func(r *http.Request) string {
			resolved, err := urlutil.Resolve(base, r.URL.Path)
			if err != nil {
				return ""
			}
			canonical := urlutil.Canonicalize(resolved)
			return canonical.String()
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only idempotent reads can be answered from the cache
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.serveNetwork(w, r)
		return
	}

	key := h.keyFor(r)
	if key == "" {
		h.serveNetwork(w, r)
		return
	}

	entry, found, err := h.store.Get(key)
	if err != nil {
		// A broken store entry must not take the request down
		h.recordError(r, err.Error())
		h.serveNetwork(w, r)
		return
	}
	if !found {
		h.serveNetwork(w, r)
		return
	}

	h.serveEntry(w, r, entry)
}

func (h *Handler) serveEntry(w http.ResponseWriter, r *http.Request, entry cachestore.Entry) {
	if entry.ContentType != "" {
		w.Header().Set("Content-Type", entry.ContentType)
	}
	w.Header().Set(outcomeHeader, string(OutcomeCacheHit))
	statusCode := entry.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)
	if r.Method == http.MethodHead {
		return
	}
	w.Write(entry.Body)
}

func (h *Handler) serveNetwork(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(outcomeHeader, string(OutcomeNetwork))
	h.upstream.ServeHTTP(w, r)
}

func (h *Handler) recordError(r *http.Request, details string) {
	h.metadataSink.RecordError(
		time.Now(),
		"interceptor",
		"Handler.ServeHTTP",
		metadata.CauseStorageFailure,
		details,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, r.URL.String()),
		},
	)
}

// NetworkUpstream proxies a request to the configured base URL, the
// fallback-to-network state's default collaborator.
type NetworkUpstream struct {
	base       url.URL
	httpClient *http.Client
}

func NewNetworkUpstream(base url.URL, httpClient *http.Client) *NetworkUpstream {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &NetworkUpstream{base: base, httpClient: httpClient}
}

func (u *NetworkUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target, err := urlutil.Resolve(u.base, r.URL.Path)
	if err != nil {
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	if r.URL.RawQuery != "" {
		target.RawQuery = r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	req.Header = r.Header.Clone()
	req.ContentLength = r.ContentLength

	resp, err := u.httpClient.Do(req)
	if err != nil {
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}
