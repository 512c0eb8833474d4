package installer

import (
	"github.com/kelvie/precache/internal/cachestore"
	"github.com/kelvie/precache/internal/manifest"
)

// InstallExecution summarizes one successful populate operation.
type InstallExecution struct {
	StoreName   string
	StoreDir    string
	TotalAssets int
	TotalBytes  int64
	DryRun      bool
}

// stagedEntry is one fetched asset waiting for the commit phase. Nothing
// is written to the store until every manifest entry has been staged.
type stagedEntry struct {
	asset manifest.ResolvedAsset
	entry cachestore.Entry
}
