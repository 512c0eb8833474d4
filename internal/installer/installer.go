package installer

import (
	"context"
	"time"

	"github.com/kelvie/precache/internal/cachestore"
	"github.com/kelvie/precache/internal/config"
	"github.com/kelvie/precache/internal/fetcher"
	"github.com/kelvie/precache/internal/lifecycle"
	"github.com/kelvie/precache/internal/manifest"
	"github.com/kelvie/precache/internal/metadata"
	"github.com/kelvie/precache/pkg/failure"
	"github.com/kelvie/precache/pkg/hashutil"
	"github.com/kelvie/precache/pkg/pacer"
	"github.com/kelvie/precache/pkg/retry"
	"github.com/kelvie/precache/pkg/timeutil"
)

/*
 Installer is the sole control-plane authority of the install.

 Population guarantees:
 - Installer is the ONLY component allowed to mutate a cache store.
 - Population is all-or-nothing: every manifest entry is fetched and
   staged before the first store write happens, so a failed install
   leaves the previously persisted store contents untouched.
 - Population is additive: the installer never removes store entries.
 - Population is idempotent: object filenames derive from canonical keys,
   so installing the same manifest twice converges on the same N entries.
 - Pipeline stages (fetcher, store) may detect and classify failure, but
   only the installer decides that the install as a whole has failed.
 - The installer never retries a failed populate; reattempting the
   install belongs to the environment that fires the lifecycle event.

 Metadata emission is observational only and MUST NOT influence staging,
 commit, or install outcome.
*/

type Installer struct {
	metadataSink     metadata.MetadataSink
	installFinalizer metadata.InstallFinalizer
	opener           cachestore.Opener
	assetFetcher     fetcher.AssetFetcher
	hostPacer        pacer.Pacer
	cfg              config.Config
	lastExecution    *InstallExecution
}

func NewInstaller(cfg config.Config) *Installer {
	recorder := metadata.NewRecorder()
	httpFetcher := fetcher.NewHTTPFetcher(&recorder, cfg.Timeout())
	opener := cachestore.NewDirOpener(cfg.StoreDir(), hashutil.HashAlgo(cfg.HashAlgo()), &recorder)
	hostPacer := pacer.NewHostPacer(cfg.BaseDelay(), cfg.Jitter(), cfg.RandomSeed())
	return &Installer{
		metadataSink:     &recorder,
		installFinalizer: &recorder,
		opener:           opener,
		assetFetcher:     &httpFetcher,
		hostPacer:        hostPacer,
		cfg:              cfg,
	}
}

// NewInstallerWithDeps creates an Installer with injected dependencies for
// testing. This constructor allows tests to provide mock implementations
// of the fetcher, store opener, and metadata interfaces.
func NewInstallerWithDeps(
	cfg config.Config,
	installFinalizer metadata.InstallFinalizer,
	metadataSink metadata.MetadataSink,
	opener cachestore.Opener,
	assetFetcher fetcher.AssetFetcher,
	hostPacer pacer.Pacer,
) *Installer {
	return &Installer{
		metadataSink:     metadataSink,
		installFinalizer: installFinalizer,
		opener:           opener,
		assetFetcher:     assetFetcher,
		hostPacer:        hostPacer,
		cfg:              cfg,
	}
}

// Register subscribes the installer to the runtime's install signal. The
// handler extends the install lifetime until Populate settles, so the
// runtime cannot report the install complete while assets are still being
// fetched or written.
func (i *Installer) Register(runtime *lifecycle.Runtime) {
	runtime.Subscribe(lifecycle.EventInstall, func(ctx context.Context, lt *lifecycle.Lifetime) error {
		lt.ExtendUntil(func(ctx context.Context) error {
			execution, err := i.Populate(ctx)
			if err != nil {
				return err
			}
			i.lastExecution = &execution
			return nil
		})
		return nil
	})
}

// LastExecution returns the summary of the most recent successful
// populate, or nil if none succeeded yet.
func (i *Installer) LastExecution() *InstallExecution {
	return i.lastExecution
}

// Populate opens (creating if absent) the configured store and performs
// the bulk fetch-and-store for every manifest entry. It returns a
// *PopulateError if any single asset cannot be fetched or written.
func (i *Installer) Populate(ctx context.Context) (InstallExecution, failure.ClassifiedError) {
	installStartTime := time.Now()

	var totalAssets int
	var totalBytes int64
	var totalErrors int

	// Final stats are recorded exactly once, settled or failed
	defer func() {
		i.installFinalizer.RecordInstallStats(
			totalAssets,
			totalBytes,
			totalErrors,
			time.Since(installStartTime),
		)
	}()

	retryParam := i.retryParam()
	base := i.cfg.BaseURL()

	entries := i.cfg.Assets()
	if i.cfg.Discover() {
		discovered, err := i.discoverEntries(ctx, retryParam)
		if err != nil {
			totalErrors++
			return InstallExecution{}, err
		}
		entries = append(entries, discovered...)
	}

	man, manErr := manifest.New(entries)
	if manErr != nil {
		totalErrors++
		return InstallExecution{}, manErr
	}
	resolved, resolveErr := man.Resolve(base)
	if resolveErr != nil {
		totalErrors++
		return InstallExecution{}, resolveErr
	}

	store, openErr := i.opener.Open(i.cfg.StoreName())
	if openErr != nil {
		totalErrors++
		return InstallExecution{}, openErr
	}

	// Stage phase: fetch everything before writing anything
	staged := make([]stagedEntry, 0, len(resolved))
	for _, asset := range resolved {
		if err := i.pace(ctx, asset.FetchURL.Host); err != nil {
			totalErrors++
			return InstallExecution{}, err
		}

		result, fetchErr := i.assetFetcher.Fetch(
			ctx,
			fetcher.NewFetchParam(asset.FetchURL, i.cfg.UserAgent()),
			retryParam,
		)
		i.hostPacer.MarkLastFetchAsNow(asset.FetchURL.Host)
		if fetchErr != nil {
			totalErrors++
			return InstallExecution{}, i.populateError(ErrCauseFetchFailure, asset.Entry, fetchErr)
		}

		staged = append(staged, stagedEntry{
			asset: asset,
			entry: cachestore.Entry{
				Body:        result.Body(),
				ContentType: result.ContentType(),
				StatusCode:  result.Code(),
				FetchedAt:   time.Now(),
			},
		})
		totalBytes += int64(len(result.Body()))
	}
	totalAssets = len(staged)

	execution := InstallExecution{
		StoreName:   store.Name(),
		StoreDir:    store.Dir(),
		TotalAssets: totalAssets,
		TotalBytes:  totalBytes,
		DryRun:      i.cfg.DryRun(),
	}

	if i.cfg.DryRun() {
		return execution, nil
	}

	// Commit phase: all fetches succeeded, write the store
	for _, item := range staged {
		if putErr := store.Put(item.asset.Key, item.entry); putErr != nil {
			totalErrors++
			return InstallExecution{}, i.populateError(ErrCauseStoreFailure, item.asset.Entry, putErr)
		}
	}

	return execution, nil
}

// discoverEntries fetches the shell document at the base URL and extracts
// additional same-host subresource entries from it.
func (i *Installer) discoverEntries(ctx context.Context, retryParam retry.RetryParam) ([]string, failure.ClassifiedError) {
	base := i.cfg.BaseURL()

	result, fetchErr := i.assetFetcher.Fetch(
		ctx,
		fetcher.NewFetchParam(base, i.cfg.UserAgent()),
		retryParam,
	)
	i.hostPacer.MarkLastFetchAsNow(base.Host)
	if fetchErr != nil {
		return nil, i.populateError(ErrCauseFetchFailure, "./", fetchErr)
	}

	return manifest.Discover(base, result.Body())
}

// pace waits out the politeness delay for host, honoring cancellation.
func (i *Installer) pace(ctx context.Context, host string) failure.ClassifiedError {
	delay := i.hostPacer.ResolveDelay(host)
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return &PopulateError{
			Message: ctx.Err().Error(),
			Cause:   ErrCauseFetchFailure,
			Entry:   host,
		}
	case <-time.After(delay):
		return nil
	}
}

func (i *Installer) populateError(cause PopulateErrorCause, entry string, err failure.ClassifiedError) *PopulateError {
	populateErr := &PopulateError{
		Message: err.Error(),
		Cause:   cause,
		Entry:   entry,
		Err:     err,
	}

	i.metadataSink.RecordError(
		time.Now(),
		"installer",
		"Installer.Populate",
		mapPopulateErrorToMetadataCause(populateErr),
		populateErr.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrStoreName, i.cfg.StoreName()),
			metadata.NewAttr(metadata.AttrField, entry),
		},
	)
	return populateErr
}

func (i *Installer) retryParam() retry.RetryParam {
	return retry.NewRetryParam(
		i.cfg.Jitter(),
		i.cfg.RandomSeed(),
		i.cfg.MaxAttempt(),
		timeutil.NewBackoffParam(
			i.cfg.BackoffInitialDuration(),
			i.cfg.BackoffMultiplier(),
			i.cfg.BackoffMaxDuration(),
		),
	)
}
