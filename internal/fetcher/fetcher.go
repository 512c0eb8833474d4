package fetcher

import (
	"context"

	"github.com/kelvie/precache/pkg/failure"
	"github.com/kelvie/precache/pkg/retry"
)

type AssetFetcher interface {
	Fetch(
		ctx context.Context,
		fetchParam FetchParam,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}
