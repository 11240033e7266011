package adaptors

import (
	"context"

	"link_auditor/internal/domain/models"
)

// WebClient probes a single URL. Implementations never fail outright: transport
// failures are reported through FetchResult.Err.
type WebClient interface {
	Fetch(ctx context.Context, url string) *models.FetchResult
}
