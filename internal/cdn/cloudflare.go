package cdn

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/cloudflare/cloudflare-go/v6"
	"github.com/cloudflare/cloudflare-go/v6/cache"
	"github.com/cloudflare/cloudflare-go/v6/option"

	"github.com/eldritchtools/datapurge/internal/purge"
)

// CacheService abstracts the Cloudflare cache purge API.
type CacheService interface {
	Purge(ctx context.Context, params cache.CachePurgeParams, opts ...option.RequestOption) (*cache.CachePurgeResponse, error)
}

// Cloudflare purges files from a Cloudflare zone with a single purge_cache call.
type Cloudflare struct {
	cache  CacheService
	zoneID string
}

// NewCloudflare returns a Cloudflare purger authenticated with a bearer token.
// SDK retries are disabled so exactly one request is sent.
func NewCloudflare(zoneID, token string, opts ...option.RequestOption) *Cloudflare {
	clientOpts := []option.RequestOption{
		option.WithAPIToken(token),
		option.WithMaxRetries(0),
	}
	clientOpts = append(clientOpts, opts...)
	client := cloudflare.NewClient(clientOpts...)
	return NewCloudflareWithService(client.Cache, zoneID)
}

// NewCloudflareWithService wraps an existing cache service.
func NewCloudflareWithService(svc CacheService, zoneID string) *Cloudflare {
	return &Cloudflare{cache: svc, zoneID: zoneID}
}

// Purge sends every payload entry as a URL-with-headers purge.
// Only HTTP 200 counts as success.
func (c *Cloudflare) Purge(ctx context.Context, payload *purge.Payload) Outcome {
	files := make([]cache.CachePurgeParamsBodyCachePurgeSingleFileWithURLAndHeadersFile, 0, len(payload.Entries))
	for _, e := range payload.Entries {
		files = append(files, cache.CachePurgeParamsBodyCachePurgeSingleFileWithURLAndHeadersFile{
			URL:     cloudflare.F(e.URL),
			Headers: cloudflare.F(e.Headers),
		})
	}

	rec := &responseRecorder{}
	_, err := c.cache.Purge(ctx, cache.CachePurgeParams{
		ZoneID: cloudflare.F(c.zoneID),
		Body: cache.CachePurgeParamsBodyCachePurgeSingleFileWithURLAndHeaders{
			Files: cloudflare.F(files),
		},
	}, option.WithMiddleware(rec.middleware))

	out := newOutcome(payload)
	out.Err = err
	out.StatusCode = rec.status
	out.Body = string(rec.body)

	if out.StatusCode == 0 {
		var apiErr *cloudflare.Error
		switch {
		case errors.As(err, &apiErr):
			out.StatusCode = apiErr.StatusCode
		case err == nil:
			out.StatusCode = http.StatusOK
		}
	}
	if out.Body == "" && err != nil {
		out.Body = err.Error()
	}

	out.Success = out.StatusCode == http.StatusOK
	return out
}

// responseRecorder keeps the raw status and body of the last response.
type responseRecorder struct {
	status int
	body   []byte
}

func (r *responseRecorder) middleware(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	res, err := next(req)
	if err != nil || res == nil {
		return res, err
	}

	r.status = res.StatusCode
	body, readErr := io.ReadAll(res.Body)
	res.Body.Close()
	r.body = body
	res.Body = io.NopCloser(bytes.NewReader(body))
	if readErr != nil {
		return res, readErr
	}
	return res, nil
}
