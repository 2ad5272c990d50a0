package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/quillhost/addons/internal/infrastructure/resilience"
	"github.com/quillhost/addons/internal/shared/types"
)

// fetchChunkSize is the unit between progress updates and cancellation
// checks during a payload download.
const fetchChunkSize = 64 * 1024

// Options configures the feed client
type Options struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
	// DownloadBytesPerSecond limits payload downloads; 0 means unlimited
	DownloadBytesPerSecond float64
}

// Client talks to the descriptor feed and payload storage. It implements
// the catalog Feed, the coordinator Fetcher, and the updates
// HostUpdateChecker contracts.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// NewClient creates a production-ready feed client with retries and a
// circuit breaker guarding the feed endpoints.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 250 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil // Disable logging

	restyClient := resty.New()
	restyClient.
		SetBaseURL(opts.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "QuillHost-Addons/1.0")
	restyClient.SetTransport(&retryablehttp.RoundTripper{Client: retryClient})
	if opts.AuthToken != "" {
		restyClient.SetAuthToken(opts.AuthToken)
	}

	limit := rate.Inf
	if opts.DownloadBytesPerSecond > 0 {
		limit = rate.Limit(opts.DownloadBytesPerSecond)
	}

	breaker := resilience.New("descriptor-feed", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		resty:   restyClient,
		limiter: rate.NewLimiter(limit, fetchChunkSize),
		breaker: breaker,
	}
}

// Descriptors fetches the full descriptor list from the feed
func (c *Client) Descriptors(ctx context.Context, hostVersion *semver.Version) ([]types.PackageDescriptor, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var wires []wireDescriptor
		resp, err := c.resty.R().
			SetContext(ctx).
			SetQueryParam("host_version", hostVersion.String()).
			SetResult(&wires).
			Get("/v1/packages")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("%w: feed returned status %d", types.ErrTransport, resp.StatusCode())
		}
		return wires, nil
	})
	if err != nil {
		return nil, err
	}

	return toDescriptors(result.([]wireDescriptor))
}

// Check queries the host-application update endpoint
func (c *Client) Check(ctx context.Context) (bool, *types.PackageVersionRecord, error) {
	var wire wireHostUpdate
	resp, err := c.resty.R().
		SetContext(ctx).
		SetResult(&wire).
		Get("/v1/host/update")
	if err != nil {
		return false, nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	if resp.IsError() {
		return false, nil, fmt.Errorf("%w: host check returned status %d", types.ErrTransport, resp.StatusCode())
	}

	if !wire.Available || wire.Record == nil {
		return false, nil, nil
	}
	record, err := wire.Record.toRecord()
	if err != nil {
		return false, nil, err
	}
	return true, &record, nil
}

// Fetch downloads a payload in chunks, reporting progress after each
// chunk and honoring context cancellation between reads. The response is
// streamed rather than buffered by resty so that cancellation and rate
// limiting apply per chunk.
func (c *Client) Fetch(ctx context.Context, sourceURL string, onProgress func(float64)) ([]byte, error) {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: download returned status %d", types.ErrTransport, resp.StatusCode())
	}

	total := resp.RawResponse.ContentLength
	var payload []byte
	buf := make([]byte, fetchChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.limiter.WaitN(ctx, len(buf)); err != nil {
			return nil, err
		}

		n, err := body.Read(buf)
		if n > 0 {
			payload = append(payload, buf[:n]...)
			if onProgress != nil && total > 0 {
				onProgress(float64(len(payload)) / float64(total) * 100)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
		}
	}

	if onProgress != nil {
		onProgress(100)
	}
	return payload, nil
}

// BreakerState exposes the feed breaker state for diagnostics
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// decodeDescriptors parses a raw JSON descriptor document. Used by the
// seeder for JSON manifests and by tests.
func decodeDescriptors(data []byte) ([]types.PackageDescriptor, error) {
	var wires []wireDescriptor
	if err := json.Unmarshal(data, &wires); err != nil {
		return nil, fmt.Errorf("parse descriptors: %w", err)
	}
	return toDescriptors(wires)
}
