package fetch

import (
	"context"
	"io"
	"net/http"
	"time"
)

const DefaultProbeTimeout = 8 * time.Second

// Prober answers whether a remote resource exists. It deliberately never
// returns an error: it feeds a binary search whose invariant a thrown
// failure would corrupt, so transport problems degrade to "absent".
type Prober struct {
	httpClient *http.Client
	userAgent  string
}

func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Prober{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  defaultUserAgent,
	}
}

func NewProberWithOptions(client *http.Client, userAgent string) *Prober {
	if client == nil {
		client = &http.Client{Timeout: DefaultProbeTimeout}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Prober{httpClient: client, userAgent: userAgent}
}

func (p *Prober) Exists(ctx context.Context, endpoint string) bool {
	status, ok := p.probe(ctx, endpoint, http.MethodHead, false)
	if ok {
		return true
	}

	// Some CDNs reject HEAD outright; retry with a one-byte ranged GET
	// before concluding the resource is gone.
	if status == http.StatusMethodNotAllowed || status == http.StatusForbidden || status == http.StatusNotImplemented || status == 0 {
		_, ok = p.probe(ctx, endpoint, http.MethodGet, true)
		return ok
	}

	return false
}

func (p *Prober) probe(ctx context.Context, endpoint string, method string, ranged bool) (int, bool) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return 0, false
	}

	req.Header.Set("User-Agent", p.userAgent)
	if ranged {
		req.Header.Set("Range", "bytes=0-0")
	}

	res, err := p.httpClient.Do(req)
	if err != nil {
		return 0, false
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1024))

	return res.StatusCode, res.StatusCode >= 200 && res.StatusCode < 300
}
