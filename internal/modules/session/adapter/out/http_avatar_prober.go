package out

import (
	"context"
	"net/http"
	"time"

	sessionout "mobtime/internal/modules/session/port/out"
)

// HTTPAvatarProber treats any 2xx or 3xx answer to a HEAD request as a
// loadable avatar.
type HTTPAvatarProber struct {
	client  *http.Client
	timeout time.Duration
}

func NewHTTPAvatarProber(client *http.Client, timeout time.Duration) sessionout.AvatarProber {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPAvatarProber{client: client, timeout: timeout}
}

func (p *HTTPAvatarProber) Reachable(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 400
}
