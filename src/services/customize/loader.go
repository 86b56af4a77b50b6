package customize

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"chatkit/src/models"

	"golang.org/x/sync/singleflight"
)

// FontLoader fetches a remote font stylesheet.
type FontLoader interface {
	Load(ctx context.Context, href string) (string, error)
}

// HTTPFontLoader fetches each stylesheet once; concurrent loads of the same
// URL share one request.
type HTTPFontLoader struct {
	httpc *http.Client
	group singleflight.Group

	mu    sync.Mutex
	cache map[string]string
}

func NewHTTPFontLoader(httpc *http.Client) *HTTPFontLoader {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFontLoader{httpc: httpc, cache: map[string]string{}}
}

func (l *HTTPFontLoader) Load(ctx context.Context, href string) (string, error) {
	l.mu.Lock()
	if css, ok := l.cache[href]; ok {
		l.mu.Unlock()
		return css, nil
	}
	l.mu.Unlock()

	v, err, _ := l.group.Do(href, func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("Accept", "text/css,*/*;q=0.1")
		resp, err := l.httpc.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", &models.RemoteError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		css := string(body)
		l.mu.Lock()
		l.cache[href] = css
		l.mu.Unlock()
		return css, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to load fonts from %s: %w", href, err)
	}
	return v.(string), nil
}
