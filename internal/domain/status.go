package domain

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Reachability is the outcome of probing one saved URL.
type Reachability struct {
	Record Record
	Err    error
}

// OK reports whether the probe got any response.
func (r Reachability) OK() bool { return r.Err == nil }

// CheckReachable sends a HEAD request to targetURL. Any response counts as
// reachable; https targets must present a valid certificate.
func CheckReachable(ctx context.Context, targetURL string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Create HTTP client with custom transport (short timeout)
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 0,
				}).DialContext(ctx, network, addr)
			},
			TLSHandshakeTimeout: timeout,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			DisableKeepAlives: true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Don't follow redirects
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, NormalizeURL(targetURL), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("unreachable: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore close errors in probe context
	}()

	return nil
}

// CheckRecords probes every record in order.
func CheckRecords(ctx context.Context, records []Record, timeout time.Duration) []Reachability {
	out := make([]Reachability, 0, len(records))
	for _, r := range records {
		if ctx.Err() != nil {
			out = append(out, Reachability{Record: r, Err: ctx.Err()})
			continue
		}
		out = append(out, Reachability{Record: r, Err: CheckReachable(ctx, r.TargetURL, timeout)})
	}
	return out
}
