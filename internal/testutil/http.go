// Package testutil provides shared test helpers for remexec tests.
package testutil

import (
	"net"
	"net/http"
	"testing"
	"time"
)

// NoProxyClient returns an HTTP client that doesn't use any proxy, so tests
// reach local servers even when HTTP_PROXY is set in the environment.
func NoProxyClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			Proxy: nil,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}
}

// FreeAddr returns a loopback address whose port was free a moment ago.
func FreeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

// WaitHTTP polls url with GET until it answers 200, failing the test after
// five seconds.
func WaitHTTP(t *testing.T, url string) {
	t.Helper()
	client := NoProxyClient()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s never answered 200", url)
}
