// Package test holds helpers shared by tests that run real servers.
package test

import (
	"net"
	"net/http"
	"sync"
	"testing"
	"time"
)

var (
	used = map[int]struct{}{}
	lock sync.Mutex
)

// RandomPort returns a free TCP port that no other caller of RandomPort
// in this process has been given.
func RandomPort() int {
	for {
		l, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			panic(err)
		}
		port := l.Addr().(*net.TCPAddr).Port
		_ = l.Close()

		lock.Lock()
		_, taken := used[port]
		used[port] = struct{}{}
		lock.Unlock()
		if !taken {
			return port
		}
	}
}

// WaitHTTP polls url until it answers or five seconds elapse, and returns
// the status code of the first answer.
func WaitHTTP(tb testing.TB, url string) int {
	tb.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url) //nolint:gosec,noctx
		if err == nil {
			resp.Body.Close() // nolint: errcheck
			return resp.StatusCode
		}
		if time.Now().After(deadline) {
			tb.Fatalf("%s did not answer: %v", url, err)
			return 0
		}
		time.Sleep(50 * time.Millisecond)
	}
}
