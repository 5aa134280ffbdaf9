package web

import (
	"net"
	"net/http"
	"sync"
)

// notices holds one pending message per client host, shown once on the
// next listing page.
type notices struct {
	mu      sync.Mutex
	pending map[string]string
}

func newNotices() *notices {
	return &notices{pending: make(map[string]string)}
}

func (n *notices) set(r *http.Request, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending[clientHost(r)] = message
}

// take retrieves and immediately deletes the client's notice
func (n *notices) take(r *http.Request) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := clientHost(r)
	message, ok := n.pending[key]
	if ok {
		delete(n.pending, key)
	}
	return message
}

// clientHost drops the port, which changes with every connection.
func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
