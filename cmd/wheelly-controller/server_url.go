package main

import (
	"fmt"
	"net"
	"strings"
)

// listenerURL returns a human-friendly URL for the status server's listen
// address, for the startup log line.
func listenerURL(address string, tlsEnabled bool) string {
	scheme := "http"
	if tlsEnabled {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, normaliseHostPort(address))
}

// diagnosticEndpoints lists the status server's own routes
// (internal/statusapi.Server.Handler) rooted at base, for a single
// startup log line an operator can click through without having to know
// the mux wiring by heart.
func diagnosticEndpoints(base string) []string {
	routes := []string{"/healthz", "/status", "/ws", "/ws/raw"}
	urls := make([]string, len(routes))
	for i, route := range routes {
		urls[i] = strings.TrimRight(base, "/") + route
	}
	return urls
}

func normaliseHostPort(address string) string {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return "localhost"
	}
	host, port, err := net.SplitHostPort(trimmed)
	if err != nil {
		if strings.HasPrefix(trimmed, ":") {
			return "localhost" + trimmed
		}
		return trimmed
	}
	host = strings.TrimSpace(host)
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
