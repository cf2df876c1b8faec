package main

import "testing"

func TestListenerURL(t *testing.T) {
	cases := []struct {
		address string
		tls     bool
		want    string
	}{
		{":8080", false, "http://localhost:8080"},
		{"0.0.0.0:8080", false, "http://localhost:8080"},
		{"10.0.0.5:8080", true, "https://10.0.0.5:8080"},
		{"", false, "http://localhost"},
	}
	for _, c := range cases {
		if got := listenerURL(c.address, c.tls); got != c.want {
			t.Errorf("listenerURL(%q, %v) = %q, want %q", c.address, c.tls, got, c.want)
		}
	}
}

func TestDiagnosticEndpoints(t *testing.T) {
	got := diagnosticEndpoints("http://localhost:8080/")
	want := []string{
		"http://localhost:8080/healthz",
		"http://localhost:8080/status",
		"http://localhost:8080/ws",
		"http://localhost:8080/ws/raw",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d endpoints, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("endpoint %d = %q, want %q", i, got[i], want[i])
		}
	}
}
