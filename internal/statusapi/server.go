// Package statusapi exposes the diagnostic HTTP surface: a JSON snapshot
// endpoint and a websocket feed of live world-model snapshots, both gated by
// a shared admin token, a raw message tap gated by an HMAC token, and an
// ungated health check.
package statusapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"wheelly/control/internal/auth"
	"wheelly/control/internal/controller"
	"wheelly/control/internal/logging"
	"wheelly/control/internal/replay"
	"wheelly/control/internal/simulation"
	"wheelly/control/internal/streams"
	"wheelly/control/internal/worldmodel"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Snapshotter supplies the latest composed world model on demand.
type Snapshotter interface {
	LatestSnapshot() (worldmodel.WorldModel, bool)
}

// websocketAuthenticator gates the diagnostic websocket the same way the
// teacher's player websocket is gated: a token carried as ?auth_token= or
// X-Auth-Token, verified against a shared HMAC secret.
type websocketAuthenticator interface {
	Authenticate(r *http.Request) error
}

type allowAllAuthenticator struct{}

func (allowAllAuthenticator) Authenticate(*http.Request) error { return nil }

// rawStreamAudience scopes a /ws/raw token so it cannot be reused as an
// ordinary /status or /ws credential: the raw tap forwards every message
// the robot and controller exchange, unredacted, so it gets its own
// audience claim rather than sharing the admin token's general scope.
const rawStreamAudience = "wheelly-raw-stream"

type hmacWebsocketAuthenticator struct {
	verifier *auth.HMACTokenVerifier
}

// newHMACWebsocketAuthenticator builds an authenticator keyed on the admin
// token, used as the HMAC signing secret for tokens presented to the
// diagnostic websocket.
func newHMACWebsocketAuthenticator(adminToken string) (websocketAuthenticator, error) {
	verifier, err := auth.NewHMACTokenVerifier(adminToken, 2*time.Second)
	if err != nil {
		return nil, err
	}
	return &hmacWebsocketAuthenticator{verifier: verifier}, nil
}

func (a *hmacWebsocketAuthenticator) Authenticate(r *http.Request) error {
	if a == nil || a.verifier == nil {
		return errors.New("verifier not configured")
	}
	token := strings.TrimSpace(r.URL.Query().Get("auth_token"))
	if token == "" {
		token = strings.TrimSpace(r.Header.Get("X-Auth-Token"))
	}
	if token == "" {
		return errors.New("missing auth token")
	}
	_, err := a.verifier.VerifyAudience(token, rawStreamAudience)
	return err
}

// Server hosts the diagnostic HTTP/websocket endpoints.
type Server struct {
	logger     *logging.Logger
	adminToken string
	authn      websocketAuthenticator
	ctrl       *controller.Controller
	snapshots  Snapshotter
	ticks      *simulation.TickMonitor
	rawTap     <-chan streams.Tagged[[]byte]
	replay     ReplayStatter

	mu   sync.Mutex
	subs []chan worldmodel.WorldModel
}

// ReplayStatter supplies the on-disk footprint of persisted replay
// artefacts, as tracked by internal/replay.Cleaner's most recent sweep.
type ReplayStatter interface {
	Stats() replay.StorageStats
}

// WithReplayStats attaches a replay cleaner's storage statistics to the
// server's /healthz response. Optional: a server with none reports no
// replay fields at all. The fields are omitted when zero as well, so an
// empty replay directory also leaves them out.
func (s *Server) WithReplayStats(r ReplayStatter) *Server {
	if s != nil {
		s.replay = r
	}
	return s
}

// New constructs a Server. adminToken, when non-empty, gates /status and
// /ws with a plain shared-secret compare, and also seeds the HMAC verifier
// gating /ws/raw (the per-message diagnostic tap).
func New(logger *logging.Logger, adminToken string, ctrl *controller.Controller, snapshots Snapshotter, ticks *simulation.TickMonitor, rawTap <-chan streams.Tagged[[]byte]) *Server {
	if logger == nil {
		logger = logging.L()
	}
	var authn websocketAuthenticator = allowAllAuthenticator{}
	if strings.TrimSpace(adminToken) != "" {
		if a, err := newHMACWebsocketAuthenticator(adminToken); err == nil {
			authn = a
		}
	}
	return &Server{logger: logger, adminToken: adminToken, authn: authn, ctrl: ctrl, snapshots: snapshots, ticks: ticks, rawTap: rawTap}
}

// Handler builds the mux serving /healthz, /status, /ws and /ws/raw.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/status", s.gate(s.handleStatus))
	mux.HandleFunc("/ws", s.gate(s.handleWS))
	mux.HandleFunc("/ws/raw", s.gateAuthn(s.handleRawWS))
	return logging.HTTPTraceMiddleware(s.logger)(mux)
}

func (s *Server) gateAuthn(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.authn.Authenticate(r); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleRawWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("raw websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()
	if s.rawTap == nil {
		return
	}
	for tagged := range s.rawTap {
		envelope := struct {
			Kind    string          `json:"kind"`
			Payload json.RawMessage `json:"payload"`
		}{Kind: tagged.Kind, Payload: tagged.Value}
		payload, err := json.Marshal(envelope)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// Publish fans a freshly computed world model out to every connected
// websocket subscriber, called by the controller's inference hook.
func (s *Server) Publish(wm worldmodel.WorldModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- wm:
		default:
		}
	}
}

func (s *Server) gate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			next(w, r)
			return
		}
		token := strings.TrimSpace(r.URL.Query().Get("admin_token"))
		if token == "" {
			token = strings.TrimPrefix(strings.TrimSpace(r.Header.Get("Authorization")), "Bearer ")
		}
		if token != s.adminToken {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

type healthResponse struct {
	Status          string  `json:"status"`
	ControllerState string  `json:"controller_state,omitempty"`
	AverageTickFPS  float64 `json:"average_tick_fps,omitempty"`
	TickOverruns    int     `json:"tick_overruns,omitempty"`
	ReplayMatches   int     `json:"replay_matches,omitempty"`
	ReplayBytes     int64   `json:"replay_bytes,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.ctrl != nil {
		resp.ControllerState = string(s.ctrl.State())
	}
	if s.ticks != nil {
		snap := s.ticks.Snapshot()
		resp.AverageTickFPS = snap.AverageFPS()
		resp.TickOverruns = snap.Overruns
	}
	if s.replay != nil {
		stats := s.replay.Stats()
		resp.ReplayMatches = stats.Matches
		resp.ReplayBytes = stats.Bytes
	}
	writeJSON(w, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.snapshots == nil {
		http.Error(w, "snapshots unavailable", http.StatusServiceUnavailable)
		return
	}
	wm, ok := s.snapshots.LatestSnapshot()
	if !ok {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, wm)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	ch := make(chan worldmodel.WorldModel, 8)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	defer s.removeSub(ch)

	conn.SetReadDeadline(time.Now().Add(time.Minute))
	go s.drainReads(conn)

	for wm := range ch {
		payload, err := json.Marshal(wm)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// drainReads discards inbound websocket frames, which exist only so the
// client's pings keep the connection alive; the feed is one-directional.
func (s *Server) drainReads(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) removeSub(ch chan worldmodel.WorldModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub == ch {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
