// Package dashboard serves the botboard web UI and JSON API. It renders
// whatever snapshot the poller last published and streams recomputed equity
// grids to WebSocket clients whenever the snapshot or the window selector
// changes.
//
// The package provides both REST API endpoints and WebSocket streaming, plus
// server-side PNG chart rendering for embedding and export.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"botboard/internal/botapi"
	"botboard/internal/common"
	"botboard/internal/equity"
	"botboard/internal/snapshot"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// BotAPI is the slice of the bot client the dashboard calls directly:
// backtest details on demand and run submissions. Every other read is served
// from the published snapshot.
type BotAPI interface {
	Backtest(ctx context.Context, id string) (*botapi.BacktestDetail, error)
	SubmitBacktest(ctx context.Context, req botapi.BacktestRequest) (*botapi.BacktestAck, error)
}

// DetailCache persists fetched backtest details for stale fallback.
type DetailCache interface {
	SaveBacktest(detail *botapi.BacktestDetail) error
	LoadBacktest(id string) (*botapi.BacktestDetail, error)
}

// Metrics receives dashboard instrumentation.
type Metrics interface {
	equity.MetricsTracker
	WindowChangesInc()
	WSClientsAdd(delta float64)
	WSPushesInc()
	ChartRendersInc()
	BacktestSubmitsInc()
	ErrorsInc()
}

// Options configure the server. Cache, Metrics and Now are optional; a zero
// Port falls back to the default and an invalid Window to the default window.
type Options struct {
	Port    int
	Window  equity.Window
	Cache   DetailCache
	Metrics Metrics
	Now     func() time.Time
}

// Update is the full dashboard state pushed to WebSocket clients and served
// at /api/overview. It is recomputed, never mutated, so marshaling is safe
// without locks.
type Update struct {
	Timestamp time.Time                `json:"timestamp"`
	FetchedAt time.Time                `json:"fetchedAt"`
	Stale     bool                     `json:"stale"`
	Window    equity.Window            `json:"window"`
	YMin      float64                  `json:"yMin"`
	YMax      float64                  `json:"yMax"`
	Sessions  []botapi.Session         `json:"sessions"`
	Order     []string                 `json:"order"`
	Names     map[string]string        `json:"names"`
	Grid      []equity.GridRow         `json:"grid"`
	Summaries []equity.Summary         `json:"summaries"`
	Positions []botapi.Position        `json:"positions"`
	Backtests []botapi.BacktestSummary `json:"backtests"`
}

// Server is the dashboard HTTP server. The window selector is server-held
// state: changing it recomputes the grid from the held snapshot and pushes
// the result to every connected client, without refetching the bot.
type Server struct {
	holder  *snapshot.Holder
	backend BotAPI
	cache   DetailCache
	metrics Metrics
	now     func() time.Time
	log     zerolog.Logger

	server   *http.Server
	upgrader websocket.Upgrader

	windowMu sync.RWMutex
	window   equity.Window

	clients          map[*websocket.Conn]bool
	clientsMu        sync.RWMutex
	broadcastChannel chan Update
	stopChannel      chan struct{}
	isRunning        bool
	mu               sync.RWMutex
}

// NewServer creates a dashboard server reading from holder and proxying
// backtest operations to backend. Returns a ready-to-start instance.
func NewServer(holder *snapshot.Holder, backend BotAPI, opts Options, logger zerolog.Logger) *Server {
	window := opts.Window
	if !window.Valid() {
		window = equity.DefaultWindow
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	port := opts.Port
	if port == 0 {
		port = common.DefaultListenPort
	}

	s := &Server{
		holder:           holder,
		backend:          backend,
		cache:            opts.Cache,
		metrics:          opts.Metrics,
		now:              now,
		log:              logger,
		window:           window,
		upgrader:         websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:          make(map[*websocket.Conn]bool),
		broadcastChannel: make(chan Update, 100),
		stopChannel:      make(chan struct{}),
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Router builds the route table. Exposed so tests can drive handlers
// through httptest without binding a port.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/api/overview", s.handleOverview).Methods("GET")
	r.HandleFunc("/api/equity", s.handleEquity).Methods("GET")
	r.HandleFunc("/api/sessions", s.handleSessions).Methods("GET")
	r.HandleFunc("/api/positions", s.handlePositions).Methods("GET")
	r.HandleFunc("/api/trades", s.handleTrades).Methods("GET")
	r.HandleFunc("/api/window", s.handleGetWindow).Methods("GET")
	r.HandleFunc("/api/window", s.handleSetWindow).Methods("POST")
	r.HandleFunc("/api/backtests", s.handleBacktests).Methods("GET")
	r.HandleFunc("/api/backtests", s.handleSubmitBacktest).Methods("POST")
	r.HandleFunc("/api/backtests/{id}", s.handleBacktestDetail).Methods("GET")
	r.HandleFunc("/chart/equity.png", s.handleEquityChart).Methods("GET")
	r.HandleFunc("/chart/backtests/{id}.png", s.handleBacktestChart).Methods("GET")
	r.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return r
}

// Start starts the dashboard server
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("dashboard is already running")
	}

	go s.clientBroadcaster()

	go func() {
		s.log.Info().
			Str("address", s.server.Addr).
			Msg("Starting dashboard server")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("Dashboard server failed")
		}
	}()

	s.isRunning = true
	s.log.Info().Msg("Dashboard started successfully")
	return nil
}

// Stop stops the dashboard server
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	close(s.stopChannel)

	// Close all WebSocket connections
	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to shutdown dashboard server")
		return err
	}

	s.isRunning = false
	s.log.Info().Msg("Dashboard stopped")
	return nil
}

// OnSnapshot recomputes dashboard state for the held window and broadcasts
// it. Wire it to poller.Options.OnApply.
func (s *Server) OnSnapshot(*snapshot.Snapshot) {
	s.push(s.buildUpdate(s.currentWindow()))
}

func (s *Server) currentWindow() equity.Window {
	s.windowMu.RLock()
	defer s.windowMu.RUnlock()
	return s.window
}

func (s *Server) setWindow(w equity.Window) {
	s.windowMu.Lock()
	s.window = w
	s.windowMu.Unlock()
}

// requestWindow resolves the window for one request: an explicit ?window=
// query overrides the held selector without changing it.
func (s *Server) requestWindow(r *http.Request) equity.Window {
	if raw := r.URL.Query().Get("window"); raw != "" {
		if w, ok := equity.ParseWindow(raw); ok {
			return w
		}
	}
	return s.currentWindow()
}

func (s *Server) tracker() equity.MetricsTracker {
	if s.metrics == nil {
		return nil
	}
	return s.metrics
}

// buildUpdate assembles the full dashboard state for one window from the
// held snapshot. With no snapshot yet it still returns a full-size grid of
// empty rows over the default domain, so clients render a consistent frame.
func (s *Server) buildUpdate(w equity.Window) Update {
	now := s.now()
	snap := s.holder.Get()

	if snap == nil {
		grid := equity.ResampleWithMetrics(nil, nil, nil, w, now, s.tracker())
		yMin, yMax := equity.YDomain(nil)
		return Update{
			Timestamp: now,
			Window:    w,
			YMin:      yMin,
			YMax:      yMax,
			Names:     map[string]string{},
			Grid:      grid,
			Summaries: []equity.Summary{},
		}
	}

	grid := equity.ResampleWithMetrics(snap.Events, snap.Metas, snap.Order, w, now, s.tracker())
	metas := equity.MetasInOrder(snap.Metas, snap.Order)
	yMin, yMax := equity.YDomain(metas)

	return Update{
		Timestamp: now,
		FetchedAt: snap.FetchedAt,
		Stale:     snap.Stale,
		Window:    w,
		YMin:      yMin,
		YMax:      yMax,
		Sessions:  snap.Sessions,
		Order:     snap.Order,
		Names:     snap.Names(),
		Grid:      grid,
		Summaries: equity.Summarize(grid, snap.Order),
		Positions: snap.Positions,
		Backtests: snap.Backtests,
	}
}

// push queues an update for broadcast without blocking the caller.
func (s *Server) push(update Update) {
	select {
	case s.broadcastChannel <- update:
	default:
		// Channel full, skip this update
	}
}

// clientBroadcaster forwards queued updates to all connected WebSocket clients
func (s *Server) clientBroadcaster() {
	for {
		select {
		case update := <-s.broadcastChannel:
			s.broadcastToClients(update)
		case <-s.stopChannel:
			return
		}
	}
}

func (s *Server) broadcastToClients(update Update) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if len(s.clients) == 0 {
		return
	}

	data, err := json.Marshal(update)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to marshal update for broadcast")
		return
	}

	for client := range s.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			s.log.Error().Err(err).Msg("Failed to send message to WebSocket client")
			client.Close()
			delete(s.clients, client)
			if s.metrics != nil {
				s.metrics.WSClientsAdd(-1)
			}
		}
	}
	if s.metrics != nil {
		s.metrics.WSPushesInc()
	}
}

// handleWebSocket upgrades the connection, sends the current state once and
// keeps the client registered until it hangs up.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()
	if s.metrics != nil {
		s.metrics.WSClientsAdd(1)
	}

	// Send initial state
	if data, err := json.Marshal(s.buildUpdate(s.currentWindow())); err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}

	// Keep connection alive
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.clientsMu.Lock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		if s.metrics != nil {
			s.metrics.WSClientsAdd(-1)
		}
	}
	s.clientsMu.Unlock()
}
