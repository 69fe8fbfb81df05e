package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"botboard/internal/botapi"
	"botboard/internal/equity"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
)

// formDecoder decodes HTML form submissions into API types. Unknown keys are
// ignored so stray form fields never fail a submission.
var formDecoder = schema.NewDecoder()

func init() {
	formDecoder.IgnoreUnknownKeys(true)
}

type equityResponse struct {
	Window equity.Window     `json:"window"`
	YMin   float64           `json:"yMin"`
	YMax   float64           `json:"yMax"`
	Order  []string          `json:"order"`
	Names  map[string]string `json:"names"`
	Grid   []equity.GridRow  `json:"grid"`
	Stale  bool              `json:"stale"`
}

type sessionsResponse struct {
	Sessions []botapi.Session `json:"sessions"`
	Stale    bool             `json:"stale"`
}

type positionsResponse struct {
	Positions []botapi.Position `json:"positions"`
	Stale     bool              `json:"stale"`
}

type tradesResponse struct {
	Trades []botapi.ClosedTrade `json:"trades"`
	Stale  bool                 `json:"stale"`
}

type backtestsResponse struct {
	Backtests []botapi.BacktestSummary `json:"backtests"`
	Stale     bool                     `json:"stale"`
}

type backtestDetailResponse struct {
	*botapi.BacktestDetail
	Stale bool `json:"stale,omitempty"`
}

type windowResponse struct {
	Window equity.Window `json:"window"`
}

type healthResponse struct {
	Status     string  `json:"status"`
	HasData    bool    `json:"hasData"`
	Stale      bool    `json:"stale"`
	AgeSeconds float64 `json:"ageSeconds"`
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	s.writeJSONStatus(w, http.StatusOK, v)
}

func (s *Server) writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// handleOverview serves the same payload the WebSocket pushes.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.buildUpdate(s.requestWindow(r)))
}

func (s *Server) handleEquity(w http.ResponseWriter, r *http.Request) {
	u := s.buildUpdate(s.requestWindow(r))
	s.writeJSON(w, equityResponse{
		Window: u.Window,
		YMin:   u.YMin,
		YMax:   u.YMax,
		Order:  u.Order,
		Names:  u.Names,
		Grid:   u.Grid,
		Stale:  u.Stale,
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	resp := sessionsResponse{Sessions: []botapi.Session{}}
	if snap := s.holder.Get(); snap != nil {
		resp.Sessions = snap.Sessions
		resp.Stale = snap.Stale
	}
	s.writeJSON(w, resp)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	resp := positionsResponse{Positions: []botapi.Position{}}
	if snap := s.holder.Get(); snap != nil {
		resp.Positions = snap.Positions
		resp.Stale = snap.Stale
	}
	s.writeJSON(w, resp)
}

// handleTrades serves closed trades. An optional ?limit=N keeps only the
// last N entries.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	resp := tradesResponse{Trades: []botapi.ClosedTrade{}}
	if snap := s.holder.Get(); snap != nil {
		resp.Trades = snap.Trades
		resp.Stale = snap.Stale
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			http.Error(w, fmt.Sprintf("invalid limit %q", raw), http.StatusBadRequest)
			return
		}
		if limit > 0 && len(resp.Trades) > limit {
			resp.Trades = resp.Trades[len(resp.Trades)-limit:]
		}
	}

	s.writeJSON(w, resp)
}

func (s *Server) handleGetWindow(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, windowResponse{Window: s.currentWindow()})
}

// handleSetWindow changes the held selector, recomputes the grid from the
// held snapshot and pushes the result to every client. No bot refetch.
func (s *Server) handleSetWindow(w http.ResponseWriter, r *http.Request) {
	var raw string
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Window string `json:"window"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		raw = body.Window
	} else {
		raw = r.FormValue("window")
	}

	win, ok := equity.ParseWindow(raw)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown window %q", raw), http.StatusBadRequest)
		return
	}

	s.setWindow(win)
	if s.metrics != nil {
		s.metrics.WindowChangesInc()
	}
	s.log.Info().Str("window", string(win)).Msg("Window selection changed")

	update := s.buildUpdate(win)
	s.push(update)
	s.writeJSON(w, update)
}

func (s *Server) handleBacktests(w http.ResponseWriter, r *http.Request) {
	resp := backtestsResponse{Backtests: []botapi.BacktestSummary{}}
	if snap := s.holder.Get(); snap != nil {
		resp.Backtests = snap.Backtests
		resp.Stale = snap.Stale
	}
	s.writeJSON(w, resp)
}

// backtestDetail fetches one run from the bot, falling back to the cache
// when the bot is unreachable. The bool reports whether the result is the
// cached copy.
func (s *Server) backtestDetail(ctx context.Context, id string) (*botapi.BacktestDetail, bool, error) {
	detail, err := s.backend.Backtest(ctx, id)
	if err == nil {
		if s.cache != nil {
			if cacheErr := s.cache.SaveBacktest(detail); cacheErr != nil {
				s.log.Warn().Err(cacheErr).Str("id", id).Msg("Failed to cache backtest detail")
			}
		}
		return detail, false, nil
	}

	if s.metrics != nil {
		s.metrics.ErrorsInc()
	}
	s.log.Warn().Err(err).Str("id", id).Msg("Backtest fetch failed, trying cache")

	if s.cache != nil {
		if cached, cacheErr := s.cache.LoadBacktest(id); cacheErr == nil && cached != nil {
			return cached, true, nil
		}
	}

	return nil, false, err
}

func (s *Server) handleBacktestDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	detail, stale, err := s.backtestDetail(r.Context(), id)
	if err != nil {
		http.Error(w, "backtest not available", http.StatusBadGateway)
		return
	}

	s.writeJSON(w, backtestDetailResponse{BacktestDetail: detail, Stale: stale})
}

// handleSubmitBacktest validates a run submission and proxies it to the bot.
// Accepts both JSON bodies and HTML form posts; form posts from a browser
// are answered with a redirect back to the dashboard.
func (s *Server) handleSubmitBacktest(w http.ResponseWriter, r *http.Request) {
	var req botapi.BacktestRequest

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		if err := formDecoder.Decode(&req, r.PostForm); err != nil {
			http.Error(w, "invalid form: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	// Assign the run ID here so a retry of the same submission is traceable
	// even when the bot never acknowledged the first attempt.
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ack, err := s.backend.SubmitBacktest(r.Context(), req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ErrorsInc()
		}
		s.log.Error().Err(err).Str("strategy", req.Strategy).Msg("Backtest submission failed")
		http.Error(w, "backtest submission failed", http.StatusBadGateway)
		return
	}

	if s.metrics != nil {
		s.metrics.BacktestSubmitsInc()
	}
	s.log.Info().
		Str("id", ack.ID).
		Str("strategy", req.Strategy).
		Str("symbol", req.Symbol).
		Msg("Backtest submitted")

	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	s.writeJSONStatus(w, http.StatusAccepted, ack)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if snap := s.holder.Get(); snap != nil {
		resp.HasData = true
		resp.Stale = snap.Stale
		resp.AgeSeconds = s.now().Sub(snap.FetchedAt).Seconds()
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleEquityChart(w http.ResponseWriter, r *http.Request) {
	snap := s.holder.Get()
	if snap == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	win := s.requestWindow(r)
	grid := equity.ResampleWithMetrics(snap.Events, snap.Metas, snap.Order, win, s.now(), s.tracker())
	metas := equity.MetasInOrder(snap.Metas, snap.Order)

	var buf bytes.Buffer
	if err := RenderEquityChart(&buf, grid, metas, win); err != nil {
		s.log.Error().Err(err).Msg("Equity chart render failed")
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}
	if s.metrics != nil {
		s.metrics.ChartRendersInc()
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (s *Server) handleBacktestChart(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	detail, _, err := s.backtestDetail(r.Context(), id)
	if err != nil {
		http.Error(w, "backtest not available", http.StatusBadGateway)
		return
	}

	var buf bytes.Buffer
	if err := RenderBacktestChart(&buf, detail); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("Backtest chart render failed")
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}
	if s.metrics != nil {
		s.metrics.ChartRendersInc()
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}
