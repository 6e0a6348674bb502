package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/smoothiefi/smoothie/internal/cache"
	"github.com/smoothiefi/smoothie/internal/domain"
	"github.com/smoothiefi/smoothie/internal/events"
	"github.com/smoothiefi/smoothie/internal/export"
	"github.com/smoothiefi/smoothie/internal/portfolio"
	"github.com/smoothiefi/smoothie/internal/prices"
	"github.com/smoothiefi/smoothie/internal/snapshot"
)

// Handler provides the dashboard HTTP endpoints.
type Handler struct {
	portfolios *portfolio.Service
	snapshots  *snapshot.Service
	quotes     *prices.Service
	cache      cache.Store
	cacheTTL   time.Duration
}

// NewHandler creates a new API handler. store may be nil to disable
// response caching.
func NewHandler(portfolios *portfolio.Service, snapshots *snapshot.Service, quotes *prices.Service, store cache.Store, cacheTTL time.Duration) *Handler {
	return &Handler{
		portfolios: portfolios,
		snapshots:  snapshots,
		quotes:     quotes,
		cache:      store,
		cacheTTL:   cacheTTL,
	}
}

// GetPortfolio handles GET /api/v1/portfolio. Requires a wallets query
// parameter; period_start switches to the period-anchored breakdown.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	wallets, ok := walletsParam(w, r)
	if !ok {
		return
	}
	loc, ok := locationParam(w, r)
	if !ok {
		return
	}
	overrides := priceOverridesParam(r)

	key := cache.ResponseKey("portfolio", r.URL.RawQuery)
	if h.serveCached(w, r, key) {
		return
	}

	var (
		dash portfolio.Dashboard
		err  error
	)
	if startStr := r.URL.Query().Get("period_start"); startStr != "" {
		start, perr := domain.ParseDay(startStr, loc)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid period_start, expected YYYY-MM-DD")
			return
		}
		dash, err = h.portfolios.GetPeriodDashboard(r.Context(), wallets, start, overrides, loc)
	} else {
		dash, err = h.portfolios.GetDashboard(r.Context(), wallets, overrides, loc)
	}
	if err != nil {
		slog.Error("failed to build portfolio dashboard", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeCachedJSON(w, r, key, dash)
}

// GetPerformance handles GET /api/v1/performance.
func (h *Handler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	wallets, ok := walletsParam(w, r)
	if !ok {
		return
	}
	loc, ok := locationParam(w, r)
	if !ok {
		return
	}
	filter, ok := actionFilterParam(w, r, loc)
	if !ok {
		return
	}

	key := cache.ResponseKey("performance", r.URL.RawQuery)
	if h.serveCached(w, r, key) {
		return
	}

	report, err := h.portfolios.Performance(r.Context(), wallets, filter, loc)
	if err != nil {
		slog.Error("failed to compute performance report", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeCachedJSON(w, r, key, report)
}

// ExportPerformance handles GET /api/v1/performance/export. Streams the
// report as an xlsx workbook.
func (h *Handler) ExportPerformance(w http.ResponseWriter, r *http.Request) {
	wallets, ok := walletsParam(w, r)
	if !ok {
		return
	}
	loc, ok := locationParam(w, r)
	if !ok {
		return
	}
	filter, ok := actionFilterParam(w, r, loc)
	if !ok {
		return
	}

	report, err := h.portfolios.Performance(r.Context(), wallets, filter, loc)
	if err != nil {
		slog.Error("failed to compute performance report for export", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	buf, err := export.Workbook(report)
	if err != nil {
		slog.Error("failed to render performance workbook", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="performance.xlsx"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("failed to write workbook response", "error", err)
	}
}

// GetLendingApy handles GET /api/v1/apy.
func (h *Handler) GetLendingApy(w http.ResponseWriter, r *http.Request) {
	poolID := r.URL.Query().Get("pool")
	asset := r.URL.Query().Get("asset")
	if poolID == "" || asset == "" {
		writeError(w, http.StatusBadRequest, "pool and asset query parameters are required")
		return
	}
	days := daysParam(r, 30)

	key := cache.ResponseKey("apy", r.URL.RawQuery)
	if h.serveCached(w, r, key) {
		return
	}

	points, err := h.portfolios.LendingApy(r.Context(), poolID, asset, days)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no rate history for pool asset")
			return
		}
		slog.Error("failed to build lending APY series", "pool", poolID, "asset", asset, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeCachedJSON(w, r, key, points)
}

// GetBackstopApy handles GET /api/v1/apy/backstop.
func (h *Handler) GetBackstopApy(w http.ResponseWriter, r *http.Request) {
	poolID := r.URL.Query().Get("pool")
	if poolID == "" {
		writeError(w, http.StatusBadRequest, "pool query parameter is required")
		return
	}
	days := daysParam(r, 30)

	key := cache.ResponseKey("apy-backstop", r.URL.RawQuery)
	if h.serveCached(w, r, key) {
		return
	}

	points, err := h.portfolios.BackstopApy(r.Context(), poolID, days)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no rate history for pool backstop")
			return
		}
		slog.Error("failed to build backstop APY series", "pool", poolID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeCachedJSON(w, r, key, points)
}

// ListPrices handles GET /api/v1/prices.
func (h *Handler) ListPrices(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.quotes.AllQuotes(r.Context())
	if err != nil {
		slog.Error("failed to list quotes", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

// ListFollowed handles GET /api/v1/wallets.
func (h *Handler) ListFollowed(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.snapshots.Followed(r.Context())
	if err != nil {
		slog.Error("failed to list followed wallets", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if wallets == nil {
		wallets = []string{}
	}
	writeJSON(w, http.StatusOK, wallets)
}

// FollowWallet handles POST /api/v1/wallets/{wallet}.
func (h *Handler) FollowWallet(w http.ResponseWriter, r *http.Request) {
	wallet := r.PathValue("wallet")
	if err := h.snapshots.Follow(r.Context(), wallet); err != nil {
		slog.Error("failed to follow wallet", "wallet", wallet, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"wallet": wallet, "status": "followed"})
}

// UnfollowWallet handles DELETE /api/v1/wallets/{wallet}.
func (h *Handler) UnfollowWallet(w http.ResponseWriter, r *http.Request) {
	wallet := r.PathValue("wallet")
	if err := h.snapshots.Unfollow(r.Context(), wallet); err != nil {
		slog.Error("failed to unfollow wallet", "wallet", wallet, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"wallet": wallet, "status": "unfollowed"})
}

// GenerateSnapshots handles POST /api/v1/snapshots/generate.
func (h *Handler) GenerateSnapshots(w http.ResponseWriter, r *http.Request) {
	if err := h.snapshots.Generate(r.Context(), time.Now()); err != nil {
		slog.Error("failed to generate snapshots", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate snapshots")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func walletsParam(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	raw := r.URL.Query().Get("wallets")
	var wallets []string
	for _, wallet := range strings.Split(raw, ",") {
		if wallet = strings.TrimSpace(wallet); wallet != "" {
			wallets = append(wallets, wallet)
		}
	}
	if len(wallets) == 0 {
		writeError(w, http.StatusBadRequest, "wallets query parameter is required")
		return nil, false
	}
	return wallets, true
}

func locationParam(w http.ResponseWriter, r *http.Request) (*time.Location, bool) {
	name := r.URL.Query().Get("tz")
	if name == "" {
		return nil, true
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown tz, expected an IANA timezone name")
		return nil, false
	}
	return loc, true
}

// priceOverridesParam parses the optional prices parameter, a JSON object
// keyed "poolID:assetAddress" (or "poolID:backstop"). Malformed input is
// ignored rather than rejected.
func priceOverridesParam(r *http.Request) map[domain.PoolAssetKey]float64 {
	raw := r.URL.Query().Get("prices")
	if raw == "" {
		return nil
	}

	var byName map[string]float64
	if err := json.Unmarshal([]byte(raw), &byName); err != nil {
		slog.Warn("ignoring malformed prices parameter", "error", err)
		return nil
	}

	overrides := make(map[domain.PoolAssetKey]float64, len(byName))
	for name, price := range byName {
		poolID, asset, ok := strings.Cut(name, ":")
		if !ok || poolID == "" {
			continue
		}
		if asset == "backstop" {
			overrides[domain.BackstopKey(poolID)] = price
		} else {
			overrides[domain.NewPoolAssetKey(poolID, asset)] = price
		}
	}
	return overrides
}

func actionFilterParam(w http.ResponseWriter, r *http.Request, loc *time.Location) (events.ActionFilter, bool) {
	if loc == nil {
		loc = time.UTC
	}
	var filter events.ActionFilter

	if from := r.URL.Query().Get("from"); from != "" {
		t, err := domain.ParseDay(from, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from, expected YYYY-MM-DD")
			return filter, false
		}
		filter.From = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := domain.ParseDay(to, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to, expected YYYY-MM-DD")
			return filter, false
		}
		filter.To = t
	}
	switch source := r.URL.Query().Get("source"); source {
	case "":
	case string(domain.SourcePool):
		filter.Source = domain.SourcePool
	case string(domain.SourceBackstop):
		filter.Source = domain.SourceBackstop
	default:
		writeError(w, http.StatusBadRequest, "invalid source, expected pool or backstop")
		return filter, false
	}
	filter.PoolID = r.URL.Query().Get("pool")

	return filter, true
}

func daysParam(r *http.Request, fallback int) int {
	const maxDays = 365
	days := fallback
	if d := r.URL.Query().Get("days"); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 {
			days = min(n, maxDays)
		}
	}
	return days
}

// serveCached writes the cached response for key if present. Cache failures
// fall through to a fresh computation.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if h.cache == nil || h.cacheTTL <= 0 {
		return false
	}
	body, ok, err := h.cache.Get(r.Context(), key)
	if err != nil {
		slog.Warn("response cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
	return true
}

func (h *Handler) writeCachedJSON(w http.ResponseWriter, r *http.Request, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if h.cache != nil && h.cacheTTL > 0 {
		if err := h.cache.Set(r.Context(), key, data, h.cacheTTL); err != nil {
			slog.Warn("response cache write failed", "key", key, "error", err)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
