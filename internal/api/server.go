package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/smoothiefi/smoothie/internal/cache"
	"github.com/smoothiefi/smoothie/internal/portfolio"
	"github.com/smoothiefi/smoothie/internal/prices"
	"github.com/smoothiefi/smoothie/internal/snapshot"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, portfolios *portfolio.Service, snapshots *snapshot.Service, quotes *prices.Service, store cache.Store, cacheTTL time.Duration, adminAPIKey string) *http.Server {
	handler := NewHandler(portfolios, snapshots, quotes, store, cacheTTL)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/portfolio", handler.GetPortfolio)
	mux.HandleFunc("GET /api/v1/performance", handler.GetPerformance)
	mux.HandleFunc("GET /api/v1/performance/export", handler.ExportPerformance)
	mux.HandleFunc("GET /api/v1/apy", handler.GetLendingApy)
	mux.HandleFunc("GET /api/v1/apy/backstop", handler.GetBackstopApy)
	mux.HandleFunc("GET /api/v1/prices", handler.ListPrices)
	mux.HandleFunc("GET /api/v1/wallets", handler.ListFollowed)

	protect := func(h http.Handler) http.Handler {
		if adminAPIKey == "" {
			return h
		}
		return requireAuth(adminAPIKey, h)
	}
	mux.Handle("POST /api/v1/snapshots/generate", protect(http.HandlerFunc(handler.GenerateSnapshots)))
	mux.Handle("POST /api/v1/wallets/{wallet}", protect(http.HandlerFunc(handler.FollowWallet)))
	mux.Handle("DELETE /api/v1/wallets/{wallet}", protect(http.HandlerFunc(handler.UnfollowWallet)))

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
