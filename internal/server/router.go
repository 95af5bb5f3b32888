package server

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/diewo77/go-kasir/auth"
	"github.com/diewo77/go-kasir/httpx"
	"github.com/diewo77/go-kasir/internal/handlers"
	"github.com/diewo77/go-kasir/internal/metrics"
	"github.com/diewo77/go-kasir/internal/models"
	"github.com/diewo77/go-kasir/internal/services"
	"gorm.io/gorm"
)

// New constructs the root http.Handler with all routes and middlewares applied.
// m may be nil when metrics are disabled.
func New(db *gorm.DB, m *metrics.Metrics) http.Handler {
	// A nil m means metrics are disabled: collectors still run so the
	// instrumentation middleware stays uniform, but /metrics is not routed.
	expose := m != nil
	if m == nil {
		m = metrics.New()
	}
	mux := http.NewServeMux()

	// Configure a user verifier so RequireAuth can ensure the user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth endpoints
	authHandler := handlers.NewAuthHandler(db)
	authHandler.Register(mux)
	mux.Handle("/me", authed(http.HandlerFunc(authHandler.Me)))

	// User CRUD is admin-only back-office.
	uh := handlers.NewUserHandler(db)
	mux.Handle("/users", adminOnly(db, listCreate(uh.List, uh.Create)))
	mux.Handle("/users/update", adminOnly(db, post(uh.Update)))
	mux.Handle("/users/delete", adminOnly(db, post(uh.Delete)))

	// Products: the till needs the list; mutations stay admin-only.
	ph := handlers.NewProductHandler(db)
	mux.Handle("/products", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			ph.List(w, r)
		case http.MethodPost:
			requireLevel(db, models.LevelAdmin, http.HandlerFunc(ph.Create)).ServeHTTP(w, r)
		default:
			methodNotAllowed(w, "GET,POST")
		}
	})))
	mux.Handle("/products/update", adminOnly(db, post(ph.Update)))
	mux.Handle("/products/delete", adminOnly(db, post(ph.Delete)))

	// Customers: available to both roles (created inline during checkout).
	ch := handlers.NewCustomerHandler(db)
	mux.Handle("/customers", authed(listCreate(ch.List, ch.Create)))
	mux.Handle("/customers/update", authed(post(ch.Update)))
	mux.Handle("/customers/delete", authed(post(ch.Delete)))

	// Sales: POST records a checkout, GET lists for the back office.
	sh := handlers.NewSaleHandler(services.NewCheckoutService(db), m)
	mux.Handle("/sales", authed(listCreate(sh.List, sh.Create)))
	mux.Handle("/sales/receipt", authed(http.HandlerFunc(sh.Receipt)))

	if expose {
		mux.Handle("/metrics", m.Handler())
	}

	return withRecover(withLogging(instrument(m, mux)))
}

// authed applies the session middleware plus the auth requirement.
func authed(next http.Handler) http.Handler {
	return auth.Middleware(auth.RequireAuth(next))
}

// requireLevel resolves the session user's level from the DB and rejects
// callers below the required level. The operator identity stays an explicit
// per-request value, never package state.
func requireLevel(db *gorm.DB, level string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		var user models.User
		if err := db.Select("id", "level").First(&user, uid).Error; err != nil {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		if user.Level != level {
			httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func adminOnly(db *gorm.DB, next http.Handler) http.Handler {
	return authed(requireLevel(db, models.LevelAdmin, next))
}

// listCreate dispatches GET to list and POST to create.
func listCreate(list, create http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list(w, r)
		case http.MethodPost:
			create(w, r)
		default:
			methodNotAllowed(w, "GET,POST")
		}
	})
}

func post(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, "POST")
			return
		}
		h(w, r)
	})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}

// statusRecorder captures the response code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func instrument(m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)
		m.Requests.WithLabelValues(r.URL.Path, strconv.Itoa(sr.status)).Inc()
		m.Latency.WithLabelValues(r.URL.Path).Observe(float64(time.Since(start).Milliseconds()))
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
