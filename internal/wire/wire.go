// internal/wire/wire.go
package wire

import (
	"context"
	"net/http"
	"time"

	"seat-booking/internal/adaptor"
	"seat-booking/internal/clock"
	"seat-booking/internal/data/repository"
	"seat-booking/internal/usecase"
	"seat-booking/pkg/middleware"
	"seat-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"
	"go.uber.org/zap"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the infrastructure handles built in main.
type Deps struct {
	Repo      *repository.Repository
	Publisher usecase.EventPublisher
	Clock     clock.Clock
	DB        Pinger
	// Limiter is nil when Redis is not configured.
	Limiter redis.Scripter
}

// App menyimpan semua dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring menginisialisasi semua dependencies
func Wiring(deps Deps, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(deps.Repo, config, deps.Publisher, deps.Clock, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, deps, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, deps Deps, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(otelchi.Middleware(config.App.Name, otelchi.WithChiRoutes(r)))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.CORSOrigins))

	wireSeat(r, handler.Seat, deps, config, logger)
	wirePayment(r, handler.Payment)

	r.Get("/health", health(deps.DB, logger))

	return r
}

func health(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := db.Ping(ctx); err != nil {
				logger.Error("Health check failed", zap.Error(err))
				utils.ResponseServiceUnavailable(w, "Database unavailable")
				return
			}
		}
		utils.ResponseSuccess(w, "OK", nil)
	}
}
