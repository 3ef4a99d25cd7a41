package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	observer middleware.RequestObserver,
	gatherer prometheus.Gatherer,
	storefrontSvc controllers.StorefrontReader,
	orderPlacer controllers.OrderPlacer,
	backOffice controllers.BackOffice,
	stockReader controllers.StockReader,
	ordersSvc ordercontrollers.Service,
	auditTrail ordercontrollers.AuditReader,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, observer),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Get("/healthz", controllers.HealthReady(cfg, logg, dbP, redisP))
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.StorefrontProducts(storefrontSvc, logg))
		r.Get("/products/featured", controllers.StorefrontFeatured(storefrontSvc, logg))
		r.Get("/products/{product}", controllers.StorefrontProduct(storefrontSvc, logg))
		r.Get("/products/{product}/availability", controllers.StorefrontAvailability(storefrontSvc, logg))
		r.Post("/orders", controllers.PlaceOrder(orderPlacer, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(logg, enums.StaffRoleAdmin, enums.StaffRoleStaff))

			r.Get("/dashboard", controllers.AdminDashboard(backOffice, logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateProduct(backOffice, logg))
				r.Patch("/{productId}", controllers.AdminUpdateProduct(backOffice, logg))
				r.With(middleware.RequireRole(logg, enums.StaffRoleAdmin)).
					Delete("/{productId}", controllers.AdminDeleteProduct(backOffice, logg))
			})

			r.Route("/stock", func(r chi.Router) {
				r.Get("/", controllers.AdminStockList(stockReader, logg))
				r.Get("/totals", controllers.AdminStockTotals(stockReader, logg))
				r.Get("/alerts", controllers.AdminStockAlerts(stockReader, logg))
				r.Put("/{stockLevelId}", controllers.AdminSetStock(backOffice, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(ordersSvc, logg))
				r.Get("/recent", ordercontrollers.Recent(ordersSvc, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(ordersSvc, logg))
				r.Post("/{orderId}/transitions", ordercontrollers.Transition(ordersSvc, logg))
				r.Put("/{orderId}/notes", ordercontrollers.UpdateNotes(ordersSvc, logg))
				r.Get("/{orderId}/audit", ordercontrollers.AuditTrail(auditTrail, logg))
			})
		})
	})

	return r
}
