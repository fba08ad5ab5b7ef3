package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ssewanyana/hotspotbill-backend/api/controllers"
	webhookcontrollers "github.com/ssewanyana/hotspotbill-backend/api/controllers/webhooks"
	"github.com/ssewanyana/hotspotbill-backend/api/middleware"
	"github.com/ssewanyana/hotspotbill-backend/internal/categories"
	"github.com/ssewanyana/hotspotbill-backend/internal/packages"
	"github.com/ssewanyana/hotspotbill-backend/internal/payments"
	"github.com/ssewanyana/hotspotbill-backend/internal/portal"
	"github.com/ssewanyana/hotspotbill-backend/internal/smscredit"
	"github.com/ssewanyana/hotspotbill-backend/internal/stats"
	"github.com/ssewanyana/hotspotbill-backend/internal/tenants"
	"github.com/ssewanyana/hotspotbill-backend/internal/vouchers"
	"github.com/ssewanyana/hotspotbill-backend/internal/withdrawals"
	"github.com/ssewanyana/hotspotbill-backend/pkg/auth/session"
	"github.com/ssewanyana/hotspotbill-backend/pkg/config"
	"github.com/ssewanyana/hotspotbill-backend/pkg/db"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
	"github.com/ssewanyana/hotspotbill-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. All fields are
// required unless noted.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker

	Tenants     *tenants.Service
	Payments    *payments.Service
	Packages    *packages.Service
	Categories  *categories.Service
	Vouchers    *vouchers.Service
	Credit      *smscredit.Service
	Withdrawals *withdrawals.Service
	Portal      *portal.Service
	Stats       *stats.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Gateway callbacks carry no tenant JWT; references scope them.
	r.Post("/api/v1/webhooks/gateway", webhookcontrollers.GatewayWebhook(deps.Payments, logg))

	// Public captive-portal surface: buyers have no account.
	r.Route("/api/v1/public", func(r chi.Router) {
		r.Get("/tenants/{tenantId}/packages", controllers.PublicPackages(deps.Packages, logg))
		r.Get("/tenants/{tenantId}/portal/session", controllers.PortalCheck(deps.Portal, logg))
		r.Post("/purchases", controllers.InitiatePurchase(deps.Payments, logg))
		r.Get("/purchases/{reference}/status", controllers.PurchaseStatus(deps.Payments, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.Tenants, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Tenants, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).
			Post("/logout", controllers.AuthLogout(deps.Tenants, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/me", controllers.Me(deps.Tenants, logg))
		r.Post("/me/password", controllers.ChangePassword(deps.Tenants, logg))

		r.Route("/packages", func(r chi.Router) {
			r.Get("/", controllers.ListPackages(deps.Packages, logg))
			r.Post("/", controllers.CreatePackage(deps.Packages, logg))
			r.Get("/{packageId}", controllers.GetPackage(deps.Packages, logg))
			r.Patch("/{packageId}", controllers.UpdatePackage(deps.Packages, logg))
			r.Delete("/{packageId}", controllers.DeletePackage(deps.Packages, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(deps.Categories, logg))
			r.Post("/", controllers.CreateCategory(deps.Categories, logg))
			r.Patch("/{categoryId}", controllers.RenameCategory(deps.Categories, logg))
			r.Delete("/{categoryId}", controllers.DeleteCategory(deps.Categories, logg))
		})

		r.Route("/vouchers", func(r chi.Router) {
			r.Get("/", controllers.ListVouchers(deps.Vouchers, logg))
			r.Post("/import", controllers.ImportVouchers(deps.Vouchers, logg))
			r.Get("/stock", controllers.VoucherStock(deps.Vouchers, logg))
		})

		r.Route("/sms-credit", func(r chi.Router) {
			r.Get("/balance", controllers.CreditBalance(deps.Credit, logg))
			r.Post("/topups", controllers.InitiateTopup(deps.Credit, logg))
			r.Get("/topups/{reference}", controllers.TopupStatus(deps.Payments, logg))
			r.Get("/entries", controllers.ListCreditEntries(deps.Credit, logg))
		})

		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/", controllers.ListWithdrawals(deps.Withdrawals, logg))
			r.Get("/balance", controllers.WithdrawalBalance(deps.Withdrawals, logg))
			r.Post("/initiate", controllers.InitiateWithdrawal(deps.Withdrawals, logg))
			r.Post("/confirm", controllers.ConfirmWithdrawal(deps.Withdrawals, logg))
		})

		r.Route("/portal/sessions", func(r chi.Router) {
			r.Post("/", controllers.PortalGrant(deps.Portal, logg))
			r.Delete("/", controllers.PortalRevoke(deps.Portal, logg))
		})

		r.Get("/transactions", controllers.ListTransactions(deps.Payments, logg))
		r.Get("/stats/dashboard", controllers.StatsDashboard(deps.Stats, logg))

		r.Route("/admin/tenants", func(r chi.Router) {
			r.Use(middleware.RequireSuperAdmin(logg))
			r.Get("/", controllers.AdminListTenants(deps.Tenants, logg))
			r.Post("/", controllers.AdminCreateTenant(deps.Tenants, logg))
			r.Get("/{tenantId}", controllers.AdminGetTenant(deps.Tenants, logg))
			r.Patch("/{tenantId}", controllers.AdminUpdateTenant(deps.Tenants, logg))
			r.Get("/{tenantId}/subscriptions", controllers.AdminListSubscriptions(deps.Tenants, logg))
			r.Post("/{tenantId}/subscriptions", controllers.AdminCreateSubscription(deps.Tenants, logg))
		})
	})

	return r
}
