package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marketloop/marketloop-backend/api/controllers"
	"github.com/marketloop/marketloop-backend/api/middleware"
	authsvc "github.com/marketloop/marketloop-backend/internal/auth"
	cartsvc "github.com/marketloop/marketloop-backend/internal/cart"
	checkoutsvc "github.com/marketloop/marketloop-backend/internal/checkout"
	mediasvc "github.com/marketloop/marketloop-backend/internal/media"
	ordersvc "github.com/marketloop/marketloop-backend/internal/orders"
	productsvc "github.com/marketloop/marketloop-backend/internal/products"
	shopsvc "github.com/marketloop/marketloop-backend/internal/shops"
	usersvc "github.com/marketloop/marketloop-backend/internal/users"
	"github.com/marketloop/marketloop-backend/pkg/config"
	"github.com/marketloop/marketloop-backend/pkg/db"
	"github.com/marketloop/marketloop-backend/pkg/logger"
	"github.com/marketloop/marketloop-backend/pkg/metrics"
	"github.com/marketloop/marketloop-backend/pkg/redis"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Auth     authsvc.Service
	Users    usersvc.Service
	Products productsvc.Service
	Shops    shopsvc.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
	Media    mediasvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIdentityLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterIdentity,
	)

	maxUpload := cfg.Media.MaxUploadBytes()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(dbP, redisClient, logg))
	})

	if httpMetrics != nil {
		r.Method(http.MethodGet, "/metrics", httpMetrics.Handler())
	}

	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Media.UploadDir)))
	r.Get("/uploads/*", fileServer.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).
				Post("/register", controllers.Register(svcs.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
				Post("/login", controllers.Login(svcs.Auth, logg))
			r.Post("/logout", controllers.Logout())

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, logg))
				r.Post("/change-password", controllers.ChangePassword(svcs.Auth, logg))
			})
		})

		// Public catalog reads.
		r.Get("/products", controllers.ListProducts(svcs.Products, logg))
		r.Get("/products/{id}", controllers.GetProduct(svcs.Products, logg))
		r.Get("/shops", controllers.ListShops(svcs.Shops, logg))
		r.Get("/shops/{id}", controllers.GetShop(svcs.Shops, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/users", controllers.ListUsers(svcs.Users, logg))
			r.Get("/users/{id}", controllers.GetUser(svcs.Users, logg))
			r.Patch("/users/{id}", controllers.UpdateUser(svcs.Users, logg))
			r.Post("/users/{id}/avatar", controllers.UploadAvatar(svcs.Users, svcs.Media, maxUpload, logg))
			r.Delete("/users/{id}", controllers.DeleteUser(svcs.Users, logg))

			r.Post("/products", controllers.CreateProduct(svcs.Products, svcs.Media, maxUpload, logg))
			r.Patch("/products/{id}", controllers.UpdateProduct(svcs.Products, svcs.Media, maxUpload, logg))
			r.Delete("/products/{id}", controllers.DeleteProduct(svcs.Products, logg))

			r.Post("/shops", controllers.CreateShop(svcs.Shops, svcs.Media, maxUpload, logg))
			r.Patch("/shops/{id}", controllers.UpdateShop(svcs.Shops, svcs.Media, maxUpload, logg))
			r.Delete("/shops/{id}", controllers.DeleteShop(svcs.Shops, logg))
			r.Put("/shops/{shopId}/products/{productId}", controllers.AddProductToShop(svcs.Shops, logg))
			r.Delete("/shops/{shopId}/products/{productId}", controllers.RemoveProductFromShop(svcs.Shops, logg))

			r.Get("/cart", controllers.GetCart(svcs.Cart, logg))
			r.Post("/cart/items", controllers.AddCartItem(svcs.Cart, logg))
			r.Delete("/cart/items/{productId}", controllers.RemoveCartItem(svcs.Cart, logg))
			r.Delete("/cart", controllers.ClearCart(svcs.Cart, logg))

			r.Post("/orders", controllers.CreateOrder(svcs.Checkout, logg))
			r.Get("/orders", controllers.ListOrders(svcs.Orders, logg))
			r.Get("/orders/{id}", controllers.GetOrder(svcs.Orders, logg))
		})
	})

	return r
}
