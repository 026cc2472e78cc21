package api

import (
	"net/http"
	"time"

	_ "github.com/AlexZinkM/fhe-dapps/docs"
	"github.com/AlexZinkM/fhe-dapps/internal/dapp"
	"github.com/AlexZinkM/fhe-dapps/internal/handler"
	"github.com/AlexZinkM/fhe-dapps/internal/logger"
	"github.com/AlexZinkM/fhe-dapps/internal/metrics"
	"github.com/AlexZinkM/fhe-dapps/internal/proxy"
	"github.com/AlexZinkM/fhe-dapps/wallet"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Deps is everything the router serves.
type Deps struct {
	Session      *dapp.Session
	History      handler.History
	Node         wallet.BalanceReader
	KeystorePath string
	ChainID      int64
	Password     wallet.PasswordFunc
	Proxy        proxy.Config
	// RequestTimeout bounds /api requests; transactions wait for receipts
	// inside it.
	RequestTimeout time.Duration
	Log            logger.Logger
}

// SetupRouter sets up router with handlers
func SetupRouter(d Deps) (http.Handler, error) {
	walletHandler, err := handler.NewWalletHandler(d.KeystorePath, d.ChainID, d.Node, d.Password)
	if err != nil {
		return nil, err
	}
	dappHandler := handler.NewDappHandler(d.Session, d.History, d.Log)

	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(proxy.CrossOriginIsolation)
	r.Use(proxy.CORS(d.Proxy.CORSOrigins))

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Get("/health", proxy.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(middleware.Timeout(d.RequestTimeout))
		}

		// Wallet endpoints
		r.Post("/wallet/generate", walletHandler.Generate)
		r.Get("/wallet", walletHandler.Get)

		// dApp endpoints
		r.Get("/dapps", dappHandler.List)
		r.Route("/dapps/{slug}", func(r chi.Router) {
			r.Get("/", dappHandler.Get)
			r.Get("/history", dappHandler.History)
			r.Post("/actions/{action}", dappHandler.Submit)
			r.Get("/results/{result}/handle", dappHandler.Handle)
			r.Post("/results/{result}/public", dappHandler.MakePublic)
			r.Post("/results/{result}/decrypt", dappHandler.Decrypt)
			r.Post("/decrypt", dappHandler.DecryptAll)
		})
		r.Post("/decrypt", dappHandler.RawDecrypt)
	})

	// Relayer / gateway proxy for browser clients
	if err := proxy.Mount(r, d.Proxy, d.Log); err != nil {
		return nil, err
	}
	if d.Proxy.StaticDir != "" {
		r.Handle("/*", proxy.Static(d.Proxy.StaticDir))
	}

	return r, nil
}
