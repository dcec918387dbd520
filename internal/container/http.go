package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/health"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/visits"
	"go.uber.org/zap"
)

// reservedHashes are single-segment routes that must never be handed out as aliases.
var reservedHashes = []shortener.Hash{"health", "docs"}

// HTTPPackage provides the *chi.Mux and the huma.API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(chimiddleware.RequestID, chimiddleware.Recoverer)

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)

		service, err := do.Invoke[*shortener.Service](i)
		if err != nil {
			return nil, err
		}

		recorder, err := do.Invoke[*visits.Recorder](i)
		if err != nil {
			return nil, err
		}

		visitStore, err := do.Invoke[visits.Store](i)
		if err != nil {
			return nil, err
		}

		healthHandler, err := newHealthHandler(i)
		if err != nil {
			return nil, err
		}

		api := humachi.New(router, huma.DefaultConfig("URL Shortener", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api), middleware.AccessLog(logger))

		handlers.RegisterRoutes(api, handlers.NewURLHandler(service, recorder, visitStore, logger))
		health.RegisterRoutes(api, healthHandler)

		return api, nil
	})
}

func newHealthHandler(i *do.Injector) (*health.Handler, error) {
	opts := do.MustInvoke[*Options](i)

	repo, err := do.Invoke[shortener.Repository](i)
	if err != nil {
		return nil, err
	}

	var storeChecker, busChecker health.Checker

	if c, ok := repo.(health.Checker); ok {
		storeChecker = c
	}

	if opts.Bus == messaging.BusRedis {
		client, err := do.Invoke[*RedisClient](i)
		if err != nil {
			return nil, err
		}

		busChecker = health.NewRedisChecker(client.Client)
	}

	return health.NewHandler(storeChecker, busChecker), nil
}
