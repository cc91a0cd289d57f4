//go:build wireinject
// +build wireinject

package di

import (
	"UpliftAPI/pkg/config"
	"UpliftAPI/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideHTTPClient,
		ProvideCacheBackend,

		// Repositories
		ProvideArtifactStore,

		// Use cases
		ProvideModelHost,
		ProvideOfferRecommender,

		// HTTP + application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
