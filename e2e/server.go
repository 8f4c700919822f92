package e2e

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"time"

	"certledger/internal/callertoken"
	"certledger/internal/issuance"
	"certledger/internal/metadata"
	"certledger/internal/platform/health"
	"certledger/internal/registry/handler"
	"certledger/internal/registry/service"
	"certledger/internal/registry/store"
	httptransport "certledger/internal/transport/http"
	"certledger/pkg/domain"
)

const signingKey = "e2e-signing-key-not-for-production"

// startServer runs a fresh in-memory registry owned by owner behind the real
// router, so every scenario starts from an empty ledger.
func startServer(owner domain.Address) (*httptest.Server, *callertoken.Service, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := store.NewInMemory()
	registry := service.New(backend.Stores, append(backend.ServiceOptions(), service.WithLogger(logger))...)
	if err := registry.EnsureOwner(context.Background(), owner); err != nil {
		return nil, nil, err
	}
	iss := issuance.New(registry, metadata.NewMemoryStore(), issuance.WithLogger(logger))
	tokens := callertoken.NewService(signingKey, "certledger", "certledger-api", 5*time.Minute)

	router := httptransport.NewRouter(httptransport.Deps{
		Registry: handler.New(registry, iss, logger),
		Health:   health.New("e2e"),
		Tokens:   tokens,
		Logger:   logger,
	})
	return httptest.NewServer(router), tokens, nil
}
