package report

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/de-tools/vm-cost-atlas/pkg/models/api"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Provider supplies a previously generated artifact. The handler is a pure
// consumer: it never refetches or mutates the record set.
type Provider interface {
	Artifact(ctx context.Context) (api.Artifact, error)
}

type Handler struct {
	provider Provider
}

func NewHandler(provider Provider) *Handler {
	return &Handler{provider: provider}
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	artifact, err := h.provider.Artifact(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load report artifact")
		http.Error(w, "report not available", http.StatusServiceUnavailable)
		return
	}

	subscriptions := make([]string, 0, len(artifact))
	for id := range artifact {
		subscriptions = append(subscriptions, id)
	}
	sort.Strings(subscriptions)

	if err := json.NewEncoder(w).Encode(subscriptions); err != nil {
		logger.Error().Err(err).Msg("failed to encode subscription list")
	}
}

func (h *Handler) GetSubscriptionVMs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	subscription := chi.URLParam(r, "subscription")

	artifact, err := h.provider.Artifact(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load report artifact")
		http.Error(w, "report not available", http.StatusServiceUnavailable)
		return
	}

	records, ok := artifact[subscription]
	if !ok {
		http.Error(w, "subscription not found", http.StatusNotFound)
		return
	}

	if err := json.NewEncoder(w).Encode(records); err != nil {
		logger.Error().
			Err(err).
			Str("subscription", subscription).
			Msg("failed to encode VM records")
	}
}
