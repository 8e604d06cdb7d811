package handler

import (
	"net/http"
	"slices"
	"strings"

	"github.com/tripwise/tripwise/internal/api/models"
	"github.com/tripwise/tripwise/internal/api/response"
	"github.com/tripwise/tripwise/internal/featureflags"
)

// FeatureFlagsHandler exposes the current feature flags. Flags are changed in
// their store, not through the API.
type FeatureFlagsHandler struct {
	service *featureflags.Service
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service}
}

// ListFeatureFlags handles GET /v1/ops/flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags := h.service.GetAllFlags(r.Context())

	items := make([]models.FeatureFlag, 0, len(flags))
	for _, f := range flags {
		items = append(items, models.FeatureFlag{
			Key:       f.Key,
			Value:     f.Value,
			UpdatedAt: models.Timestamp(f.UpdatedAt),
		})
	}
	slices.SortFunc(items, func(a, b models.FeatureFlag) int {
		return strings.Compare(a.Key, b.Key)
	})

	w.Header().Set("Cache-Control", "no-store")
	response.JSON(w, r, http.StatusOK, models.FeatureFlagList{Items: items})
}
