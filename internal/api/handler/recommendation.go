package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tripwise/tripwise/internal/api/middleware"
	"github.com/tripwise/tripwise/internal/api/models"
	"github.com/tripwise/tripwise/internal/api/response"
	"github.com/tripwise/tripwise/internal/itinerary"
)

// maxRecommendations caps the limit a client may ask for.
const maxRecommendations = 50

// Recommend handles POST /v1/recommendations.
func (h *ItineraryHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var input models.RecommendationRequest
	if !decode(w, r, &input) {
		return
	}

	var fieldErrors []models.FieldError
	mode := itinerary.Mode(strings.ToLower(input.Mode))
	if input.Mode != "" && !mode.Valid() {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "mode", Message: "must be one of driving, walking, bicycling, transit", Code: models.CodeInvalid})
	}
	if input.Limit < 0 || input.Limit > maxRecommendations {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "limit", Message: "must be between 0 and 50", Code: models.CodeOutOfRange})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid recommendation request", fieldErrors)
		return
	}

	recs, err := h.svc.Recommend(r.Context(), itinerary.RecommendRequest{
		Start:    input.Start,
		End:      input.End,
		Mode:     mode,
		Category: input.Category,
		Limit:    input.Limit,
		Seed:     input.Seed,
	})
	if err != nil {
		if errors.Is(err, itinerary.ErrMissingStart) {
			response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "start", Message: err.Error(), Code: models.CodeRequired}})
			return
		}
		h.logger.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("recommend places")
		response.ServiceUnavailable(w, r, "place catalog unavailable")
		return
	}

	resp := models.RecommendationResponse{Items: make([]models.Recommendation, 0, len(recs))}
	for _, rec := range recs {
		resp.Items = append(resp.Items, toRecommendation(rec))
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// ListPlaces handles GET /v1/places. The optional category query parameter filters
// case-insensitively.
func (h *ItineraryHandler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	places, err := h.svc.Places(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("list places")
		response.ServiceUnavailable(w, r, "place catalog unavailable")
		return
	}

	category := r.URL.Query().Get("category")
	resp := models.PlaceListResponse{Items: make([]models.Place, 0, len(places))}
	for _, p := range places {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		resp.Items = append(resp.Items, toPlace(p))
	}
	resp.Count = len(resp.Items)

	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, resp)
}
