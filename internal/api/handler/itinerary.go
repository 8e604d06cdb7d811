// Package handler provides the HTTP handlers of the tripwise API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripwise/tripwise/internal/api/middleware"
	"github.com/tripwise/tripwise/internal/api/models"
	"github.com/tripwise/tripwise/internal/api/response"
	"github.com/tripwise/tripwise/internal/catalog"
	"github.com/tripwise/tripwise/internal/geo"
	"github.com/tripwise/tripwise/internal/itinerary"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ItineraryService is the part of itinerary.Service the handlers use.
type ItineraryService interface {
	Optimize(ctx context.Context, req itinerary.Request) (*itinerary.Result, error)
	Reoptimize(ctx context.Context, req itinerary.ReoptimizeRequest) (*itinerary.Result, error)
	Recommend(ctx context.Context, req itinerary.RecommendRequest) ([]itinerary.Recommendation, error)
	Places(ctx context.Context) ([]*catalog.Place, error)
}

// ItineraryHandler serves itinerary optimization, recommendations and the place list.
type ItineraryHandler struct {
	svc    ItineraryService
	logger zerolog.Logger
	now    func() time.Time
}

// NewItineraryHandler creates an ItineraryHandler.
func NewItineraryHandler(svc ItineraryService, logger zerolog.Logger) *ItineraryHandler {
	return &ItineraryHandler{svc: svc, logger: logger, now: time.Now}
}

// Optimize handles POST /v1/itineraries:optimize.
func (h *ItineraryHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var input models.OptimizeRequest
	if !decode(w, r, &input) {
		return
	}

	req, fieldErrors := h.toRequest(input)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid itinerary request", fieldErrors)
		return
	}

	res, err := h.svc.Optimize(r.Context(), req)
	if err != nil {
		if fe, ok := validationError(err); ok {
			response.BadRequest(w, r, err.Error(), []models.FieldError{fe})
			return
		}
		h.logger.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("optimize itinerary")
		response.InternalError(w, r, "failed to optimize itinerary")
		return
	}

	response.JSON(w, r, http.StatusOK, toOptimizeResponse(res))
}

// Reoptimize handles POST /v1/itineraries:reoptimize.
func (h *ItineraryHandler) Reoptimize(w http.ResponseWriter, r *http.Request) {
	var input models.ReoptimizeRequest
	if !decode(w, r, &input) {
		return
	}

	req, fieldErrors := h.toReoptimizeRequest(input)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid reoptimization request", fieldErrors)
		return
	}

	res, err := h.svc.Reoptimize(r.Context(), req)
	if err != nil {
		if fe, ok := validationError(err); ok {
			response.BadRequest(w, r, err.Error(), []models.FieldError{fe})
			return
		}
		h.logger.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("reoptimize itinerary")
		response.InternalError(w, r, "failed to reoptimize itinerary")
		return
	}

	response.JSON(w, r, http.StatusOK, toOptimizeResponse(res))
}

func (h *ItineraryHandler) toReoptimizeRequest(in models.ReoptimizeRequest) (itinerary.ReoptimizeRequest, []models.FieldError) {
	var errs []models.FieldError

	req := itinerary.ReoptimizeRequest{
		Location: in.Location,
		End:      in.End,
		Mode:     itinerary.Mode(strings.ToLower(in.Mode)),
		MaxTime:  time.Duration(in.MaxMinutes) * time.Minute,
		Seed:     in.Seed,
	}

	if in.Position != nil {
		req.Position = &geo.Coordinate{Lat: in.Position.Lat, Lon: in.Position.Lon}
		if err := req.Position.Validate(); err != nil {
			errs = append(errs, models.FieldError{Field: "position", Message: err.Error(), Code: models.CodeOutOfRange})
		}
	} else if strings.TrimSpace(in.Location) == "" {
		errs = append(errs, models.FieldError{Field: "location", Message: "location or position is required", Code: models.CodeRequired})
	}
	if strings.TrimSpace(in.End) == "" {
		errs = append(errs, models.FieldError{Field: "end", Message: "end location is required", Code: models.CodeRequired})
	}
	if in.Mode != "" && !req.Mode.Valid() {
		errs = append(errs, models.FieldError{Field: "mode", Message: "must be one of driving, walking, bicycling, transit", Code: models.CodeInvalid})
	}
	if in.MaxMinutes < 0 {
		errs = append(errs, models.FieldError{Field: "maxMinutes", Message: "must not be negative", Code: models.CodeOutOfRange})
	}

	now := h.now()
	day, errs := parseDay(now, in.Date, errs)
	if in.Now != "" {
		req.Now, errs = clockField(day, in.Now, "now", errs)
	} else {
		y, m, d := day.Date()
		req.Now = time.Date(y, m, d, now.Hour(), now.Minute(), 0, 0, day.Location())
	}
	req.EndTime, errs = clockField(day, in.EndTime, "endTime", errs)

	if len(in.Remaining) == 0 {
		errs = append(errs, models.FieldError{Field: "remaining", Message: "at least one destination is required", Code: models.CodeRequired})
	}
	req.Remaining, errs = parseDestinations(day, in.Remaining, "remaining", errs)

	return req, errs
}

func (h *ItineraryHandler) toRequest(in models.OptimizeRequest) (itinerary.Request, []models.FieldError) {
	var errs []models.FieldError

	req := itinerary.Request{
		Start:     in.Start,
		End:       in.End,
		Mode:      itinerary.Mode(strings.ToLower(in.Mode)),
		RoundTrip: in.RoundTrip,
		MaxTime:   time.Duration(in.MaxMinutes) * time.Minute,
		Seed:      in.Seed,
	}

	if strings.TrimSpace(in.Start) == "" {
		errs = append(errs, models.FieldError{Field: "start", Message: "start location is required", Code: models.CodeRequired})
	}
	if !in.RoundTrip && strings.TrimSpace(in.End) == "" {
		errs = append(errs, models.FieldError{Field: "end", Message: "end location is required unless roundTrip is set", Code: models.CodeRequired})
	}
	if in.Mode != "" && !req.Mode.Valid() {
		errs = append(errs, models.FieldError{Field: "mode", Message: "must be one of driving, walking, bicycling, transit", Code: models.CodeInvalid})
	}
	if in.MaxMinutes < 0 {
		errs = append(errs, models.FieldError{Field: "maxMinutes", Message: "must not be negative", Code: models.CodeOutOfRange})
	}

	day, errs := parseDay(h.now(), in.Date, errs)

	req.StartTime, errs = clockField(day, in.StartTime, "startTime", errs)
	req.EndTime, errs = clockField(day, in.EndTime, "endTime", errs)
	req.UseWindowBudget = in.MaxMinutes == 0 && in.StartTime != "" && in.EndTime != ""
	if req.StartTime.IsZero() && !req.EndTime.IsZero() {
		y, m, d := day.Date()
		req.StartTime = time.Date(y, m, d, itinerary.DefaultWindowStartHour, 0, 0, 0, day.Location())
	}
	if req.EndTime.IsZero() && !req.StartTime.IsZero() {
		y, m, d := day.Date()
		req.EndTime = time.Date(y, m, d, itinerary.DefaultWindowEndHour, 0, 0, 0, day.Location())
	}

	if len(in.Destinations) == 0 {
		errs = append(errs, models.FieldError{Field: "destinations", Message: "at least one destination is required", Code: models.CodeRequired})
	}
	req.Destinations, errs = parseDestinations(day, in.Destinations, "destinations", errs)

	return req, errs
}

func parseDay(today time.Time, date string, errs []models.FieldError) (time.Time, []models.FieldError) {
	if date == "" {
		return today, errs
	}
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return today, append(errs, models.FieldError{Field: "date", Message: "must be YYYY-MM-DD", Code: models.CodeInvalid})
	}
	return d, errs
}

func parseDestinations(day time.Time, in []models.DestinationInput, name string, errs []models.FieldError) ([]itinerary.Destination, []models.FieldError) {
	out := make([]itinerary.Destination, 0, len(in))
	for i, d := range in {
		field := fmt.Sprintf("%s[%d]", name, i)
		if strings.TrimSpace(d.Name) == "" {
			errs = append(errs, models.FieldError{Field: field + ".name", Message: "name is required", Code: models.CodeRequired})
		}

		dest := itinerary.Destination{
			ID:       d.ID,
			Name:     d.Name,
			Category: d.Category,
			Priority: d.Priority,
			Dwell:    itinerary.DefaultDwell,
			Note:     d.Note,
		}
		if d.DwellMinutes != nil {
			dest.Dwell = time.Duration(*d.DwellMinutes) * time.Minute
		}
		if d.TargetArrival != "" {
			var target time.Time
			target, errs = clockField(day, d.TargetArrival, field+".targetArrival", errs)
			if !target.IsZero() {
				dest.TargetArrival = &target
			}
		}
		out = append(out, dest)
	}
	return out, errs
}

func clockField(day time.Time, value, field string, errs []models.FieldError) (time.Time, []models.FieldError) {
	if value == "" {
		return time.Time{}, errs
	}
	t, err := itinerary.ParseClock(day, value)
	if err != nil {
		return time.Time{}, append(errs, models.FieldError{Field: field, Message: "must be HH:MM", Code: models.CodeInvalid})
	}
	return t, errs
}

// validationError maps engine input errors to a field error.
func validationError(err error) (models.FieldError, bool) {
	switch {
	case errors.Is(err, itinerary.ErrMissingStart):
		return models.FieldError{Field: "start", Message: err.Error(), Code: models.CodeRequired}, true
	case errors.Is(err, itinerary.ErrMissingEnd):
		return models.FieldError{Field: "end", Message: err.Error(), Code: models.CodeRequired}, true
	case errors.Is(err, itinerary.ErrNoDestinations):
		return models.FieldError{Field: "destinations", Message: err.Error(), Code: models.CodeRequired}, true
	case errors.Is(err, itinerary.ErrInvalidTimeWindow):
		return models.FieldError{Field: "endTime", Message: err.Error(), Code: models.CodeOutOfRange}, true
	case errors.Is(err, itinerary.ErrMissingLocation):
		return models.FieldError{Field: "location", Message: err.Error(), Code: models.CodeRequired}, true
	case errors.Is(err, itinerary.ErrInvalidPosition):
		return models.FieldError{Field: "position", Message: err.Error(), Code: models.CodeOutOfRange}, true
	}
	return models.FieldError{}, false
}

// decode reads a JSON body into v, writing a 400 and returning false on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		response.BadRequest(w, r, "invalid JSON body: "+err.Error(), nil)
		return false
	}
	return true
}
