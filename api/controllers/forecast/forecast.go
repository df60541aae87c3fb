package forecast

import (
	"context"
	"net/http"

	"github.com/angelmondragon/packfinderz-forecast/api/middleware"
	"github.com/angelmondragon/packfinderz-forecast/api/responses"
	"github.com/angelmondragon/packfinderz-forecast/api/validators"
	forecastsvc "github.com/angelmondragon/packfinderz-forecast/internal/forecast"
	"github.com/angelmondragon/packfinderz-forecast/internal/scenarios"
	"github.com/angelmondragon/packfinderz-forecast/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-forecast/pkg/errors"
	"github.com/angelmondragon/packfinderz-forecast/pkg/logger"
	"github.com/google/uuid"
)

const maxSessionIDLength = 64

// ScenarioComparer is the comparison surface the scenarios handler needs.
type ScenarioComparer interface {
	Compare(ctx context.Context, sessionID string, base forecastsvc.ForecastRequest, ownerID uuid.UUID, requested []enums.Scenario) (*scenarios.Comparison, error)
}

type scenariosRequest struct {
	SessionID string                      `json:"sessionId,omitempty" validate:"omitempty,max=64"`
	Request   forecastsvc.ForecastRequest `json:"request"`
	Scenarios []enums.Scenario            `json:"scenarios" validate:"omitempty,max=10,dive,oneof=optimistic pessimistic realistic"`
}

// Forecast serves POST /api/v1/forecast.
func Forecast(svc forecastsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner, ok := ownerFrom(ctx, w, logg)
		if !ok {
			return
		}

		var req forecastsvc.ForecastRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resp, err := svc.Forecast(ctx, owner, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// Chart serves POST /api/v1/forecast/chart.
func Chart(svc forecastsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner, ok := ownerFrom(ctx, w, logg)
		if !ok {
			return
		}

		var req forecastsvc.ForecastRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resp, err := svc.Chart(ctx, owner, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// Scenarios serves POST /api/v1/forecast/scenarios.
func Scenarios(comparer ScenarioComparer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner, ok := ownerFrom(ctx, w, logg)
		if !ok {
			return
		}

		var payload scenariosRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sessionID := validators.SanitizeString(payload.SessionID, maxSessionIDLength)
		result, err := comparer.Compare(ctx, sessionID, payload.Request, owner, payload.Scenarios)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ownerFrom(ctx context.Context, w http.ResponseWriter, logg *logger.Logger) (uuid.UUID, bool) {
	owner, ok := middleware.OwnerIDFromContext(ctx)
	if !ok {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "store context required"))
		return uuid.Nil, false
	}
	return owner, true
}
