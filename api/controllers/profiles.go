package controllers

import (
	"net/http"

	"github.com/foodlink/foodlink-backend/api/middleware"
	"github.com/foodlink/foodlink-backend/api/responses"
	"github.com/foodlink/foodlink-backend/api/validators"
	internalauth "github.com/foodlink/foodlink-backend/internal/auth"
	"github.com/foodlink/foodlink-backend/internal/profiles"
	pkgerrors "github.com/foodlink/foodlink-backend/pkg/errors"
	"github.com/foodlink/foodlink-backend/pkg/logger"
)

// ProfileMe returns the caller's profile, or a needsSetup marker when the
// verified identity has no profile yet.
func ProfileMe(logg *logger.Logger) http.HandlerFunc {
	return middleware.Authenticated(logg, func(w http.ResponseWriter, r *http.Request, authCtx internalauth.AuthenticatedContext) {
		if authCtx.NeedsSetup || authCtx.Profile == nil {
			responses.WriteSuccess(w, profiles.ProfileResponse{
				UID:        authCtx.Identity.UID,
				Name:       authCtx.Identity.Name,
				Email:      authCtx.Identity.Email,
				NeedsSetup: true,
			}, "Profile setup required")
			return
		}
		responses.WriteSuccess(w, profiles.NewProfileResponse(*authCtx.Profile), "Profile fetched successfully")
	})
}

func ProfileSetup(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return middleware.Authenticated(logg, func(w http.ResponseWriter, r *http.Request, authCtx internalauth.AuthenticatedContext) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		var req profiles.SetupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Setup(r.Context(), authCtx.Identity, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if authCtx.Profile != nil {
			responses.WriteSuccess(w, profiles.NewProfileResponse(*profile), "Profile updated successfully")
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, profiles.NewProfileResponse(*profile), "Profile created successfully")
	})
}

// ProfileUpdate replaces the caller's contact details and recomputes completion.
func ProfileUpdate(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return middleware.Authenticated(logg, func(w http.ResponseWriter, r *http.Request, authCtx internalauth.AuthenticatedContext) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		var req profiles.UpdateContactRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateContact(r.Context(), authCtx.ProfileID(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profiles.NewProfileResponse(*profile), "Profile updated successfully")
	})
}
