package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodlink/foodlink-backend/api/middleware"
	"github.com/foodlink/foodlink-backend/api/responses"
	"github.com/foodlink/foodlink-backend/api/validators"
	internalauth "github.com/foodlink/foodlink-backend/internal/auth"
	"github.com/foodlink/foodlink-backend/internal/donations"
	pkgerrors "github.com/foodlink/foodlink-backend/pkg/errors"
	"github.com/foodlink/foodlink-backend/pkg/logger"
)

// NextCursorHeader carries the cursor of the following page on list responses.
const NextCursorHeader = "X-Next-Cursor"

// DonationCreate registers a donation for the calling donor.
func DonationCreate(svc donations.Service, logg *logger.Logger) http.HandlerFunc {
	return middleware.Authenticated(logg, func(w http.ResponseWriter, r *http.Request, authCtx internalauth.AuthenticatedContext) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donation service unavailable"))
			return
		}

		var req donations.CreateDonationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		donation, err := svc.Create(r.Context(), authCtx.Profile, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, donation, "Donation created successfully")
	})
}

// DonationList returns donations newest first, optionally filtered by status or by the caller's role in them.
func DonationList(svc donations.Service, logg *logger.Logger) http.HandlerFunc {
	return middleware.Authenticated(logg, func(w http.ResponseWriter, r *http.Request, authCtx internalauth.AuthenticatedContext) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donation service unavailable"))
			return
		}

		query, err := validators.ParseListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), donations.ListParams{
			ActorID: authCtx.ProfileID(),
			Status:  query.Status,
			Mine:    query.Mine,
			Limit:   query.Limit,
			Cursor:  query.Cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.NextCursor != "" {
			w.Header().Set(NextCursorHeader, result.NextCursor)
		}
		responses.WriteSuccess(w, result.Items, "Donations fetched successfully")
	})
}

func DonationGet(svc donations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donation service unavailable"))
			return
		}

		donation, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, donation, "Donation fetched successfully")
	}
}

func DonationAccept(svc donations.Service, logg *logger.Logger) http.HandlerFunc {
	return middleware.Authenticated(logg, func(w http.ResponseWriter, r *http.Request, authCtx internalauth.AuthenticatedContext) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donation service unavailable"))
			return
		}

		donation, err := svc.Accept(r.Context(), authCtx.Profile, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, donation, "Donation accepted successfully")
	})
}

func DonationComplete(svc donations.Service, logg *logger.Logger) http.HandlerFunc {
	return middleware.Authenticated(logg, func(w http.ResponseWriter, r *http.Request, authCtx internalauth.AuthenticatedContext) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donation service unavailable"))
			return
		}

		donation, err := svc.Complete(r.Context(), authCtx.Profile, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, donation, "Donation marked as completed")
	})
}

// DonationReject records a rejection and hands the food to a disposal partner.
func DonationReject(svc donations.Service, logg *logger.Logger) http.HandlerFunc {
	return middleware.Authenticated(logg, func(w http.ResponseWriter, r *http.Request, authCtx internalauth.AuthenticatedContext) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donation service unavailable"))
			return
		}

		var req donations.RejectDonationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		donation, err := svc.Reject(r.Context(), authCtx.Profile, chi.URLParam(r, "id"), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, donation, "Donation marked as rejected and disposal partner assigned")
	})
}
