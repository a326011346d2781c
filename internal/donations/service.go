package donations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foodlink/foodlink-backend/internal/profiles"
	"github.com/foodlink/foodlink-backend/pkg/db/models"
	"github.com/foodlink/foodlink-backend/pkg/enums"
	pkgerrors "github.com/foodlink/foodlink-backend/pkg/errors"
	"github.com/foodlink/foodlink-backend/pkg/logger"
	"github.com/foodlink/foodlink-backend/pkg/metrics"
	"github.com/foodlink/foodlink-backend/pkg/pagination"
	"github.com/google/uuid"
)

const (
	transitionCreate   = "create"
	transitionAccept   = "accept"
	transitionComplete = "complete"
	transitionReject   = "reject"

	MineDonated  = "donated"
	MineAccepted = "accepted"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

type profileSummaries interface {
	Summaries(ctx context.Context, ids []string) (map[string]profiles.Summary, error)
}

// ServiceParams groups dependencies for the donation service.
type ServiceParams struct {
	Repo     Repository
	Profiles profileSummaries
	Metrics  *metrics.DonationMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

// Service implements the donation lifecycle:
// Pending -> In Process -> Completed | Rejected.
type Service interface {
	Create(ctx context.Context, actor *models.Profile, req CreateDonationRequest) (DonationResponse, error)
	List(ctx context.Context, params ListParams) (ListResult, error)
	Get(ctx context.Context, id string) (DonationResponse, error)
	Accept(ctx context.Context, actor *models.Profile, id string) (DonationResponse, error)
	Complete(ctx context.Context, actor *models.Profile, id string) (DonationResponse, error)
	Reject(ctx context.Context, actor *models.Profile, id string, req RejectDonationRequest) (DonationResponse, error)
}

type service struct {
	repo     Repository
	profiles profileSummaries
	metrics  *metrics.DonationMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a donation service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "donation repository required")
	}
	if params.Profiles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "profile service required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		profiles: params.Profiles,
		metrics:  params.Metrics,
		logg:     logg,
		now:      now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor *models.Profile, req CreateDonationRequest) (DonationResponse, error) {
	if actor == nil {
		return DonationResponse{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized: Profile not found")
	}
	if actor.Role != enums.RoleDonor {
		return DonationResponse{}, pkgerrors.New(pkgerrors.CodeForbidden, "Only donors can create donations")
	}
	if !actor.IsCompleted {
		return DonationResponse{}, pkgerrors.New(pkgerrors.CodeForbidden, "Please complete your profile first")
	}
	if err := validateCreate(req); err != nil {
		return DonationResponse{}, err
	}

	preparedAt, err := parseDate("preparedAt", req.PreparedAt)
	if err != nil {
		return DonationResponse{}, err
	}
	pickupDate, err := parseDate("pickupDate", req.PickupDate)
	if err != nil {
		return DonationResponse{}, err
	}
	pickupTime, err := parseDate("pickupTime", req.PickupTime)
	if err != nil {
		return DonationResponse{}, err
	}

	now := s.timestamp()
	donation := &models.Donation{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Quantity:       *req.Quantity,
		FoodType:       strings.TrimSpace(req.FoodType),
		Email:          actor.Email,
		Phone:          derefString(actor.Phone),
		Address:        derefString(actor.Address),
		PreparedAt:     preparedAt,
		PickupDate:     pickupDate,
		PickupTime:     pickupTime,
		Picture:        strings.TrimSpace(derefString(req.Picture)),
		AdditionalNote: nonBlank(req.AdditionalNote),
		Landmark:       nonBlank(req.Landmark),
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Status:         enums.DonationStatusPending,
		DonorID:        actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if donation.Landmark == nil {
		donation.Landmark = actor.Landmark
	}
	if donation.Latitude == nil && donation.Longitude == nil {
		donation.Latitude, donation.Longitude = actor.Latitude, actor.Longitude
	}

	created, err := s.repo.Create(ctx, donation)
	if err != nil {
		return DonationResponse{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create donation")
	}
	s.recordTransition(ctx, transitionCreate, created.ID)
	return s.populate(ctx, *created)
}

func (s *service) List(ctx context.Context, params ListParams) (ListResult, error) {
	filter := ListFilter{Limit: params.Limit}
	if raw := strings.TrimSpace(params.Status); raw != "" {
		status, err := enums.ParseDonationStatus(raw)
		if err != nil {
			return ListResult{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status: %s", raw)).
				WithDetails(map[string]string{"status": "must be one of: Pending, In Process, Completed, Rejected"})
		}
		filter.Status = status
	}
	switch strings.ToLower(strings.TrimSpace(params.Mine)) {
	case "":
	case MineDonated:
		filter.DonorID = params.ActorID
	case MineAccepted:
		filter.AcceptedByID = params.ActorID
	default:
		return ListResult{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid mine filter").
			WithDetails(map[string]string{"mine": "must be one of: donated, accepted"})
	}
	if (filter.DonorID != "" || filter.AcceptedByID != "") && params.ActorID == "" {
		return ListResult{}, pkgerrors.New(pkgerrors.CodeForbidden, "Please complete your profile first")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return ListResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter.Cursor = cursor

	rows, next, err := s.repo.List(ctx, filter)
	if err != nil {
		return ListResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list donations")
	}
	summaries, err := s.profiles.Summaries(ctx, referencedProfileIDs(rows))
	if err != nil {
		return ListResult{}, err
	}

	result := ListResult{Items: make([]DonationResponse, 0, len(rows))}
	for _, row := range rows {
		result.Items = append(result.Items, newDonationResponse(row, summaries))
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id string) (DonationResponse, error) {
	donation, err := s.load(ctx, id)
	if err != nil {
		return DonationResponse{}, err
	}
	return s.populate(ctx, *donation)
}

func (s *service) Accept(ctx context.Context, actor *models.Profile, id string) (DonationResponse, error) {
	if actor == nil || actor.Role != enums.RoleRecipient {
		return DonationResponse{}, pkgerrors.New(pkgerrors.CodeForbidden, "Only recipients can accept donations")
	}
	donation, err := s.load(ctx, id)
	if err != nil {
		return DonationResponse{}, err
	}
	if donation.Status != enums.DonationStatusPending {
		return DonationResponse{}, invalidTransition(transitionAccept, donation.Status, enums.DonationStatusPending)
	}
	if donation.DonorID == actor.ID {
		return DonationResponse{}, pkgerrors.New(pkgerrors.CodeForbidden, "You cannot accept your own donation")
	}

	now := s.timestamp()
	acceptedBy := actor.ID
	updated, err := s.repo.Transition(ctx, id, enums.DonationStatusPending, TransitionGuard{}, TransitionUpdate{
		Status:       enums.DonationStatusInProcess,
		AcceptedByID: &acceptedBy,
		AcceptedAt:   &now,
		UpdatedAt:    now,
	})
	if err != nil {
		return DonationResponse{}, s.transitionError(transitionAccept, enums.DonationStatusPending, updated, err)
	}
	s.recordTransition(ctx, transitionAccept, id)
	return s.populate(ctx, *updated)
}

func (s *service) Complete(ctx context.Context, actor *models.Profile, id string) (DonationResponse, error) {
	if actor == nil {
		return DonationResponse{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized: Profile not found")
	}
	donation, err := s.load(ctx, id)
	if err != nil {
		return DonationResponse{}, err
	}
	if donation.Status != enums.DonationStatusInProcess {
		return DonationResponse{}, invalidTransition(transitionComplete, donation.Status, enums.DonationStatusInProcess)
	}
	if !acceptedBy(donation, actor.ID) {
		return DonationResponse{}, pkgerrors.New(pkgerrors.CodeForbidden, "Only the receiver who accepted this donation can mark it as completed")
	}

	now := s.timestamp()
	updated, err := s.repo.Transition(ctx, id, enums.DonationStatusInProcess, TransitionGuard{AcceptedByID: actor.ID}, TransitionUpdate{
		Status:      enums.DonationStatusCompleted,
		CompletedAt: &now,
		UpdatedAt:   now,
	})
	if err != nil {
		return DonationResponse{}, s.transitionError(transitionComplete, enums.DonationStatusInProcess, updated, err)
	}
	s.recordTransition(ctx, transitionComplete, id)
	return s.populate(ctx, *updated)
}

func (s *service) Reject(ctx context.Context, actor *models.Profile, id string, req RejectDonationRequest) (DonationResponse, error) {
	if actor == nil {
		return DonationResponse{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized: Profile not found")
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return DonationResponse{}, pkgerrors.New(pkgerrors.CodeValidation, "Rejection reason is required").
			WithDetails(map[string]string{"reason": "is required"})
	}
	partner := req.DisposalPartner
	if partner == nil || strings.TrimSpace(partner.Name) == "" || strings.TrimSpace(partner.Contact) == "" || strings.TrimSpace(partner.Location) == "" {
		return DonationResponse{}, pkgerrors.New(pkgerrors.CodeValidation, "Disposal partner information is required").
			WithDetails(map[string]string{"disposalPartner": "name, contact and location are required"})
	}

	donation, err := s.load(ctx, id)
	if err != nil {
		return DonationResponse{}, err
	}
	if donation.Status != enums.DonationStatusInProcess {
		return DonationResponse{}, invalidTransition(transitionReject, donation.Status, enums.DonationStatusInProcess)
	}
	if !acceptedBy(donation, actor.ID) {
		return DonationResponse{}, pkgerrors.New(pkgerrors.CodeForbidden, "Only the receiver who accepted this donation can mark it as rejected")
	}

	now := s.timestamp()
	rejectedBy := actor.ID
	name := strings.TrimSpace(partner.Name)
	contact := strings.TrimSpace(partner.Contact)
	location := strings.TrimSpace(partner.Location)
	updated, err := s.repo.Transition(ctx, id, enums.DonationStatusInProcess, TransitionGuard{AcceptedByID: actor.ID}, TransitionUpdate{
		Status:                  enums.DonationStatusRejected,
		RejectedByID:            &rejectedBy,
		RejectedAt:              &now,
		RejectedReason:          &reason,
		DisposalPartnerName:     &name,
		DisposalPartnerContact:  &contact,
		DisposalPartnerLocation: &location,
		UpdatedAt:               now,
	})
	if err != nil {
		return DonationResponse{}, s.transitionError(transitionReject, enums.DonationStatusInProcess, updated, err)
	}
	s.recordTransition(ctx, transitionReject, id)
	return s.populate(ctx, *updated)
}

func (s *service) load(ctx context.Context, id string) (*models.Donation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Donation not found")
	}
	donation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Donation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load donation")
	}
	return donation, nil
}

func (s *service) populate(ctx context.Context, donation models.Donation) (DonationResponse, error) {
	summaries, err := s.profiles.Summaries(ctx, referencedProfileIDs([]models.Donation{donation}))
	if err != nil {
		return DonationResponse{}, err
	}
	return newDonationResponse(donation, summaries), nil
}

// transitionError maps repository failures of a conditional update. Losing a
// race surfaces as an invalid transition against the status that won.
func (s *service) transitionError(transition string, expected enums.DonationStatus, current *models.Donation, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "Donation not found")
	case errors.Is(err, ErrStatusMismatch):
		if current != nil && current.Status == expected {
			return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("Only the receiver who accepted this donation can mark it as %s", pastTense(transition)))
		}
		status := expected
		if current != nil {
			status = current.Status
		}
		return invalidTransition(transition, status, expected)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, transition+" donation")
	}
}

func (s *service) recordTransition(ctx context.Context, transition, id string) {
	s.metrics.IncTransition(transition)
	s.logg.Info(s.logg.WithDonationID(ctx, id), "donation."+transition)
}

func (s *service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func invalidTransition(transition string, current, expected enums.DonationStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("Cannot %s donation with status: %s", transition, current)).
		WithDetails(map[string]string{"current": string(current), "expected": string(expected)})
}

func pastTense(transition string) string {
	switch transition {
	case transitionComplete:
		return "completed"
	case transitionReject:
		return "rejected"
	}
	return transition + "ed"
}

func acceptedBy(d *models.Donation, profileID string) bool {
	return d.AcceptedByID != nil && *d.AcceptedByID == profileID
}

// validateCreate checks required fields in a fixed order and reports the first one missing.
// A zero quantity counts as missing.
func validateCreate(req CreateDonationRequest) error {
	required := []struct {
		field   string
		present bool
	}{
		{"name", strings.TrimSpace(req.Name) != ""},
		{"quantity", req.Quantity != nil && *req.Quantity != 0},
		{"foodType", strings.TrimSpace(req.FoodType) != ""},
		{"preparedAt", strings.TrimSpace(req.PreparedAt) != ""},
		{"pickupDate", strings.TrimSpace(req.PickupDate) != ""},
		{"pickupTime", strings.TrimSpace(req.PickupTime) != ""},
	}
	for _, r := range required {
		if !r.present {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Field '%s' is required", r.field)).
				WithDetails(map[string]string{r.field: "is required"})
		}
	}
	if *req.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Field 'quantity' must be a positive number").
			WithDetails(map[string]string{"quantity": "must be greater than 0"})
	}
	return nil
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Truncate(time.Millisecond), nil
		}
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Field '%s' must be a valid date", field)).
		WithDetails(map[string]string{field: "must be a valid date"})
}

func nonBlank(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
