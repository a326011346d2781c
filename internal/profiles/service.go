package profiles

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/foodlink/foodlink-backend/pkg/auth"
	"github.com/foodlink/foodlink-backend/pkg/db/models"
	"github.com/foodlink/foodlink-backend/pkg/enums"
	pkgerrors "github.com/foodlink/foodlink-backend/pkg/errors"
	"github.com/google/uuid"
)

// Service exposes profile lookup, onboarding and contact updates.
type Service interface {
	FindByUID(ctx context.Context, uid string) (*models.Profile, error)
	EnsureProfile(ctx context.Context, identity auth.Identity, role enums.Role) (*models.Profile, error)
	Setup(ctx context.Context, identity auth.Identity, req SetupRequest) (*models.Profile, error)
	UpdateContact(ctx context.Context, profileID string, req UpdateContactRequest) (*models.Profile, error)
	Summaries(ctx context.Context, ids []string) (map[string]Summary, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires the profile service to its repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "profile repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) FindByUID(ctx context.Context, uid string) (*models.Profile, error) {
	profile, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}

// EnsureProfile returns the profile for identity, creating it with role when absent.
// A concurrent creation for the same uid is resolved by re-reading the winner.
func (s *service) EnsureProfile(ctx context.Context, identity auth.Identity, role enums.Role) (*models.Profile, error) {
	existing, err := s.repo.FindByUID(ctx, identity.UID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role").WithDetails(map[string]string{"role": "must be one of: donor recipient"})
	}

	profile := s.newProfile(identity, role)
	if err := s.repo.Create(ctx, profile); err != nil {
		if errors.Is(err, ErrDuplicate) {
			winner, findErr := s.repo.FindByUID(ctx, identity.UID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "reload profile")
			}
			return winner, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
	}
	return profile, nil
}

func (s *service) Setup(ctx context.Context, identity auth.Identity, req SetupRequest) (*models.Profile, error) {
	role, err := enums.ParseRole(req.Role)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role").WithDetails(map[string]string{"role": "must be one of: donor recipient"})
	}
	if existing, err := s.repo.FindByUID(ctx, identity.UID); err == nil {
		return s.reassignRole(ctx, existing, role, req)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	profile := s.newProfile(identity, role)
	profile.Phone = trimmedOrNil(req.Phone)
	profile.Address = trimmedOrNil(req.Address)
	profile.Landmark = trimmedOrNil(req.Landmark)
	profile.Latitude = req.Latitude
	profile.Longitude = req.Longitude
	profile.IsCompleted = profile.HasContact()

	if err := s.repo.Create(ctx, profile); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "profile already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
	}
	return profile, nil
}

// reassignRole lets a caller fix the role of a profile that was provisioned
// with the default role. Once contact details complete the profile, the role
// is locked because donations may reference it.
func (s *service) reassignRole(ctx context.Context, profile *models.Profile, role enums.Role, req SetupRequest) (*models.Profile, error) {
	if profile.IsCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "profile already exists")
	}
	profile.Role = role
	if phone := trimmedOrNil(req.Phone); phone != nil {
		profile.Phone = phone
	}
	if address := trimmedOrNil(req.Address); address != nil {
		profile.Address = address
	}
	if landmark := trimmedOrNil(req.Landmark); landmark != nil {
		profile.Landmark = landmark
	}
	if req.Latitude != nil {
		profile.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		profile.Longitude = req.Longitude
	}
	profile.IsCompleted = profile.HasContact()
	profile.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile role")
	}
	return profile, nil
}

func (s *service) UpdateContact(ctx context.Context, profileID string, req UpdateContactRequest) (*models.Profile, error) {
	profile, err := s.repo.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	profile.Phone = trimmedOrNil(&req.Phone)
	profile.Address = trimmedOrNil(&req.Address)
	profile.Landmark = trimmedOrNil(req.Landmark)
	profile.Latitude = req.Latitude
	profile.Longitude = req.Longitude
	if avatar := trimmedOrNil(req.Avatar); avatar != nil {
		profile.Avatar = avatar
	}
	profile.IsCompleted = profile.HasContact()
	profile.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, profile); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return profile, nil
}

// Summaries loads the given profiles keyed by id. Unknown ids are omitted.
func (s *service) Summaries(ctx context.Context, ids []string) (map[string]Summary, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	out := make(map[string]Summary, len(unique))
	if len(unique) == 0 {
		return out, nil
	}
	found, err := s.repo.FindByIDs(ctx, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profiles")
	}
	for _, p := range found {
		out[p.ID] = NewSummary(p)
	}
	return out, nil
}

func (s *service) newProfile(identity auth.Identity, role enums.Role) *models.Profile {
	now := s.now().UTC().Truncate(time.Millisecond)
	return &models.Profile{
		ID:        uuid.NewString(),
		UID:       identity.UID,
		Name:      identity.Name,
		Email:     identity.Email,
		Avatar:    trimmedOrNil(&identity.Picture),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
