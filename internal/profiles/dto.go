package profiles

import (
	"time"

	"github.com/foodlink/foodlink-backend/pkg/db/models"
	"github.com/foodlink/foodlink-backend/pkg/enums"
)

// Summary is the populated view of a profile embedded in donation responses.
type Summary struct {
	ID        string     `json:"id"`
	UID       string     `json:"uid"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     *string    `json:"phone,omitempty"`
	Address   *string    `json:"address,omitempty"`
	Landmark  *string    `json:"landmark,omitempty"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	Avatar    *string    `json:"avatar,omitempty"`
	Role      enums.Role `json:"role"`
}

// NewSummary projects the publicly visible profile fields.
func NewSummary(p models.Profile) Summary {
	return Summary{
		ID:        p.ID,
		UID:       p.UID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Address:   p.Address,
		Landmark:  p.Landmark,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Avatar:    p.Avatar,
		Role:      p.Role,
	}
}

// ProfileResponse is returned by the profile endpoints. NeedsSetup is set when
// the identity is verified but no profile exists yet.
type ProfileResponse struct {
	ID          string     `json:"id,omitempty"`
	UID         string     `json:"uid"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       *string    `json:"phone,omitempty"`
	Address     *string    `json:"address,omitempty"`
	Landmark    *string    `json:"landmark,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Avatar      *string    `json:"avatar,omitempty"`
	Role        enums.Role `json:"role,omitempty"`
	IsCompleted bool       `json:"isCompleted"`
	NeedsSetup  bool       `json:"needsSetup"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func NewProfileResponse(p models.Profile) ProfileResponse {
	createdAt, updatedAt := p.CreatedAt, p.UpdatedAt
	return ProfileResponse{
		ID:          p.ID,
		UID:         p.UID,
		Name:        p.Name,
		Email:       p.Email,
		Phone:       p.Phone,
		Address:     p.Address,
		Landmark:    p.Landmark,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Avatar:      p.Avatar,
		Role:        p.Role,
		IsCompleted: p.IsCompleted,
		CreatedAt:   &createdAt,
		UpdatedAt:   &updatedAt,
	}
}

// ContactFields are the mutable contact details of a profile.
type ContactFields struct {
	Phone     string   `json:"phone" validate:"required,max=32"`
	Address   string   `json:"address" validate:"required,max=500"`
	Landmark  *string  `json:"landmark,omitempty" validate:"omitempty,max=200"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Avatar    *string  `json:"avatar,omitempty" validate:"omitempty,max=2048"`
}

// SetupRequest creates the profile for a verified identity. Contact details are optional.
type SetupRequest struct {
	Role      string   `json:"role" validate:"required,oneof=donor recipient"`
	Phone     *string  `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address   *string  `json:"address,omitempty" validate:"omitempty,max=500"`
	Landmark  *string  `json:"landmark,omitempty" validate:"omitempty,max=200"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// UpdateContactRequest replaces the contact details of the caller's profile.
type UpdateContactRequest = ContactFields
