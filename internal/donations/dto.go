package donations

import (
	"time"

	"github.com/foodlink/foodlink-backend/internal/profiles"
	"github.com/foodlink/foodlink-backend/pkg/db/models"
	"github.com/foodlink/foodlink-backend/pkg/enums"
)

// CreateDonationRequest is the body of POST /api/v1/donation. Email, Phone and
// Address are accepted for client compatibility and ignored: contact details
// always come from the donor's profile.
type CreateDonationRequest struct {
	Name           string   `json:"name"`
	Quantity       *float64 `json:"quantity"`
	FoodType       string   `json:"foodType"`
	PreparedAt     string   `json:"preparedAt"`
	PickupDate     string   `json:"pickupDate"`
	PickupTime     string   `json:"pickupTime"`
	Picture        *string  `json:"picture,omitempty"`
	AdditionalNote *string  `json:"additionalNote,omitempty"`
	Landmark       *string  `json:"landmark,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`

	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// DisposalPartner is the party that takes a rejected donation.
type DisposalPartner struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Location string `json:"location"`
}

// RejectDonationRequest is the body of PATCH /api/v1/donation/{id}/reject.
type RejectDonationRequest struct {
	Reason          string           `json:"reason"`
	DisposalPartner *DisposalPartner `json:"disposalPartner"`
}

// ListParams are the caller-facing list options.
// Mine is "donated", "accepted" or empty.
type ListParams struct {
	ActorID string
	Status  string
	Mine    string
	Limit   int
	Cursor  string
}

// ListResult carries one page of donations and the cursor of the next page.
type ListResult struct {
	Items      []DonationResponse
	NextCursor string
}

// DonationResponse is the wire form of a donation with populated profile summaries.
type DonationResponse struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Quantity       float64              `json:"quantity"`
	FoodType       string               `json:"foodType"`
	Email          string               `json:"email"`
	Phone          string               `json:"phone"`
	Address        string               `json:"address"`
	PreparedAt     time.Time            `json:"preparedAt"`
	PickupDate     time.Time            `json:"pickupDate"`
	PickupTime     time.Time            `json:"pickupTime"`
	Picture        string               `json:"picture"`
	AdditionalNote *string              `json:"additionalNote,omitempty"`
	Landmark       *string              `json:"landmark,omitempty"`
	Latitude       *float64             `json:"latitude,omitempty"`
	Longitude      *float64             `json:"longitude,omitempty"`
	Status         enums.DonationStatus `json:"status"`

	Donor      profiles.Summary  `json:"donor"`
	AcceptedBy *profiles.Summary `json:"acceptedBy,omitempty"`
	AcceptedAt *time.Time        `json:"acceptedAt,omitempty"`

	CompletedAt *time.Time `json:"completedAt,omitempty"`

	RejectedBy              *profiles.Summary `json:"rejectedBy,omitempty"`
	RejectedAt              *time.Time        `json:"rejectedAt,omitempty"`
	RejectedReason          *string           `json:"rejectedReason,omitempty"`
	AssignedDisposalPartner *DisposalPartner  `json:"assignedDisposalPartner,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newDonationResponse(d models.Donation, summaries map[string]profiles.Summary) DonationResponse {
	resp := DonationResponse{
		ID:             d.ID,
		Name:           d.Name,
		Quantity:       d.Quantity,
		FoodType:       d.FoodType,
		Email:          d.Email,
		Phone:          d.Phone,
		Address:        d.Address,
		PreparedAt:     d.PreparedAt,
		PickupDate:     d.PickupDate,
		PickupTime:     d.PickupTime,
		Picture:        d.Picture,
		AdditionalNote: d.AdditionalNote,
		Landmark:       d.Landmark,
		Latitude:       d.Latitude,
		Longitude:      d.Longitude,
		Status:         d.Status,
		Donor:          lookupSummary(summaries, d.DonorID),
		AcceptedAt:     d.AcceptedAt,
		CompletedAt:    d.CompletedAt,
		RejectedAt:     d.RejectedAt,
		RejectedReason: d.RejectedReason,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if d.AcceptedByID != nil {
		s := lookupSummary(summaries, *d.AcceptedByID)
		resp.AcceptedBy = &s
	}
	if d.RejectedByID != nil {
		s := lookupSummary(summaries, *d.RejectedByID)
		resp.RejectedBy = &s
	}
	if d.Status == enums.DonationStatusRejected && d.DisposalPartnerName != nil {
		resp.AssignedDisposalPartner = &DisposalPartner{
			Name:     derefString(d.DisposalPartnerName),
			Contact:  derefString(d.DisposalPartnerContact),
			Location: derefString(d.DisposalPartnerLocation),
		}
	}
	return resp
}

// lookupSummary falls back to an id-only summary when the profile is gone.
func lookupSummary(summaries map[string]profiles.Summary, id string) profiles.Summary {
	if s, ok := summaries[id]; ok {
		return s
	}
	return profiles.Summary{ID: id}
}

func referencedProfileIDs(items []models.Donation) []string {
	ids := make([]string, 0, len(items)*2)
	for _, d := range items {
		ids = append(ids, d.DonorID)
		if d.AcceptedByID != nil {
			ids = append(ids, *d.AcceptedByID)
		}
		if d.RejectedByID != nil {
			ids = append(ids, *d.RejectedByID)
		}
	}
	return ids
}
