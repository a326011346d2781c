package models

import (
	"time"

	"github.com/foodlink/foodlink-backend/pkg/enums"
)

// Donation is one surplus-food listing. Email, Phone and Address are a
// snapshot of the donor profile taken at creation time.
type Donation struct {
	ID             string               `gorm:"type:uuid;primaryKey" bson:"_id"`
	Name           string               `gorm:"column:name;type:text;not null" bson:"name"`
	Quantity       float64              `gorm:"column:quantity;not null" bson:"quantity"`
	FoodType       string               `gorm:"column:food_type;type:text;not null" bson:"foodType"`
	Email          string               `gorm:"column:email;type:text;not null" bson:"email"`
	Phone          string               `gorm:"column:phone;type:text;not null" bson:"phone"`
	Address        string               `gorm:"column:address;type:text;not null" bson:"address"`
	PreparedAt     time.Time            `gorm:"column:prepared_at;not null" bson:"preparedAt"`
	PickupDate     time.Time            `gorm:"column:pickup_date;not null" bson:"pickupDate"`
	PickupTime     time.Time            `gorm:"column:pickup_time;not null" bson:"pickupTime"`
	Picture        string               `gorm:"column:picture;type:text;not null;default:''" bson:"picture"`
	AdditionalNote *string              `gorm:"column:additional_note;type:text" bson:"additionalNote,omitempty"`
	Landmark       *string              `gorm:"column:landmark;type:text" bson:"landmark,omitempty"`
	Latitude       *float64             `gorm:"column:latitude" bson:"latitude,omitempty"`
	Longitude      *float64             `gorm:"column:longitude" bson:"longitude,omitempty"`
	Status         enums.DonationStatus `gorm:"column:status;type:text;not null" bson:"status"`
	DonorID        string               `gorm:"column:donor_id;type:uuid;not null;index" bson:"donorId"`

	AcceptedByID *string    `gorm:"column:accepted_by_id;type:uuid;index" bson:"acceptedById,omitempty"`
	AcceptedAt   *time.Time `gorm:"column:accepted_at" bson:"acceptedAt,omitempty"`
	CompletedAt  *time.Time `gorm:"column:completed_at" bson:"completedAt,omitempty"`

	RejectedByID            *string    `gorm:"column:rejected_by_id;type:uuid" bson:"rejectedById,omitempty"`
	RejectedAt              *time.Time `gorm:"column:rejected_at" bson:"rejectedAt,omitempty"`
	RejectedReason          *string    `gorm:"column:rejected_reason;type:text" bson:"rejectedReason,omitempty"`
	DisposalPartnerName     *string    `gorm:"column:disposal_partner_name;type:text" bson:"disposalPartnerName,omitempty"`
	DisposalPartnerContact  *string    `gorm:"column:disposal_partner_contact;type:text" bson:"disposalPartnerContact,omitempty"`
	DisposalPartnerLocation *string    `gorm:"column:disposal_partner_location;type:text" bson:"disposalPartnerLocation,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" bson:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" bson:"updatedAt"`
}

func (Donation) TableName() string { return "donations" }
