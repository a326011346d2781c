package models

import (
	"time"

	"github.com/foodlink/foodlink-backend/pkg/enums"
)

// Profile is the local record of a donor or recipient, keyed by the external identity UID.
type Profile struct {
	ID          string     `gorm:"type:uuid;primaryKey" bson:"_id"`
	UID         string     `gorm:"column:uid;type:text;not null;uniqueIndex" bson:"uid"`
	Name        string     `gorm:"column:name;type:text;not null;default:''" bson:"name"`
	Email       string     `gorm:"column:email;type:text;not null;default:''" bson:"email"`
	Phone       *string    `gorm:"column:phone;type:text" bson:"phone,omitempty"`
	Address     *string    `gorm:"column:address;type:text" bson:"address,omitempty"`
	Landmark    *string    `gorm:"column:landmark;type:text" bson:"landmark,omitempty"`
	Latitude    *float64   `gorm:"column:latitude" bson:"latitude,omitempty"`
	Longitude   *float64   `gorm:"column:longitude" bson:"longitude,omitempty"`
	Avatar      *string    `gorm:"column:avatar;type:text" bson:"avatar,omitempty"`
	Role        enums.Role `gorm:"column:role;type:text;not null" bson:"role"`
	IsCompleted bool       `gorm:"column:is_completed;not null;default:false" bson:"isCompleted"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" bson:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" bson:"updatedAt"`
}

func (Profile) TableName() string { return "profiles" }

// HasContact reports whether the fields required to complete onboarding are present.
func (p Profile) HasContact() bool {
	return p.Phone != nil && *p.Phone != "" && p.Address != nil && *p.Address != ""
}
