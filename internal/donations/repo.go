package donations

import (
	"context"
	"errors"
	"time"

	"github.com/foodlink/foodlink-backend/pkg/db"
	"github.com/foodlink/foodlink-backend/pkg/db/models"
	"github.com/foodlink/foodlink-backend/pkg/enums"
	"github.com/foodlink/foodlink-backend/pkg/pagination"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("donation not found")
	// ErrStatusMismatch means the conditional transition matched no row because
	// the status (or acceptor) changed underneath the caller.
	ErrStatusMismatch = errors.New("donation status changed")
)

// ListFilter narrows List results. Zero values mean "any".
type ListFilter struct {
	Status       enums.DonationStatus
	DonorID      string
	AcceptedByID string
	Cursor       *pagination.Cursor
	Limit        int
}

// TransitionGuard adds ownership conditions to a status transition.
type TransitionGuard struct {
	AcceptedByID string
}

// TransitionUpdate lists the columns written by a transition. Nil fields are left untouched.
type TransitionUpdate struct {
	Status                  enums.DonationStatus
	AcceptedByID            *string
	AcceptedAt              *time.Time
	CompletedAt             *time.Time
	RejectedByID            *string
	RejectedAt              *time.Time
	RejectedReason          *string
	DisposalPartnerName     *string
	DisposalPartnerContact  *string
	DisposalPartnerLocation *string
	UpdatedAt               time.Time
}

type fieldValue struct {
	column string
	bson   string
	value  any
}

func (u TransitionUpdate) fields() []fieldValue {
	out := []fieldValue{
		{"status", "status", u.Status},
		{"updated_at", "updatedAt", u.UpdatedAt},
	}
	add := func(column, bsonKey string, set bool, value any) {
		if set {
			out = append(out, fieldValue{column, bsonKey, value})
		}
	}
	add("accepted_by_id", "acceptedById", u.AcceptedByID != nil, derefString(u.AcceptedByID))
	add("accepted_at", "acceptedAt", u.AcceptedAt != nil, derefTime(u.AcceptedAt))
	add("completed_at", "completedAt", u.CompletedAt != nil, derefTime(u.CompletedAt))
	add("rejected_by_id", "rejectedById", u.RejectedByID != nil, derefString(u.RejectedByID))
	add("rejected_at", "rejectedAt", u.RejectedAt != nil, derefTime(u.RejectedAt))
	add("rejected_reason", "rejectedReason", u.RejectedReason != nil, derefString(u.RejectedReason))
	add("disposal_partner_name", "disposalPartnerName", u.DisposalPartnerName != nil, derefString(u.DisposalPartnerName))
	add("disposal_partner_contact", "disposalPartnerContact", u.DisposalPartnerContact != nil, derefString(u.DisposalPartnerContact))
	add("disposal_partner_location", "disposalPartnerLocation", u.DisposalPartnerLocation != nil, derefString(u.DisposalPartnerLocation))
	return out
}

// Repository persists donations. Donations are never deleted.
type Repository interface {
	Create(ctx context.Context, donation *models.Donation) (*models.Donation, error)
	FindByID(ctx context.Context, id string) (*models.Donation, error)
	List(ctx context.Context, filter ListFilter) ([]models.Donation, *pagination.Cursor, error)
	// Transition applies update only if the donation is still in status from and
	// matches guard. On ErrStatusMismatch the current donation is returned too.
	Transition(ctx context.Context, id string, from enums.DonationStatus, guard TransitionGuard, update TransitionUpdate) (*models.Donation, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a donations repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repositoryImpl{db: conn}
}

func (r *repositoryImpl) Create(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
	if err := r.db.WithContext(ctx).Create(donation).Error; err != nil {
		return nil, err
	}
	return donation, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id string) (*models.Donation, error) {
	var donation models.Donation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&donation).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &donation, nil
}

func (r *repositoryImpl) List(ctx context.Context, filter ListFilter) ([]models.Donation, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Donation{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DonorID != "" {
		query = query.Where("donor_id = ?", filter.DonorID)
	}
	if filter.AcceptedByID != "" {
		query = query.Where("accepted_by_id = ?", filter.AcceptedByID)
	}
	if c := filter.Cursor; c != nil {
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", c.CreatedAt, c.CreatedAt, c.ID)
	}
	query = query.Order("created_at DESC").Order("id DESC")

	limit := pagination.NormalizeLimit(filter.Limit)
	if limit > 0 {
		query = query.Limit(pagination.LimitWithBuffer(limit))
	}

	var rows []models.Donation
	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	rows, next := trimPage(rows, limit)
	return rows, next, nil
}

func (r *repositoryImpl) Transition(ctx context.Context, id string, from enums.DonationStatus, guard TransitionGuard, update TransitionUpdate) (*models.Donation, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ? AND status = ?", id, from)
	if guard.AcceptedByID != "" {
		query = query.Where("accepted_by_id = ?", guard.AcceptedByID)
	}

	columns := map[string]any{}
	for _, f := range update.fields() {
		columns[f.column] = f.value
	}
	result := query.UpdateColumns(columns)
	if result.Error != nil {
		return nil, result.Error
	}

	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return current, ErrStatusMismatch
	}
	return current, nil
}

// trimPage drops the look-ahead row and derives the next cursor from the last kept row.
func trimPage(rows []models.Donation, limit int) ([]models.Donation, *pagination.Cursor) {
	if limit <= 0 || len(rows) <= limit {
		return rows, nil
	}
	rows = rows[:limit]
	last := rows[len(rows)-1]
	return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefTime(v *time.Time) time.Time {
	if v == nil {
		return time.Time{}
	}
	return *v
}
