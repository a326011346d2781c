package profiles

import (
	"context"
	"errors"

	"github.com/foodlink/foodlink-backend/pkg/db"
	"github.com/foodlink/foodlink-backend/pkg/db/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("profile not found")
	ErrDuplicate = errors.New("profile already exists")
)

// Repository exposes persistence helpers for profiles.
type Repository interface {
	FindByUID(ctx context.Context, uid string) (*models.Profile, error)
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a profiles repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repositoryImpl{db: conn}
}

func (r *repositoryImpl) FindByUID(ctx context.Context, uid string) (*models.Profile, error) {
	return r.findOne(ctx, "uid = ?", uid)
}

func (r *repositoryImpl) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repositoryImpl) findOne(ctx context.Context, query string, arg any) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where(query, arg).First(&profile).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *repositoryImpl) FindByIDs(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var profiles []models.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *repositoryImpl) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *repositoryImpl) Update(ctx context.Context, profile *models.Profile) error {
	result := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", profile.ID).
		UpdateColumns(map[string]any{
			"phone":        profile.Phone,
			"address":      profile.Address,
			"landmark":     profile.Landmark,
			"latitude":     profile.Latitude,
			"longitude":    profile.Longitude,
			"avatar":       profile.Avatar,
			"is_completed": profile.IsCompleted,
			"updated_at":   profile.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
