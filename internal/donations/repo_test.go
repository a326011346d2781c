package donations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/foodlink/foodlink-backend/pkg/config"
	"github.com/foodlink/foodlink-backend/pkg/db"
	"github.com/foodlink/foodlink-backend/pkg/db/models"
	"github.com/foodlink/foodlink-backend/pkg/enums"
	"github.com/foodlink/foodlink-backend/pkg/migrate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{
		Driver: config.DBDriverSQLite,
		DSN:    fmt.Sprintf("file:donations_%s?mode=memory&cache=shared", uuid.NewString()),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migrate.Up(ctx, sqlDB, config.DBDriverSQLite))
	return client.DB()
}

func seedProfile(t *testing.T, conn *gorm.DB, uid string, role enums.Role) *models.Profile {
	t.Helper()
	phone, address := "555-1234", "10 Market St"
	profile := &models.Profile{
		ID:          uuid.NewString(),
		UID:         uid,
		Name:        uid,
		Email:       uid + "@example.com",
		Phone:       &phone,
		Address:     &address,
		Role:        role,
		IsCompleted: true,
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
	require.NoError(t, conn.Create(profile).Error)
	return profile
}

func newTestDonation(donorID string, createdAt time.Time) *models.Donation {
	return &models.Donation{
		ID:         uuid.NewString(),
		Name:       "Rice",
		Quantity:   10,
		FoodType:   "cooked",
		Email:      "donor@example.com",
		Phone:      "555-1234",
		Address:    "10 Market St",
		PreparedAt: createdAt,
		PickupDate: createdAt,
		PickupTime: createdAt,
		Status:     enums.DonationStatusPending,
		DonorID:    donorID,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestRepositoryCreateAndFind(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	donor := seedProfile(t, conn, "donor", enums.RoleDonor)

	created, err := repo.Create(ctx, newTestDonation(donor.ID, baseTime))
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rice", found.Name)
	assert.Equal(t, enums.DonationStatusPending, found.Status)
	assert.True(t, found.CreatedAt.Equal(baseTime))
	assert.Nil(t, found.AcceptedByID)

	_, err = repo.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryListOrdersNewestFirstAndPaginates(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	donor := seedProfile(t, conn, "donor", enums.RoleDonor)

	var ids []string
	for i := 0; i < 3; i++ {
		d, err := repo.Create(ctx, newTestDonation(donor.ID, baseTime.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
		ids = append(ids, d.ID)
	}

	all, next, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, all, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{all[0].ID, all[1].ID, all[2].ID})

	page, next, err := repo.List(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.Equal(t, ids[1], next.ID)

	rest, next, err := repo.List(ctx, ListFilter{Limit: 2, Cursor: next})
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, rest, 1)
	assert.Equal(t, ids[0], rest[0].ID)
}

func TestRepositoryListFilters(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	donor := seedProfile(t, conn, "donor", enums.RoleDonor)
	other := seedProfile(t, conn, "other", enums.RoleDonor)
	recipient := seedProfile(t, conn, "recipient", enums.RoleRecipient)

	mine, err := repo.Create(ctx, newTestDonation(donor.ID, baseTime))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newTestDonation(other.ID, baseTime.Add(time.Minute)))
	require.NoError(t, err)

	acceptedAt := baseTime.Add(time.Hour)
	_, err = repo.Transition(ctx, mine.ID, enums.DonationStatusPending, TransitionGuard{}, TransitionUpdate{
		Status:       enums.DonationStatusInProcess,
		AcceptedByID: &recipient.ID,
		AcceptedAt:   &acceptedAt,
		UpdatedAt:    acceptedAt,
	})
	require.NoError(t, err)

	byDonor, _, err := repo.List(ctx, ListFilter{DonorID: donor.ID})
	require.NoError(t, err)
	require.Len(t, byDonor, 1)
	assert.Equal(t, mine.ID, byDonor[0].ID)

	byAcceptor, _, err := repo.List(ctx, ListFilter{AcceptedByID: recipient.ID})
	require.NoError(t, err)
	require.Len(t, byAcceptor, 1)

	pending, _, err := repo.List(ctx, ListFilter{Status: enums.DonationStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotEqual(t, mine.ID, pending[0].ID)
}

func TestRepositoryTransitionIsConditional(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	donor := seedProfile(t, conn, "donor", enums.RoleDonor)
	first := seedProfile(t, conn, "first", enums.RoleRecipient)
	second := seedProfile(t, conn, "second", enums.RoleRecipient)

	d, err := repo.Create(ctx, newTestDonation(donor.ID, baseTime))
	require.NoError(t, err)

	accept := func(p *models.Profile) (*models.Donation, error) {
		at := baseTime.Add(time.Hour)
		return repo.Transition(ctx, d.ID, enums.DonationStatusPending, TransitionGuard{}, TransitionUpdate{
			Status:       enums.DonationStatusInProcess,
			AcceptedByID: &p.ID,
			AcceptedAt:   &at,
			UpdatedAt:    at,
		})
	}

	updated, err := accept(first)
	require.NoError(t, err)
	assert.Equal(t, enums.DonationStatusInProcess, updated.Status)
	require.NotNil(t, updated.AcceptedByID)
	assert.Equal(t, first.ID, *updated.AcceptedByID)

	current, err := accept(second)
	assert.ErrorIs(t, err, ErrStatusMismatch)
	require.NotNil(t, current)
	assert.Equal(t, first.ID, *current.AcceptedByID)

	completedAt := baseTime.Add(2 * time.Hour)
	_, err = repo.Transition(ctx, d.ID, enums.DonationStatusInProcess, TransitionGuard{AcceptedByID: second.ID}, TransitionUpdate{
		Status:      enums.DonationStatusCompleted,
		CompletedAt: &completedAt,
		UpdatedAt:   completedAt,
	})
	assert.ErrorIs(t, err, ErrStatusMismatch)

	_, err = repo.Transition(ctx, uuid.NewString(), enums.DonationStatusPending, TransitionGuard{}, TransitionUpdate{Status: enums.DonationStatusInProcess})
	assert.ErrorIs(t, err, ErrNotFound)
}
