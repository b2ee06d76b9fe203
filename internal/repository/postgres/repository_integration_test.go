//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
	"github.com/mamadbah2/assetdesk/internal/repository"
)

// The target database must carry the assets, departments and users_profile
// tables. Rows written here use the DEV-9999 prefix and are removed afterwards.
func newIntegrationRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Open(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		_, _ = db.Exec(`DELETE FROM assets WHERE asset_code LIKE 'DEV-9999-%'`)
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		_ = db.Close()
	})
	return NewServiceRepository(db, nil)
}

func TestIntegrationInsertUpdateList(t *testing.T) {
	repo := newIntegrationRepository(t)
	ctx := context.Background()

	created, err := repo.InsertAsset(ctx, models.AssetWrite{
		Code:       "DEV-9999-AB12",
		Type:       models.TypeLaptop,
		BrandModel: "ThinkPad X1",
		Status:     models.StatusPendingAssignment,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Nil(t, created.PurchasePrice)

	price := 899.0
	updated, err := repo.UpdateAsset(ctx, created.ID, models.AssetWrite{
		Code:          "DEV-9999-AB12",
		Type:          models.TypeLaptop,
		BrandModel:    "ThinkPad X1 Carbon",
		Status:        models.StatusUnderRepair,
		PurchasePrice: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, "ThinkPad X1 Carbon", updated.BrandModel)
	require.NotNil(t, updated.PurchasePrice)
	assert.Equal(t, price, *updated.PurchasePrice)

	page, err := repo.ListAssets(ctx, models.AssetQuery{
		Page:     1,
		PageSize: 10,
		Search:   "dev-9999",
		Status:   string(models.StatusUnderRepair),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, created.ID, page.Data[0].ID)

	beyond, err := repo.ListAssets(ctx, models.AssetQuery{Page: 5, PageSize: 10, Search: "dev-9999"})
	require.NoError(t, err)
	assert.Empty(t, beyond.Data)
	assert.EqualValues(t, 1, beyond.Total)
}

func TestIntegrationUpdateMissing(t *testing.T) {
	repo := newIntegrationRepository(t)

	_, err := repo.UpdateAsset(context.Background(), "00000000-0000-0000-0000-000000000000", models.AssetWrite{
		Code:       "DEV-9999-0000",
		Type:       models.TypePhone,
		BrandModel: "Pixel",
		Status:     models.StatusInService,
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
}
