package reporting

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
	"github.com/mamadbah2/assetdesk/internal/export"
)

type fakeStore struct {
	assets  []models.Asset
	queries []models.AssetQuery
	err     error
}

func (f *fakeStore) ListAssets(_ context.Context, q models.AssetQuery) (models.Paged[models.Asset], error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return models.Paged[models.Asset]{}, f.err
	}
	from, to := q.Range()
	var page []models.Asset
	if from < len(f.assets) {
		page = f.assets[from:min(to+1, len(f.assets))]
	}
	return models.NewPaged(page, int64(len(f.assets)), q.Page, q.PageSize), nil
}

func (f *fakeStore) InsertAsset(context.Context, models.AssetWrite) (models.Asset, error) {
	return models.Asset{}, errors.New("read only")
}

func (f *fakeStore) UpdateAsset(context.Context, string, models.AssetWrite) (models.Asset, error) {
	return models.Asset{}, errors.New("read only")
}

type fakeSheet struct {
	replaced   map[string][][]interface{}
	appended   map[string][][]interface{}
	replaceErr error
	appendErr  error
}

func newFakeSheet() *fakeSheet {
	return &fakeSheet{replaced: map[string][][]interface{}{}, appended: map[string][][]interface{}{}}
}

func (f *fakeSheet) ReplaceRange(_ context.Context, sheetRange string, rows [][]interface{}) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced[sheetRange] = rows
	return nil
}

func (f *fakeSheet) WriteRow(_ context.Context, sheetRange string, values []interface{}) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended[sheetRange] = append(f.appended[sheetRange], values)
	return nil
}

func makeAssets(n int) []models.Asset {
	out := make([]models.Asset, n)
	for i := range out {
		out[i] = models.Asset{
			ID:         fmt.Sprintf("a%d", i),
			Code:       fmt.Sprintf("DEV-2024-%04d", i),
			Type:       models.TypeLaptop,
			BrandModel: "ThinkPad X1",
			Status:     models.StatusInService,
		}
	}
	return out
}

func TestSyncInventoryWritesSnapshotAndLog(t *testing.T) {
	store := &fakeStore{assets: makeAssets(3)}
	sheet := newFakeSheet()
	svc := NewService(store, sheet, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC) }

	result, err := svc.SyncInventory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)
	assert.EqualValues(t, 3, result.Total)
	assert.False(t, result.Truncated)

	rows := sheet.replaced[inventoryRange]
	require.Len(t, rows, 4)
	assert.Equal(t, export.Header[0], rows[0][0])
	assert.Equal(t, "DEV-2024-0000", rows[1][0])

	require.Len(t, sheet.appended[syncLogRange], 1)
	assert.Equal(t, []interface{}{"2024-06-01 02:00:00", 3, int64(3), false}, sheet.appended[syncLogRange][0])

	require.NotEmpty(t, store.queries)
	assert.Equal(t, models.SortByCode, store.queries[0].SortField)
	assert.False(t, store.queries[0].SortDesc)
}

func TestSyncInventoryPagesThroughStore(t *testing.T) {
	store := &fakeStore{assets: makeAssets(1200)}
	sheet := newFakeSheet()

	result, err := NewService(store, sheet, nil).SyncInventory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1200, result.Rows)
	assert.Len(t, store.queries, 3)
	assert.Len(t, sheet.replaced[inventoryRange], 1201)
}

func TestSyncInventoryStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	sheet := newFakeSheet()

	_, err := NewService(store, sheet, nil).SyncInventory(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, sheet.replaced)
	assert.Empty(t, sheet.appended)
}

func TestSyncInventorySheetFailure(t *testing.T) {
	sheet := newFakeSheet()
	sheet.replaceErr = errors.New("quota exceeded")

	_, err := NewService(&fakeStore{assets: makeAssets(1)}, sheet, nil).SyncInventory(context.Background())
	require.Error(t, err)
	assert.Empty(t, sheet.appended)
}

func TestSyncInventoryLogFailureIsNotFatal(t *testing.T) {
	sheet := newFakeSheet()
	sheet.appendErr = errors.New("quota exceeded")

	result, err := NewService(&fakeStore{assets: makeAssets(2)}, sheet, nil).SyncInventory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.Len(t, sheet.replaced[inventoryRange], 3)
}
