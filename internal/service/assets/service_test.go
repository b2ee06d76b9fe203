package assets

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
)

// fakeStore filters an in-memory table the way both repositories do.
type fakeStore struct {
	mu        sync.Mutex
	assets    []models.Asset
	listCalls int
	writes    int
	listErr   error
	writeErr  error
	deptErr   error
}

func (f *fakeStore) ListAssets(_ context.Context, q models.AssetQuery) (models.Paged[models.Asset], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return models.Paged[models.Asset]{}, f.listErr
	}

	var matched []models.Asset
	for _, a := range f.assets {
		if status, ok := q.StatusFilter(); ok && a.Status != status {
			continue
		}
		if assetType, ok := q.TypeFilter(); ok && a.Type != assetType {
			continue
		}
		matched = append(matched, a)
	}
	from, to := q.Range()
	var page []models.Asset
	if from < len(matched) {
		page = matched[from:min(to+1, len(matched))]
	}
	return models.NewPaged(page, int64(len(matched)), q.Page, q.PageSize), nil
}

func (f *fakeStore) InsertAsset(_ context.Context, w models.AssetWrite) (models.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.writeErr != nil {
		return models.Asset{}, f.writeErr
	}
	asset := assetFromWrite("a-"+w.Code, w)
	f.assets = append(f.assets, asset)
	return asset, nil
}

func (f *fakeStore) UpdateAsset(_ context.Context, id string, w models.AssetWrite) (models.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.writeErr != nil {
		return models.Asset{}, f.writeErr
	}
	for i := range f.assets {
		if f.assets[i].ID == id {
			f.assets[i] = assetFromWrite(id, w)
			return f.assets[i], nil
		}
	}
	return models.Asset{}, errors.New("asset not found")
}

func (f *fakeStore) ListDepartments(context.Context) ([]models.Department, error) {
	if f.deptErr != nil {
		return nil, f.deptErr
	}
	return []models.Department{{ID: "d1", Name: "研发部"}}, nil
}

func (f *fakeStore) ListEmployees(context.Context) ([]models.Employee, error) {
	return []models.Employee{{UserID: "u1", FullName: "张三"}}, nil
}

func assetFromWrite(id string, w models.AssetWrite) models.Asset {
	return models.Asset{
		ID:                 id,
		Code:               w.Code,
		Type:               w.Type,
		BrandModel:         w.BrandModel,
		PurchasedAt:        w.PurchasedAt,
		PurchasePrice:      w.PurchasePrice,
		MarketPrice:        w.MarketPrice,
		AssignedTo:         w.AssignedTo,
		DepartmentID:       w.DepartmentID,
		Status:             w.Status,
		BuybackAllowed:     w.BuybackAllowed,
		BuybackAvailableAt: w.BuybackAvailableAt,
		Notes:              w.Notes,
	}
}

type fakeJournal struct {
	changes []models.AssetChange
	err     error
}

func (j *fakeJournal) RecordChange(_ context.Context, change models.AssetChange) error {
	j.changes = append(j.changes, change)
	return j.err
}

var testSession = models.Session{AccessToken: "at", User: models.User{ID: "user-1", Email: "it@company.com"}}

func TestUpsertInsertThenList(t *testing.T) {
	store := &fakeStore{}
	journal := &fakeJournal{}
	svc := NewService(store, journal, time.Minute, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }

	asset, fieldErrs, err := svc.Upsert(context.Background(), testSession, AssetForm{
		Code:       "DEV-2024-AB12",
		Type:       "laptop",
		BrandModel: "ThinkPad T14",
		Status:     "pending_assignment",
	})
	require.NoError(t, err)
	require.Nil(t, fieldErrs)
	assert.Nil(t, asset.PurchasePrice)

	page, err := svc.List(context.Background(), testSession, ParseListQuery(url.Values{}))
	require.NoError(t, err)
	require.Len(t, page.Assets.Data, 1)
	assert.Equal(t, "DEV-2024-AB12", page.Assets.Data[0].Code)
	assert.Nil(t, page.Assets.Data[0].PurchasePrice)

	require.Len(t, journal.changes, 1)
	change := journal.changes[0]
	assert.Equal(t, models.ChangeInsert, change.Action)
	assert.Equal(t, "user-1", change.ActorID)
	assert.Equal(t, "it@company.com", change.Actor)
	assert.Equal(t, svc.now(), change.CreatedAt)
}

func TestUpsertRejectsInvalidFormWithoutStoreCall(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, 0, nil)

	_, fieldErrs, err := svc.Upsert(context.Background(), testSession, AssetForm{
		Code:       "LAPTOP-1",
		Type:       "laptop",
		BrandModel: "X",
		Status:     "in_service",
	})
	require.NoError(t, err)
	assert.Equal(t, "建议使用 DEV-YYYY-XXXX 结构", fieldErrs[FieldCode])
	assert.Zero(t, store.writes)
}

func TestUpsertUpdatesWhenIDPresent(t *testing.T) {
	id := "4f1c2a4e-8a4c-4d7e-9a55-2f7b3f1f0a01"
	store := &fakeStore{assets: []models.Asset{{ID: id, Code: "DEV-2024-0001", Type: models.TypePhone, Status: models.StatusInService}}}
	journal := &fakeJournal{}
	svc := NewService(store, journal, 0, nil)

	form := FormFromAsset(store.assets[0])
	form.BrandModel = "Pixel 8"
	form.Status = "under_repair"

	asset, fieldErrs, err := svc.Upsert(context.Background(), testSession, form)
	require.NoError(t, err)
	require.Nil(t, fieldErrs)
	assert.Equal(t, id, asset.ID)
	assert.Equal(t, models.StatusUnderRepair, store.assets[0].Status)
	assert.Len(t, store.assets, 1)
	require.Len(t, journal.changes, 1)
	assert.Equal(t, models.ChangeUpdate, journal.changes[0].Action)
}

func TestUpsertStoreFailure(t *testing.T) {
	store := &fakeStore{writeErr: errors.New(`duplicate key value violates unique constraint "assets_asset_code_key"`)}
	journal := &fakeJournal{}
	svc := NewService(store, journal, 0, nil)

	form := validForm()
	form.SubmissionID = NewSubmissionID()

	_, fieldErrs, err := svc.Upsert(context.Background(), testSession, form)
	require.Error(t, err)
	assert.Contains(t, fieldErrs[FieldCode], "保存失败")
	assert.Contains(t, fieldErrs[FieldCode], "duplicate key")
	assert.Empty(t, journal.changes)

	store.writeErr = nil
	_, _, err = svc.Upsert(context.Background(), testSession, form)
	require.NoError(t, err, "a failed write does not consume the submission")
}

func TestUpsertDuplicateSubmission(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, 0, nil)

	form := validForm()
	form.SubmissionID = NewSubmissionID()

	_, _, err := svc.Upsert(context.Background(), testSession, form)
	require.NoError(t, err)

	_, _, err = svc.Upsert(context.Background(), testSession, form)
	require.ErrorIs(t, err, ErrDuplicateSubmission)
	assert.Equal(t, 1, store.writes)
}

func TestUpsertJournalFailureIsNotFatal(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeJournal{err: errors.New("mongo down")}, 0, nil)

	_, fieldErrs, err := svc.Upsert(context.Background(), testSession, validForm())
	require.NoError(t, err)
	assert.Nil(t, fieldErrs)
}

func TestListPageBeyondEnd(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 5; i++ {
		store.assets = append(store.assets, models.Asset{ID: string(rune('a' + i)), Status: models.StatusUnderRepair, Type: models.TypeLaptop})
	}
	store.assets = append(store.assets, models.Asset{ID: "z", Status: models.StatusInService, Type: models.TypeLaptop})
	svc := NewService(store, nil, 0, nil)

	page, err := svc.List(context.Background(), testSession, ParseListQuery(url.Values{"status": {"under_repair"}, "page": {"2"}}))
	require.NoError(t, err)
	assert.Empty(t, page.Assets.Data)
	assert.EqualValues(t, 5, page.Assets.Total)
	assert.Equal(t, 2, page.Assets.Page)
}

func TestListUsesCacheUntilMutation(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, time.Minute, nil)
	q := ParseListQuery(url.Values{})

	_, err := svc.List(context.Background(), testSession, q)
	require.NoError(t, err)
	_, err = svc.List(context.Background(), testSession, q)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls)

	other := testSession
	other.User.ID = "user-2"
	_, err = svc.List(context.Background(), other, q)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls, "cache entries are per user")

	_, _, err = svc.Upsert(context.Background(), testSession, validForm())
	require.NoError(t, err)

	page, err := svc.List(context.Background(), testSession, q)
	require.NoError(t, err)
	assert.Equal(t, 3, store.listCalls)
	assert.Len(t, page.Assets.Data, 1)
}

func TestListWithoutCacheSeesOutsideChanges(t *testing.T) {
	store := &fakeStore{assets: []models.Asset{{ID: "a1", Code: "DEV-2024-0001", Status: models.StatusInService}}}
	svc := NewService(store, nil, 0, nil)
	q := ParseListQuery(url.Values{})

	page, err := svc.List(context.Background(), testSession, q)
	require.NoError(t, err)
	require.Len(t, page.Assets.Data, 1)
	assert.Equal(t, models.StatusInService, page.Assets.Data[0].Status)

	// A repair recorded by another system.
	store.mu.Lock()
	store.assets[0].Status = models.StatusUnderRepair
	store.assets[0].RepairCount = 1
	store.mu.Unlock()

	page, err = svc.List(context.Background(), testSession, q)
	require.NoError(t, err)
	require.Len(t, page.Assets.Data, 1)
	assert.Equal(t, models.StatusUnderRepair, page.Assets.Data[0].Status)
	assert.Equal(t, 1, page.Assets.Data[0].RepairCount)
	assert.Equal(t, 2, store.listCalls)
}

func TestListFailsWhenAnyReadFails(t *testing.T) {
	svc := NewService(&fakeStore{deptErr: errors.New("permission denied")}, nil, time.Minute, nil)

	_, err := svc.List(context.Background(), testSession, ParseListQuery(url.Values{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load departments")
}

func TestLookups(t *testing.T) {
	lookups, err := NewService(&fakeStore{}, nil, 0, nil).Lookups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Department{{ID: "d1", Name: "研发部"}}, lookups.Departments)
	assert.Equal(t, []models.Employee{{UserID: "u1", FullName: "张三"}}, lookups.Employees)

	_, err = NewService(&fakeStore{deptErr: errors.New("permission denied")}, nil, 0, nil).Lookups(context.Background())
	require.Error(t, err)
}

func TestCollectAssetsRespectsLimit(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 1203; i++ {
		store.assets = append(store.assets, models.Asset{ID: "x", Status: models.StatusInService})
	}

	rows, total, err := CollectAssets(context.Background(), store, models.AssetQuery{Page: 7}, 1000)
	require.NoError(t, err)
	assert.Len(t, rows, 1000)
	assert.EqualValues(t, 1203, total)

	rows, _, err = CollectAssets(context.Background(), store, models.AssetQuery{}, ExportLimit)
	require.NoError(t, err)
	assert.Len(t, rows, 1203)
}
