package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
	"github.com/mamadbah2/assetdesk/internal/monitoring"
)

// ExportLimit caps the rows of one spreadsheet export.
const ExportLimit = 5000

const exportBatchSize = 500

const msgSaveFailed = "保存失败"

// ErrDuplicateSubmission is returned when a form is submitted twice.
var ErrDuplicateSubmission = errors.New("form already submitted")

// AssetStore reads and writes asset rows.
type AssetStore interface {
	ListAssets(ctx context.Context, q models.AssetQuery) (models.Paged[models.Asset], error)
	InsertAsset(ctx context.Context, write models.AssetWrite) (models.Asset, error)
	UpdateAsset(ctx context.Context, id string, write models.AssetWrite) (models.Asset, error)
}

// LookupStore reads the metadata offered by the asset form.
type LookupStore interface {
	ListDepartments(ctx context.Context) ([]models.Department, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
}

// Store is implemented by the postgrest and postgres repositories.
type Store interface {
	AssetStore
	LookupStore
}

// Journal records successful mutations.
type Journal interface {
	RecordChange(ctx context.Context, change models.AssetChange) error
}

// ListPage is everything the asset list page renders.
type ListPage struct {
	Query   ListQuery                 `json:"-"`
	Assets  models.Paged[models.Asset] `json:"assets"`
	Lookups models.Lookups             `json:"lookups"`
}

// Service implements listing and mutating assets.
type Service struct {
	store   Store
	journal Journal
	cache   *listCache
	guard   *submitGuard
	now     func() time.Time
	logger  *zap.Logger
}

// NewService wires a new asset service. A nil journal disables journaling
// and a non-positive listTTL disables the list cache.
func NewService(store Store, journal Journal, listTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		journal: journal,
		cache:   newListCache(listTTL),
		guard:   newSubmitGuard(submitGuardTTL),
		now:     time.Now,
		logger:  logger,
	}
}

// NewSubmissionID returns the token embedded in a freshly rendered form.
func NewSubmissionID() string {
	return uuid.NewString()
}

// List loads one page of assets together with the form lookups. The three
// reads run concurrently and the first failure cancels the others.
func (s *Service) List(ctx context.Context, session models.Session, q ListQuery) (ListPage, error) {
	key := listCacheKey(session.User.ID, q)
	if page, ok := s.cache.get(key); ok {
		return page, nil
	}

	page := ListPage{Query: q}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		assets, err := s.store.ListAssets(gctx, q.AssetQuery)
		if err != nil {
			return fmt.Errorf("load assets: %w", err)
		}
		page.Assets = assets
		return nil
	})
	g.Go(func() error {
		departments, err := s.store.ListDepartments(gctx)
		if err != nil {
			return fmt.Errorf("load departments: %w", err)
		}
		page.Lookups.Departments = departments
		return nil
	})
	g.Go(func() error {
		employees, err := s.store.ListEmployees(gctx)
		if err != nil {
			return fmt.Errorf("load employees: %w", err)
		}
		page.Lookups.Employees = employees
		return nil
	})
	if err := g.Wait(); err != nil {
		return ListPage{}, err
	}

	if page.Lookups.Departments == nil {
		page.Lookups.Departments = []models.Department{}
	}
	if page.Lookups.Employees == nil {
		page.Lookups.Employees = []models.Employee{}
	}
	s.cache.add(key, page)
	return page, nil
}

// Lookups loads the form metadata on its own, for API clients that build
// their own form.
func (s *Service) Lookups(ctx context.Context) (models.Lookups, error) {
	var lookups models.Lookups
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		departments, err := s.store.ListDepartments(gctx)
		lookups.Departments = departments
		return err
	})
	g.Go(func() error {
		employees, err := s.store.ListEmployees(gctx)
		lookups.Employees = employees
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Lookups{}, fmt.Errorf("load lookups: %w", err)
	}
	if lookups.Departments == nil {
		lookups.Departments = []models.Department{}
	}
	if lookups.Employees == nil {
		lookups.Employees = []models.Employee{}
	}
	return lookups, nil
}

// Upsert validates form and writes it. Validation failures are returned as
// FieldErrors with no store call. A store failure is returned both as the
// error and as a message on the asset code field.
func (s *Service) Upsert(ctx context.Context, session models.Session, form AssetForm) (models.Asset, FieldErrors, error) {
	result := form.Validate()
	if !result.Valid() {
		return models.Asset{}, result.Errors, nil
	}

	if form.SubmissionID != "" {
		if !s.guard.claim(form.SubmissionID) {
			return models.Asset{}, nil, ErrDuplicateSubmission
		}
	}

	action := models.ChangeInsert
	var (
		asset models.Asset
		err   error
	)
	if result.ID != "" {
		action = models.ChangeUpdate
		asset, err = s.store.UpdateAsset(ctx, result.ID, result.Write)
	} else {
		asset, err = s.store.InsertAsset(ctx, result.Write)
	}
	if err != nil {
		if form.SubmissionID != "" {
			s.guard.release(form.SubmissionID)
		}
		monitoring.AssetMutationAmount.WithLabelValues(action, "error").Inc()
		s.logger.Error("asset write failed",
			zap.String("action", action),
			zap.String("asset_code", result.Write.Code),
			zap.Error(err))
		return models.Asset{}, FieldErrors{FieldCode: fmt.Sprintf("%s: %v", msgSaveFailed, err)}, fmt.Errorf("%s asset: %w", action, err)
	}

	s.cache.purge()
	monitoring.AssetMutationAmount.WithLabelValues(action, "ok").Inc()
	s.logger.Info("asset saved",
		zap.String("action", action),
		zap.String("asset_id", asset.ID),
		zap.String("actor_id", session.User.ID))

	s.record(ctx, session, action, asset, result.Write)
	return asset, nil, nil
}

func (s *Service) record(ctx context.Context, session models.Session, action string, asset models.Asset, write models.AssetWrite) {
	if s.journal == nil {
		return
	}
	change := models.AssetChange{
		AssetID:   asset.ID,
		AssetCode: write.Code,
		Action:    action,
		ActorID:   session.User.ID,
		Actor:     session.User.Email,
		Payload:   write,
		CreatedAt: s.now().UTC(),
	}
	if err := s.journal.RecordChange(ctx, change); err != nil {
		s.logger.Warn("failed to journal asset change", zap.String("asset_id", asset.ID), zap.Error(err))
	}
}

// Export returns every asset matching q, ignoring its page, up to ExportLimit.
func (s *Service) Export(ctx context.Context, q ListQuery) ([]models.Asset, int64, error) {
	return CollectAssets(ctx, s.store, q.AssetQuery, ExportLimit)
}

// CollectAssets pages through store until limit rows or the end of the
// result set. The returned total counts all matches, including those past
// the limit.
func CollectAssets(ctx context.Context, store AssetStore, q models.AssetQuery, limit int) ([]models.Asset, int64, error) {
	q.PageSize = exportBatchSize
	var (
		collected []models.Asset
		total     int64
	)
	for page := 1; len(collected) < limit; page++ {
		q.Page = page
		batch, err := store.ListAssets(ctx, q)
		if err != nil {
			return nil, 0, fmt.Errorf("collect assets page %d: %w", page, err)
		}
		total = batch.Total
		collected = append(collected, batch.Data...)
		if len(batch.Data) < exportBatchSize || int64(len(collected)) >= total {
			break
		}
	}
	if len(collected) > limit {
		collected = collected[:limit]
	}
	return collected, total, nil
}
