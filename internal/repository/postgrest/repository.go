package postgrest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
	"github.com/mamadbah2/assetdesk/internal/repository"
	"github.com/mamadbah2/assetdesk/pkg/clients/supabase"
)

const assetSelect = `
	id,
	asset_code,
	asset_type,
	brand_model,
	purchased_at,
	purchase_price,
	market_price,
	assigned_to,
	department_id,
	status,
	is_buyback_allowed,
	buyback_available_at,
	last_repair_at,
	repair_count,
	notes,
	department:departments!assets_department_id_fkey(id, name),
	assignee:users_profile!assets_assigned_to_fkey(user_id, full_name)`

// Repository reads and writes assets through the PostgREST API. Calls run
// as the user whose access token is stored in the context.
type Repository struct {
	client *supabase.Client
	logger *zap.Logger
}

// NewRepository builds a PostgREST backed repository instance.
func NewRepository(client *supabase.Client, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{client: client, logger: logger}
}

// ListAssets returns one page of assets matching q.
func (r *Repository) ListAssets(ctx context.Context, q models.AssetQuery) (models.Paged[models.Asset], error) {
	from, to := q.Range()

	query := r.client.From("assets").
		Select(assetSelect).
		Order(q.OrderColumn(), !q.SortDesc).
		Order("id", true).
		Range(from, to).
		CountExact()

	if q.Search != "" {
		query = query.ILike("asset_code", "%"+repository.EscapeLike(q.Search)+"%")
	}
	if status, ok := q.StatusFilter(); ok {
		query = query.Eq("status", string(status))
	}
	if assetType, ok := q.TypeFilter(); ok {
		query = query.Eq("asset_type", string(assetType))
	}

	var rows []assetRow
	total, err := query.Execute(ctx, &rows)
	if err != nil {
		return models.Paged[models.Asset]{}, fmt.Errorf("list assets: %w", err)
	}
	if total < 0 {
		total = int64(len(rows))
	}

	assets := make([]models.Asset, 0, len(rows))
	for _, row := range rows {
		assets = append(assets, row.toModel())
	}

	r.logger.Debug("assets listed", zap.Int("page", q.Page), zap.Int("rows", len(assets)), zap.Int64("total", total))
	return models.NewPaged(assets, total, q.Page, q.PageSize), nil
}

// InsertAsset stores a new asset and returns its stored representation.
func (r *Repository) InsertAsset(ctx context.Context, write models.AssetWrite) (models.Asset, error) {
	var rows []assetRow
	err := r.client.From("assets").
		Select(assetSelect).
		Insert(ctx, newWriteRow(write), &rows)
	if err != nil {
		return models.Asset{}, fmt.Errorf("insert asset %s: %w", write.Code, err)
	}
	if len(rows) == 0 {
		return models.Asset{}, fmt.Errorf("insert asset %s: empty representation", write.Code)
	}
	return rows[0].toModel(), nil
}

// UpdateAsset overwrites the writable columns of asset id.
func (r *Repository) UpdateAsset(ctx context.Context, id string, write models.AssetWrite) (models.Asset, error) {
	var rows []assetRow
	err := r.client.From("assets").
		Select(assetSelect).
		Eq("id", id).
		Update(ctx, newWriteRow(write), &rows)
	if err != nil {
		return models.Asset{}, fmt.Errorf("update asset %s: %w", id, err)
	}
	if len(rows) == 0 {
		return models.Asset{}, fmt.Errorf("update asset %s: %w", id, repository.ErrNotFound)
	}
	return rows[0].toModel(), nil
}

// ListDepartments returns every department ordered by name.
func (r *Repository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var rows []models.Department
	if _, err := r.client.From("departments").
		Select("id, name").
		Order("name", true).
		Execute(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return rows, nil
}

// ListEmployees returns profiles with the employee role ordered by name.
func (r *Repository) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var rows []profileRow
	if _, err := r.client.From("users_profile").
		Select("user_id, full_name, role").
		Order("full_name", true).
		Execute(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	employees := make([]models.Employee, 0, len(rows))
	for _, row := range rows {
		if row.Role != models.RoleEmployee {
			continue
		}
		employees = append(employees, models.Employee{UserID: row.UserID, FullName: row.FullName})
	}
	return employees, nil
}
