// Package postgres reads and writes assets directly against the project's
// Postgres database. User-facing repositories run every call in a
// transaction that takes on the caller's JWT claims and the authenticated
// role, so row-level security applies as it does through PostgREST.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"go.uber.org/zap"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
	"github.com/mamadbah2/assetdesk/internal/repository"
)

const driverName = "pgx"

const assetColumns = `
	a.id::text,
	a.asset_code,
	a.asset_type,
	a.brand_model,
	a.purchased_at,
	a.purchase_price,
	a.market_price,
	a.assigned_to::text,
	a.department_id::text,
	a.status,
	a.is_buyback_allowed,
	a.buyback_available_at,
	a.last_repair_at,
	COALESCE(a.repair_count, 0),
	a.notes,
	d.name,
	u.full_name`

const assetJoins = `
	FROM assets a
	LEFT JOIN departments d ON d.id = a.department_id
	LEFT JOIN users_profile u ON u.user_id = a.assigned_to`

// Repository implements the asset store on database/sql.
type Repository struct {
	db         *sql.DB
	privileged bool
	logger     *zap.Logger
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewRepository wraps an open database handle for user requests. Every call
// needs a user access token in the context (supabase.ContextWithAccessToken)
// and fails with ErrNoUserToken without one.
func NewRepository(db *sql.DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger}
}

// NewServiceRepository wraps db for background jobs. Calls run as the
// connecting database role and bypass row-level security.
func NewServiceRepository(db *sql.DB, logger *zap.Logger) *Repository {
	repo := NewRepository(db, logger)
	repo.privileged = true
	return repo
}

// run executes fn on the plain handle for service repositories, and inside
// a transaction scoped to the calling user otherwise.
func (r *Repository) run(ctx context.Context, fn func(q querier) error) error {
	if r.privileged {
		return fn(r.db)
	}

	claims, err := claimsFromContext(ctx)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`SELECT set_config('request.jwt.claims', $1, true), set_config('request.jwt.claim.sub', $2, true)`,
		claims.raw, claims.subject,
	); err != nil {
		return fmt.Errorf("set request claims: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "SET LOCAL ROLE "+authenticatedRole); err != nil {
		return fmt.Errorf("set role: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListAssets returns one page of assets matching q.
func (r *Repository) ListAssets(ctx context.Context, q models.AssetQuery) (models.Paged[models.Asset], error) {
	where, args := buildFilters(q)
	from, _ := q.Range()

	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}
	// OrderColumn is drawn from a fixed allow-list, never from raw input.
	listSQL := fmt.Sprintf("SELECT %s %s%s ORDER BY a.%s %s, a.id ASC LIMIT $%d OFFSET $%d",
		assetColumns, assetJoins, where, q.OrderColumn(), direction, len(args)+1, len(args)+2)
	listArgs := append(append([]any{}, args...), q.PageSize, from)

	var (
		total  int64
		assets = make([]models.Asset, 0, q.PageSize)
	)
	err := r.run(ctx, func(db querier) error {
		countSQL := "SELECT COUNT(*) FROM assets a" + where
		if err := db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
			return fmt.Errorf("count assets: %w", err)
		}

		rows, err := db.QueryContext(ctx, listSQL, listArgs...)
		if err != nil {
			return fmt.Errorf("list assets: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			asset, err := scanAsset(rows)
			if err != nil {
				return err
			}
			assets = append(assets, asset)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate assets: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Paged[models.Asset]{}, err
	}

	r.logger.Debug("assets listed", zap.Int("page", q.Page), zap.Int("rows", len(assets)), zap.Int64("total", total))
	return models.NewPaged(assets, total, q.Page, q.PageSize), nil
}

// InsertAsset stores a new asset and returns it with its lookups resolved.
func (r *Repository) InsertAsset(ctx context.Context, w models.AssetWrite) (models.Asset, error) {
	var asset models.Asset
	err := r.run(ctx, func(db querier) error {
		var id string
		err := db.QueryRowContext(ctx, `
			INSERT INTO assets (
				asset_code, asset_type, brand_model, purchased_at, purchase_price, market_price,
				assigned_to, department_id, status, is_buyback_allowed, buyback_available_at, notes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id::text`,
			writeArgs(w)...,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert asset %s: %w", w.Code, err)
		}
		asset, err = getAsset(ctx, db, id)
		return err
	})
	return asset, err
}

// UpdateAsset overwrites the writable columns of asset id. Rows hidden by
// row-level security count as missing.
func (r *Repository) UpdateAsset(ctx context.Context, id string, w models.AssetWrite) (models.Asset, error) {
	var asset models.Asset
	err := r.run(ctx, func(db querier) error {
		args := append(writeArgs(w), id)
		res, err := db.ExecContext(ctx, `
			UPDATE assets SET
				asset_code = $1,
				asset_type = $2,
				brand_model = $3,
				purchased_at = $4,
				purchase_price = $5,
				market_price = $6,
				assigned_to = $7,
				department_id = $8,
				status = $9,
				is_buyback_allowed = $10,
				buyback_available_at = $11,
				notes = $12
			WHERE id = $13`,
			args...,
		)
		if err != nil {
			return fmt.Errorf("update asset %s: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update asset %s: %w", id, err)
		}
		if affected == 0 {
			return fmt.Errorf("update asset %s: %w", id, repository.ErrNotFound)
		}
		asset, err = getAsset(ctx, db, id)
		return err
	})
	return asset, err
}

// ListDepartments returns every department ordered by name.
func (r *Repository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	err := r.run(ctx, func(db querier) error {
		rows, err := db.QueryContext(ctx, `SELECT id::text, name FROM departments ORDER BY name ASC`)
		if err != nil {
			return fmt.Errorf("list departments: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var d models.Department
			if err := rows.Scan(&d.ID, &d.Name); err != nil {
				return fmt.Errorf("scan department: %w", err)
			}
			departments = append(departments, d)
		}
		return rows.Err()
	})
	return departments, err
}

// ListEmployees returns profiles with the employee role ordered by name.
func (r *Repository) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	err := r.run(ctx, func(db querier) error {
		rows, err := db.QueryContext(ctx,
			`SELECT user_id::text, full_name FROM users_profile WHERE role = $1 ORDER BY full_name ASC`,
			models.RoleEmployee,
		)
		if err != nil {
			return fmt.Errorf("list employees: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var e models.Employee
			if err := rows.Scan(&e.UserID, &e.FullName); err != nil {
				return fmt.Errorf("scan employee: %w", err)
			}
			employees = append(employees, e)
		}
		return rows.Err()
	})
	return employees, err
}

func getAsset(ctx context.Context, db querier, id string) (models.Asset, error) {
	row := db.QueryRowContext(ctx, "SELECT "+assetColumns+assetJoins+" WHERE a.id = $1", id)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Asset{}, fmt.Errorf("get asset %s: %w", id, repository.ErrNotFound)
	}
	return asset, err
}

func buildFilters(q models.AssetQuery) (string, []any) {
	var clauses []string
	var args []any

	if q.Search != "" {
		args = append(args, "%"+repository.EscapeLike(q.Search)+"%")
		clauses = append(clauses, fmt.Sprintf("a.asset_code ILIKE $%d", len(args)))
	}
	if status, ok := q.StatusFilter(); ok {
		args = append(args, string(status))
		clauses = append(clauses, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if assetType, ok := q.TypeFilter(); ok {
		args = append(args, string(assetType))
		clauses = append(clauses, fmt.Sprintf("a.asset_type = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func writeArgs(w models.AssetWrite) []any {
	return []any{
		w.Code,
		string(w.Type),
		w.BrandModel,
		nullTime(w.PurchasedAt),
		nullFloat(w.PurchasePrice),
		nullFloat(w.MarketPrice),
		nullString(w.AssignedTo),
		nullString(w.DepartmentID),
		string(w.Status),
		w.BuybackAllowed,
		nullTime(w.BuybackAvailableAt),
		nullString(w.Notes),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(s scanner) (models.Asset, error) {
	var (
		a                                    models.Asset
		assetType, status                    string
		purchasedAt, buybackAt, lastRepairAt sql.NullTime
		purchasePrice, marketPrice           sql.NullFloat64
		assignedTo, departmentID, notes      sql.NullString
		departmentName, assigneeName         sql.NullString
	)
	err := s.Scan(
		&a.ID,
		&a.Code,
		&assetType,
		&a.BrandModel,
		&purchasedAt,
		&purchasePrice,
		&marketPrice,
		&assignedTo,
		&departmentID,
		&status,
		&a.BuybackAllowed,
		&buybackAt,
		&lastRepairAt,
		&a.RepairCount,
		&notes,
		&departmentName,
		&assigneeName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Asset{}, err
		}
		return models.Asset{}, fmt.Errorf("scan asset: %w", err)
	}

	a.Type = models.AssetType(assetType)
	a.Status = models.AssetStatus(status)
	a.PurchasedAt = timePtr(purchasedAt)
	a.BuybackAvailableAt = timePtr(buybackAt)
	a.LastRepairAt = timePtr(lastRepairAt)
	a.PurchasePrice = floatPtr(purchasePrice)
	a.MarketPrice = floatPtr(marketPrice)
	a.AssignedTo = stringPtr(assignedTo)
	a.DepartmentID = stringPtr(departmentID)
	a.Notes = stringPtr(notes)
	a.DepartmentName = stringPtr(departmentName)
	a.AssignedToName = stringPtr(assigneeName)
	return a, nil
}
