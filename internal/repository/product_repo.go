package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/models"
)

type ProductSQLite struct {
	db *sql.DB
}

func NewProductSQLite(db *sql.DB) *ProductSQLite { return &ProductSQLite{db: db} }

var _ ProductRepo = (*ProductSQLite)(nil)

const productColumns = `id, name, description, price, image_url, available, owner_id, created_at`

const (
	insertProductSQL = `INSERT INTO products (name, description, price, image_url, available, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	selectProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	listProductsSQL  = `SELECT ` + productColumns + ` FROM products WHERE available = ? ORDER BY id ASC`
	listOwnedBySQL   = `SELECT ` + productColumns + ` FROM products WHERE available = ? AND owner_id = ? ORDER BY id ASC`
	setAvailableSQL  = `UPDATE products SET available = ?, owner_id = ? WHERE id = ?`
	countProductsSQL = `SELECT COALESCE(SUM(CASE WHEN available THEN 1 ELSE 0 END), 0), COUNT(*) FROM products`
)

// Create inserts a product and returns its ID.
func (r *ProductSQLite) Create(ctx context.Context, p models.Product) (int, error) {
	res, err := getExecutor(ctx, r.db).ExecContext(ctx, insertProductSQL,
		p.Name, p.Description, p.Price, p.ImageURL, p.Available, formatTime(nowUTC()))
	if err != nil {
		return 0, fmt.Errorf("insert product %q: %w", p.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for product %q: %w", p.Name, err)
	}
	return int(id), nil
}

// GetByID returns (nil, nil) if the product does not exist.
func (r *ProductSQLite) GetByID(ctx context.Context, id int) (*models.Product, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, selectProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("select product %d: %w", id, err)
	}
	list, err := scanProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("scan product %d: %w", id, err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (r *ProductSQLite) ListByAvailability(ctx context.Context, available bool, ownerID *int) ([]models.Product, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if ownerID != nil {
		rows, err = getExecutor(ctx, r.db).QueryContext(ctx, listOwnedBySQL, available, *ownerID)
	} else {
		rows, err = getExecutor(ctx, r.db).QueryContext(ctx, listProductsSQL, available)
	}
	if err != nil {
		return nil, fmt.Errorf("list products (available=%t): %w", available, err)
	}
	list, err := scanProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	return list, nil
}

// SetAvailability flips the flag and records (or clears) the owner.
// A missing product yields sql.ErrNoRows.
func (r *ProductSQLite) SetAvailability(ctx context.Context, id int, available bool, ownerID *int) error {
	var owner any
	if ownerID != nil {
		owner = *ownerID
	}
	res, err := getExecutor(ctx, r.db).ExecContext(ctx, setAvailableSQL, available, owner, id)
	if err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for product %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update product %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

func (r *ProductSQLite) Counts(ctx context.Context) (available, owned int, err error) {
	var total int
	if err := getExecutor(ctx, r.db).QueryRowContext(ctx, countProductsSQL).Scan(&available, &total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("count products: %w", err)
	}
	return available, total - available, nil
}

func scanProducts(rows *sql.Rows) ([]models.Product, error) {
	defer rows.Close()

	out := make([]models.Product, 0, 16)
	for rows.Next() {
		var (
			p     models.Product
			owner sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Available, &owner, &p.CreatedAt); err != nil {
			return nil, err
		}
		if owner.Valid {
			id := int(owner.Int64)
			p.OwnerID = &id
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
