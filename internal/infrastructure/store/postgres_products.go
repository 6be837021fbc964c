package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/storefront/internal/domain/product"
	"github.com/lib/pq"
)

const productColumns = `id, name, description, category, price_minor, stock, image_url, created_at, updated_at`

var productSorts = map[product.Sort]string{
	product.SortNewest:    "created_at DESC, id",
	product.SortPriceAsc:  "price_minor ASC, id",
	product.SortPriceDesc: "price_minor DESC, id",
	product.SortName:      "name ASC, id",
}

func scanProduct(row scanner) (*product.Product, error) {
	var p product.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock,
		&p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) getProduct(ctx context.Context, query, id string) (*product.Product, error) {
	p, err := scanProduct(s.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, product.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	return s.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (s *PostgresStore) GetProductForUpdate(ctx context.Context, id string) (*product.Product, error) {
	return s.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (s *PostgresStore) GetProducts(ctx context.Context, ids []string) (map[string]product.Product, error) {
	out := make(map[string]product.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = *p
	}
	return out, rows.Err()
}

// likeEscaper makes user input match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *PostgresStore) SearchProducts(ctx context.Context, params product.SearchParams) ([]product.Product, int, error) {
	params = params.Normalize()

	var (
		where []string
		args  []any
	)
	if params.Query != "" {
		args = append(args, "%"+likeEscaper.Replace(params.Query)+"%")
		where = append(where, fmt.Sprintf(`(name ILIKE $%d ESCAPE '\' OR description ILIKE $%d ESCAPE '\')`, len(args), len(args)))
	}
	if params.Category != "" {
		args = append(args, params.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		productColumns, clause, productSorts[params.Sort], len(args)-1, len(args))
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	products := []product.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

func (s *PostgresStore) InsertProduct(ctx context.Context, p *product.Product) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO products (id, name, description, category, price_minor, stock, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.Name, p.Description, p.Category, int64(p.Price), p.Stock, p.ImageURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *PostgresStore) AdjustStock(ctx context.Context, productID string, delta int) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`, productID, delta)
	if err != nil {
		if isPQError(err, "check_violation") {
			return fmt.Errorf("%w: product %s", product.ErrInsufficientStock, productID)
		}
		return fmt.Errorf("adjust stock of %s: %w", productID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return product.ErrProductNotFound
	}
	return nil
}
