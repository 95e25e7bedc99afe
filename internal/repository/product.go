package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fullcourse/fullcourse-api/internal/model"
)

// ProductRepository reads the product catalog. Products are loaded out-of-band.
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `p.id, p.name, p.manufacturer, p.description, p.image_url, p.price_reference,
	p.price_unit_qty, p.amazon_url, p.amazon_price, p.rakuten_url, p.rakuten_price,
	p.yahoo_url, p.yahoo_price, p.barcode, p.asin`

// GetByID retrieves one product.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = ?`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// Search returns one page of products matching q and the total match count.
func (r *ProductRepository) Search(ctx context.Context, q model.ProductQuery) ([]model.Product, int, error) {
	var (
		where []string
		args  []any
	)
	if q.Search != "" {
		like := "%" + escapeLike(q.Search) + "%"
		where = append(where, `(p.name LIKE ? OR p.description LIKE ?)`)
		args = append(args, like, like)
	}
	if q.Manufacturer != "" {
		where = append(where, `p.manufacturer = ?`)
		args = append(args, q.Manufacturer)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products p`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products p` + clause + ` ORDER BY p.name ASC, p.id ASC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, q.Limit, (q.Page-1)*q.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

// scanProduct scans productColumns after any leading destinations.
func scanProduct(row rowScanner, leading ...any) (*model.Product, error) {
	var (
		p                           model.Product
		ref, amazon, rakuten, yahoo sql.NullInt64
	)
	dest := append(leading,
		&p.ID, &p.Name, &p.Manufacturer, &p.Description, &p.ImageURL, &ref,
		&p.PriceUnitQty, &p.AmazonURL, &amazon, &p.RakutenURL, &rakuten,
		&p.YahooURL, &yahoo, &p.Barcode, &p.ASIN,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	p.PriceReference = intPtr(ref)
	p.AmazonPrice = intPtr(amazon)
	p.RakutenPrice = intPtr(rakuten)
	p.YahooPrice = intPtr(yahoo)
	return &p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
