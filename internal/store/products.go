package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zeltlager/lagerkasse/internal/model"
)

// CreateProduct creates a new product.
func CreateProduct(ctx context.Context, db *sql.DB, name string, price decimal.Decimal, stock int, icon, barcode string) (*model.Product, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO products (name, price, stock, icon, barcode) VALUES (?, ?, ?, ?, ?)`,
		name, price, stock, icon, barcode,
	)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting product id: %w", err)
	}

	return GetProduct(ctx, db, id)
}

// GetProduct returns a product by ID.
func GetProduct(ctx context.Context, db *sql.DB, id int64) (*model.Product, error) {
	p := &model.Product{}
	var icon, barcode, imageMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, price, stock, icon, barcode, image_mime, created_at, updated_at, deleted_at
		 FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &icon, &barcode, &imageMime, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	p.Icon = icon.String
	p.Barcode = barcode.String
	p.ImageMime = imageMime.String
	return p, nil
}

// GetProductByBarcode returns a non-deleted product by barcode.
func GetProductByBarcode(ctx context.Context, db *sql.DB, barcode string) (*model.Product, error) {
	p := &model.Product{}
	var icon, bc, imageMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, price, stock, icon, barcode, image_mime, created_at, updated_at, deleted_at
		 FROM products WHERE barcode = ? AND deleted_at IS NULL`, barcode,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &icon, &bc, &imageMime, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product by barcode: %w", err)
	}
	p.Icon = icon.String
	p.Barcode = bc.String
	p.ImageMime = imageMime.String
	return p, nil
}

// ListProducts returns all non-deleted products ordered by name.
func ListProducts(ctx context.Context, db *sql.DB) ([]model.Product, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, price, stock, icon, barcode, image_mime, created_at, updated_at, deleted_at
		 FROM products WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		var icon, barcode, imageMime sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &icon, &barcode, &imageMime, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		p.Icon = icon.String
		p.Barcode = barcode.String
		p.ImageMime = imageMime.String
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct updates a product's metadata. Stock set here is a manual
// restock or inventory correction; sales go through the ledger.
func UpdateProduct(ctx context.Context, db *sql.DB, id int64, name string, price decimal.Decimal, stock int, icon, barcode string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE products SET name = ?, price = ?, stock = ?, icon = ?, barcode = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		name, price, stock, icon, barcode, id,
	)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	return nil
}

// DeleteProduct soft-deletes a product. Ledger rows keep their denormalized
// product name so history stays readable.
func DeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE products SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	return nil
}

// SetProductImage sets a product's image data.
func SetProductImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE products SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting product image: %w", err)
	}
	return nil
}

// GetProductImage returns a product's image data and MIME type.
func GetProductImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM products WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting product image: %w", err)
	}
	return image, mime.String, nil
}
