package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/decorhaus/storefront_api/internal/models"
)

// ProductRepository handles data access for products, variants and images.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ProductFilter narrows product listings. Empty fields are ignored.
type ProductFilter struct {
	CategorySlug string
	Search       string
	OnlyActive   bool
	IsActive     *bool
}

const productColumns = `
        p.id, p.title, p.slug, p.description, p.base_price, p.category_id,
        c.name AS category_name, p.has_variants, p.is_active, p.created_at, p.updated_at`

const productFrom = `
        FROM products p
        LEFT JOIN categories c ON c.id = p.category_id`

// ListPaged returns products matching the filter and the total count. Page begins at 1.
func (r *ProductRepository) ListPaged(ctx context.Context, f ProductFilter, page, limit int) ([]models.Product, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit

	const where = `
        WHERE ($1 = '' OR c.slug = $1)
        AND ($2 = '' OR p.title ILIKE '%' || $2 || '%')
        AND (NOT $3 OR p.is_active = true)
        AND ($4::boolean IS NULL OR p.is_active = $4)`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1)`+productFrom+where,
		f.CategorySlug, f.Search, f.OnlyActive, f.IsActive); err != nil {
		return nil, 0, mapError("count products", err)
	}

	products := []models.Product{}
	q := `SELECT` + productColumns + productFrom + where + `
        ORDER BY p.created_at DESC, p.id DESC LIMIT $5 OFFSET $6`
	if err := r.db.SelectContext(ctx, &products, q,
		f.CategorySlug, f.Search, f.OnlyActive, f.IsActive, limit, offset); err != nil {
		return nil, 0, mapError("list products", err)
	}
	return products, total, nil
}

// ListActive returns every active product ordered by title, for feeds and sitemaps.
func (r *ProductRepository) ListActive(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	q := `SELECT` + productColumns + productFrom + `
        WHERE p.is_active = true ORDER BY p.title`
	if err := r.db.SelectContext(ctx, &products, q); err != nil {
		return nil, mapError("list active products", err)
	}
	return products, nil
}

// GetByID returns a single product by id without children.
func (r *ProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	var p models.Product
	q := `SELECT` + productColumns + productFrom + ` WHERE p.id = $1`
	if err := r.db.GetContext(ctx, &p, q, id); err != nil {
		return nil, mapError("get product", err)
	}
	return &p, nil
}

// GetBySlug returns a single product by slug without children.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	q := `SELECT` + productColumns + productFrom + ` WHERE p.slug = $1`
	if err := r.db.GetContext(ctx, &p, q, slug); err != nil {
		return nil, mapError("get product by slug", err)
	}
	return &p, nil
}

// GetByIDs returns products keyed by id. Missing ids are simply absent from the map.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int) (map[int]*models.Product, error) {
	out := make(map[int]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT`+productColumns+productFrom+` WHERE p.id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, r.db.Rebind(q), args...); err != nil {
		return nil, mapError("get products by ids", err)
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

// Variants returns the variants of a product ordered by id.
func (r *ProductRepository) Variants(ctx context.Context, productID int) ([]models.ProductVariant, error) {
	variants := []models.ProductVariant{}
	const q = `SELECT id, product_id, name, sku, price, stock_quantity
        FROM product_variants WHERE product_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &variants, q, productID); err != nil {
		return nil, mapError("list variants", err)
	}
	return variants, nil
}

// VariantsByIDs returns variants keyed by id.
func (r *ProductRepository) VariantsByIDs(ctx context.Context, ids []int) (map[int]*models.ProductVariant, error) {
	out := make(map[int]*models.ProductVariant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT id, product_id, name, sku, price, stock_quantity
        FROM product_variants WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var variants []models.ProductVariant
	if err := r.db.SelectContext(ctx, &variants, r.db.Rebind(q), args...); err != nil {
		return nil, mapError("get variants by ids", err)
	}
	for i := range variants {
		out[variants[i].ID] = &variants[i]
	}
	return out, nil
}

// Images returns the images of a product in display order.
func (r *ProductRepository) Images(ctx context.Context, productID int) ([]models.ProductImage, error) {
	images := []models.ProductImage{}
	const q = `SELECT id, product_id, image_url, display_order
        FROM product_images WHERE product_id = $1 ORDER BY display_order, id`
	if err := r.db.SelectContext(ctx, &images, q, productID); err != nil {
		return nil, mapError("list images", err)
	}
	return images, nil
}

// ImagesFor returns images for many products grouped by product id.
func (r *ProductRepository) ImagesFor(ctx context.Context, productIDs []int) (map[int][]models.ProductImage, error) {
	out := make(map[int][]models.ProductImage, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT id, product_id, image_url, display_order
        FROM product_images WHERE product_id IN (?) ORDER BY product_id, display_order, id`, productIDs)
	if err != nil {
		return nil, err
	}
	var images []models.ProductImage
	if err := r.db.SelectContext(ctx, &images, r.db.Rebind(q), args...); err != nil {
		return nil, mapError("list images", err)
	}
	for _, img := range images {
		out[img.ProductID] = append(out[img.ProductID], img)
	}
	return out, nil
}

// VariantsFor returns variants for many products grouped by product id.
func (r *ProductRepository) VariantsFor(ctx context.Context, productIDs []int) (map[int][]models.ProductVariant, error) {
	out := make(map[int][]models.ProductVariant, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT id, product_id, name, sku, price, stock_quantity
        FROM product_variants WHERE product_id IN (?) ORDER BY product_id, id`, productIDs)
	if err != nil {
		return nil, err
	}
	var variants []models.ProductVariant
	if err := r.db.SelectContext(ctx, &variants, r.db.Rebind(q), args...); err != nil {
		return nil, mapError("list variants", err)
	}
	for _, v := range variants {
		out[v.ProductID] = append(out[v.ProductID], v)
	}
	return out, nil
}

// Create inserts a product header inside tx and fills ID and timestamps.
func (r *ProductRepository) Create(ctx context.Context, tx *sqlx.Tx, p *models.Product) error {
	const q = `
        INSERT INTO products (title, slug, description, base_price, category_id, has_variants, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`
	err := tx.QueryRowxContext(ctx, q, p.Title, p.Slug, p.Description, p.BasePrice,
		p.CategoryID, p.HasVariants, p.IsActive).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError("create product", err)
}

// Update rewrites a product header inside tx.
func (r *ProductRepository) Update(ctx context.Context, tx *sqlx.Tx, p *models.Product) error {
	const q = `
        UPDATE products SET title = $1, slug = $2, description = $3, base_price = $4,
            category_id = $5, has_variants = $6, is_active = $7, updated_at = NOW()
        WHERE id = $8
        RETURNING created_at, updated_at`
	err := tx.QueryRowxContext(ctx, q, p.Title, p.Slug, p.Description, p.BasePrice,
		p.CategoryID, p.HasVariants, p.IsActive, p.ID).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapError("update product", err)
}

// ReplaceVariants deletes every variant of the product and inserts the given set.
// An empty set leaves the product with no variants.
func (r *ProductRepository) ReplaceVariants(ctx context.Context, tx *sqlx.Tx, productID int, variants []models.ProductVariant) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = $1`, productID); err != nil {
		return mapError("delete variants", err)
	}
	const q = `
        INSERT INTO product_variants (product_id, name, sku, price, stock_quantity)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`
	for i := range variants {
		v := &variants[i]
		v.ProductID = productID
		if err := tx.QueryRowxContext(ctx, q, productID, v.Name, v.SKU, v.Price, v.StockQuantity).Scan(&v.ID); err != nil {
			return mapError("insert variant", err)
		}
	}
	return nil
}

// ReplaceImages deletes every image row of the product and inserts the given set.
func (r *ProductRepository) ReplaceImages(ctx context.Context, tx *sqlx.Tx, productID int, images []models.ProductImage) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = $1`, productID); err != nil {
		return mapError("delete images", err)
	}
	const q = `
        INSERT INTO product_images (product_id, image_url, display_order)
        VALUES ($1, $2, $3)
        RETURNING id`
	for i := range images {
		img := &images[i]
		img.ProductID = productID
		if err := tx.QueryRowxContext(ctx, q, productID, img.ImageURL, img.DisplayOrder).Scan(&img.ID); err != nil {
			return mapError("insert image", err)
		}
	}
	return nil
}

// ImageReferenced reports whether any product image row still points at url.
func (r *ProductRepository) ImageReferenced(ctx context.Context, url string) (bool, error) {
	var ok bool
	if err := r.db.GetContext(ctx, &ok, `SELECT EXISTS (SELECT 1 FROM product_images WHERE image_url = $1)`, url); err != nil {
		return false, mapError("check image reference", err)
	}
	return ok, nil
}

// SetActive toggles the active flag.
func (r *ProductRepository) SetActive(ctx context.Context, id int, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return mapError("set product active", err)
	}
	return requireAffected("set product active", res)
}

// Delete removes a product. Children cascade; order items referencing it block the delete.
func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return mapError("delete product", err)
	}
	return requireAffected("delete product", res)
}

// CountActive returns the number of active products.
func (r *ProductRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM products WHERE is_active = true`); err != nil {
		return 0, mapError("count active products", err)
	}
	return n, nil
}

// LowStockVariants returns variants at or below the threshold, for the dashboard.
func (r *ProductRepository) LowStockVariants(ctx context.Context, threshold int) ([]models.ProductVariant, error) {
	variants := []models.ProductVariant{}
	const q = `SELECT v.id, v.product_id, v.name, v.sku, v.price, v.stock_quantity
        FROM product_variants v JOIN products p ON p.id = v.product_id
        WHERE p.is_active = true AND v.stock_quantity <= $1
        ORDER BY v.stock_quantity, v.id LIMIT 50`
	if err := r.db.SelectContext(ctx, &variants, q, threshold); err != nil {
		return nil, mapError("low stock variants", err)
	}
	return variants, nil
}
