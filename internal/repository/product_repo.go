package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"gorm.io/gorm"
)

// ProductRepositoryImpl handles all database operations for products using GORM
type ProductRepositoryImpl struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
// Returns concrete type - "Accept interfaces, return structs"
func NewProductRepository(db *gorm.DB) *ProductRepositoryImpl {
	return &ProductRepositoryImpl{db: db}
}

// Create inserts a new product. The KSUID is generated in BeforeCreate.
func (r *ProductRepositoryImpl) Create(ctx context.Context, in *models.ProductCreate) (*models.Product, error) {
	product := &models.Product{
		Name:          in.Name,
		Slug:          slugify(in.Name),
		Description:   in.Description,
		Category:      in.Category,
		Subcategory:   in.Subcategory,
		Gender:        in.Gender,
		Brand:         in.Brand,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Colors:        in.Colors,
		Sizes:         in.Sizes,
		Tags:          in.Tags,
		Images:        in.Images,
		Stock:         in.Stock,
		IsNew:         in.IsNew,
		IsFeatured:    in.IsFeatured,
		IsActive:      true,
	}

	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// Insert stores a fully built product as-is. Used by seeding.
func (r *ProductRepositoryImpl) Insert(ctx context.Context, product *models.Product) error {
	if product.Slug == "" {
		product.Slug = slugify(product.Name)
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product. Soft-deleted products are excluded.
func (r *ProductRepositoryImpl) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product

	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// ListActive returns every active product in catalog order (oldest first).
// Filtering and sorting happen in memory in the catalog package.
func (r *ProductRepositoryImpl) ListActive(ctx context.Context) ([]models.Product, error) {
	var products []models.Product

	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Update modifies the fields set in update. Changes are applied to the
// loaded struct and saved with an explicit column list so that zero values
// (stock 0, isActive false) are written and JSON fields are serialized.
func (r *ProductRepositoryImpl) Update(ctx context.Context, id string, update *models.ProductUpdate) (*models.Product, error) {
	product, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if update.Name != nil {
		product.Name = *update.Name
		product.Slug = slugify(*update.Name)
		columns = append(columns, "name", "slug")
	}
	if update.Description != nil {
		product.Description = *update.Description
		columns = append(columns, "description")
	}
	if update.Category != nil {
		product.Category = *update.Category
		columns = append(columns, "category")
	}
	if update.Subcategory != nil {
		product.Subcategory = *update.Subcategory
		columns = append(columns, "subcategory")
	}
	if update.Price != nil {
		product.Price = *update.Price
		columns = append(columns, "price")
	}
	if update.Stock != nil {
		product.Stock = *update.Stock
		columns = append(columns, "stock")
	}
	if update.IsFeatured != nil {
		product.IsFeatured = *update.IsFeatured
		columns = append(columns, "is_featured")
	}
	if update.IsActive != nil {
		product.IsActive = *update.IsActive
		columns = append(columns, "is_active")
	}
	if update.Colors != nil {
		product.Colors = update.Colors
		columns = append(columns, "colors")
	}
	if update.Sizes != nil {
		product.Sizes = update.Sizes
		columns = append(columns, "sizes")
	}
	if update.Tags != nil {
		product.Tags = update.Tags
		columns = append(columns, "tags")
	}

	if len(columns) == 0 {
		return product, nil
	}

	if err := r.db.WithContext(ctx).Model(product).Select(columns).Updates(product).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// Delete performs a soft delete on the product
func (r *ProductRepositoryImpl) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("product", id)
	}
	return nil
}

// LowStock returns active products whose stock is at or below threshold.
func (r *ProductRepositoryImpl) LowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	var products []models.Product

	err := r.db.WithContext(ctx).
		Where("is_active = ? AND stock <= ?", true, threshold).
		Order("stock ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	return products, nil
}

// Count returns the number of products that are not deleted.
func (r *ProductRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
