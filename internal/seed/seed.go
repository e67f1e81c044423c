// Package seed loads the demo accounts and starter catalog.
package seed

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	AdminEmail    = "admin@genwear.com"
	AdminPassword = "Admin@123"
	DemoEmail     = "john@example.com"
	DemoPassword  = "User@123"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
}

type ProductRepository interface {
	Insert(ctx context.Context, product *models.Product) error
}

// Seeder writes the demo data through the repositories.
type Seeder struct {
	db       *gorm.DB
	users    UserRepository
	products ProductRepository
	log      *zap.Logger
}

func NewSeeder(db *gorm.DB, users UserRepository, products ProductRepository, log *zap.Logger) *Seeder {
	return &Seeder{db: db, users: users, products: products, log: log.Named("seed")}
}

// Run seeds the store. With reset, existing users, products, carts, orders
// and analytics are removed first; otherwise seeding an already seeded
// database fails on the admin email.
func (s *Seeder) Run(ctx context.Context, reset bool) error {
	if reset {
		if err := s.clear(ctx); err != nil {
			return err
		}
		s.log.Info("🗑️  Existing data cleared")
	}

	if err := s.createUsers(ctx); err != nil {
		return err
	}
	s.log.Info("👤 Users created")

	products := Catalog()
	for i := range products {
		if err := s.products.Insert(ctx, &products[i]); err != nil {
			return fmt.Errorf("inserting %q: %w", products[i].Name, err)
		}
	}
	s.log.Info("📦 Products inserted", zap.Int("count", len(products)))
	return nil
}

func (s *Seeder) clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&models.AnalyticsEvent{},
			&models.CartItem{},
			&models.OrderItem{},
			&models.Order{},
			&models.Product{},
			&models.User{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
				return fmt.Errorf("clearing %T: %w", model, err)
			}
		}
		return nil
	})
}

func (s *Seeder) createUsers(ctx context.Context) error {
	accounts := []struct {
		user     models.User
		password string
	}{
		{models.User{FirstName: "Admin", LastName: "User", Email: AdminEmail, Role: models.RoleAdmin}, AdminPassword},
		{models.User{FirstName: "John", LastName: "Doe", Email: DemoEmail, Role: models.RoleCustomer}, DemoPassword},
	}

	for _, a := range accounts {
		hash, err := auth.HashPassword(a.password)
		if err != nil {
			return err
		}
		user := a.user
		user.PasswordHash = hash
		if err := s.users.Create(ctx, &user); err != nil {
			return fmt.Errorf("creating %s: %w", user.Email, err)
		}
	}
	return nil
}

var images = map[string]string{
	"men/topwear":      "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab",
	"men/bottomwear":   "https://images.unsplash.com/photo-1542272604-787c3835535d",
	"men/outerwear":    "https://images.unsplash.com/photo-1551028719-00167b16eac5",
	"women/topwear":    "https://images.unsplash.com/photo-1589156229687-496a31ad1d1f",
	"women/bottomwear": "https://images.unsplash.com/photo-1584370848010-d7fe6bc767ec",
	"women/outerwear":  "https://images.unsplash.com/photo-1539533018447-63fcce2678e3",
	"footwear":         "https://images.unsplash.com/photo-1560769629-975ec94e6a86",
	"accessories":      "https://images.unsplash.com/photo-1523275335684-37898b6baf30",
}

func garmentCategory(i int) string {
	switch {
	case i <= 8:
		return "topwear"
	case i <= 14:
		return "bottomwear"
	default:
		return "outerwear"
	}
}

// Catalog builds the starter catalog: 20 men's and 20 women's garments,
// 10 shoes and 10 accessories. Ratings are fixed so listings sorted by
// rating are reproducible.
func Catalog() []models.Product {
	var products []models.Product

	menBrands := []string{"Urban Threads", "Modern Fit", "Street Style", "GENWEAR"}
	menMaterials := []string{"cotton", "denim", "fleece", "wool", "polyester"}
	menNouns := map[string]string{"topwear": "Shirt", "bottomwear": "Trouser", "outerwear": "Jacket"}
	for i := 1; i <= 20; i++ {
		cat := garmentCategory(i)
		brand := menBrands[i%4]
		name := fmt.Sprintf("%s Men's %s Vol. %d", brand, menNouns[cat], i)
		products = append(products, models.Product{
			Name:          name,
			Slug:          slug(name, i),
			Description:   fmt.Sprintf("High-quality %s for men. Made from premium %s for ultimate comfort and style.", cat, menMaterials[i%5]),
			Category:      cat,
			Gender:        "men",
			Brand:         brand,
			Price:         float64(500 + i*150),
			OriginalPrice: float64(800 + i*200),
			Colors:        []string{"Black"},
			Sizes:         []string{"M", "L", "XL"},
			Tags:          []string{"men", cat, "new-arrival"},
			Images:        []string{images["men/"+cat] + "?w=1200&q=80"},
			Stock:         50,
			Rating:        4 + float64(i%10)/10,
			Reviews:       10 + i*2,
			IsNew:         i > 10,
			IsActive:      true,
		})
	}

	womenBrands := []string{"ChicStyle", "Modern Fit", "Beach Breeze", "GENWEAR"}
	womenMaterials := []string{"silk", "linen", "viscose", "cotton", "denim"}
	womenNouns := map[string]string{"topwear": "Blouse", "bottomwear": "Skirt", "outerwear": "Coat"}
	for i := 1; i <= 20; i++ {
		cat := garmentCategory(i)
		brand := womenBrands[i%4]
		name := fmt.Sprintf("%s Women's %s Vol. %d", brand, womenNouns[cat], i)
		products = append(products, models.Product{
			Name:          name,
			Slug:          slug(name, i+50),
			Description:   fmt.Sprintf("Elegant %s for women. Crafted with %s for a luxurious feel.", cat, womenMaterials[i%5]),
			Category:      cat,
			Gender:        "women",
			Brand:         brand,
			Price:         float64(700 + i*120),
			OriginalPrice: float64(1000 + i*180),
			Colors:        []string{"Pink"},
			Sizes:         []string{"S", "M", "L"},
			Tags:          []string{"women", cat, "trendy"},
			Images:        []string{images["women/"+cat] + "?w=1200&q=80"},
			Stock:         45,
			Rating:        4.2 + float64(i%8)/10,
			Reviews:       20 + i*4,
			IsNew:         i > 12,
			IsActive:      true,
		})
	}

	for i := 1; i <= 10; i++ {
		gender, label := "men", "Men's"
		if i > 5 {
			gender, label = "women", "Women's"
		}
		name := fmt.Sprintf("GENWEAR %s Signature Shoe %d", label, i)
		products = append(products, models.Product{
			Name:          name,
			Slug:          slug(name, i+100),
			Description:   "Premium footwear designed for comfort and durability. Features an ergonomic sole for advanced support.",
			Category:      "footwear",
			Gender:        gender,
			Brand:         "GENWEAR",
			Price:         float64(2500 + i*300),
			OriginalPrice: float64(3500 + i*400),
			Colors:        []string{"White"},
			Sizes:         []string{"8", "9", "10"},
			Tags:          []string{"footwear", gender, "shoes"},
			Images:        []string{images["footwear"] + "?w=1200&q=80"},
			Stock:         30,
			Rating:        4.5 + float64(i%5)/10,
			Reviews:       50 + i,
			IsActive:      true,
		})
	}

	for i := 1; i <= 10; i++ {
		name := fmt.Sprintf("GENWEAR Premium Accessory %d", i)
		products = append(products, models.Product{
			Name:          name,
			Slug:          slug(name, i+200),
			Description:   "Exquisite accessories to complement your style. Crafted with precision and high-quality materials.",
			Category:      "accessories",
			Gender:        "unisex",
			Brand:         "GENWEAR",
			Price:         float64(999 + i*200),
			OriginalPrice: float64(1500 + i*300),
			Colors:        []string{"Black"},
			Sizes:         []string{"One Size"},
			Tags:          []string{"accessories", "unisex", "style"},
			Images:        []string{images["accessories"] + "?w=1200&q=80"},
			Stock:         100,
			Rating:        4.6 + float64(i%4)/10,
			Reviews:       30 + i,
			IsActive:      true,
		})
	}

	return products
}

func slug(name string, n int) string {
	s := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	s = strings.ReplaceAll(s, "'", "")
	return fmt.Sprintf("%s-%d", s, n)
}
