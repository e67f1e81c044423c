package seed

import (
	"context"
	"testing"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCatalog(t *testing.T) {
	products := Catalog()
	require.Len(t, products, 60)

	slugs := map[string]bool{}
	for _, p := range products {
		assert.False(t, slugs[p.Slug], "duplicate slug %s", p.Slug)
		slugs[p.Slug] = true
		assert.NotEmpty(t, p.Colors, p.Name)
		assert.NotEmpty(t, p.Sizes, p.Name)
		assert.True(t, p.IsActive)
		assert.LessOrEqual(t, p.Rating, 5.0)
	}
	assert.Equal(t, "Modern Fit Men's Shirt Vol. 1", products[0].Name)
	assert.Equal(t, 650.0, products[0].Price)
}

func TestSeeder_Run(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	users := repository.NewUserRepository(gdb)
	products := repository.NewProductRepository(gdb)
	s := NewSeeder(gdb, users, products, zap.NewNop())

	require.NoError(t, s.Run(ctx, false))
	assert.Error(t, s.Run(ctx, false), "admin already exists")
	require.NoError(t, s.Run(ctx, true))

	count, err := products.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(60), count)

	admin, err := users.GetByEmail(ctx, AdminEmail)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	ok, err := auth.CheckPassword(AdminPassword, admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}
