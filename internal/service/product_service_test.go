package service

import (
	"context"
	"testing"

	"healthloop/internal/model"
	"healthloop/internal/seed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducts_SeedAndFilter(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	n, err := env.products.Seed(ctx, seed.DemoProducts())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	all, err := env.products.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	keto, err := env.products.List(ctx, "KETO")
	require.NoError(t, err)
	assert.Len(t, keto, 2)
	for _, p := range keto {
		assert.Equal(t, model.DietKeto, p.DietType)
	}

	_, err = env.products.List(ctx, "paleo")
	assert.ErrorIs(t, err, ErrInvalidDietType)

	id := seed.ProductID("Bowl Mediterráneo")
	p, err := env.products.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "16.50", p.Price.StringFixed(2))
	assert.Equal(t, []string{"Lácteos"}, p.Allergens)

	_, err = env.products.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProducts_SeedKeepsIDsStable(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	acc := env.register(t, "ana", model.RoleClient)

	_, err := env.products.Seed(ctx, seed.DemoProducts())
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, acc.ID, seed.ProductID("Wrap Keto Supremo"), 1)
	require.NoError(t, err)

	_, err = env.products.Seed(ctx, seed.DemoProducts())
	require.NoError(t, err)

	view, err := env.carts.GetCart(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "17.99", view.Total.StringFixed(2))
}
