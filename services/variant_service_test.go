package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildSKU(t *testing.T) {
	tests := []struct {
		name, product, color, size, want string
	}{
		{"simple", "Shirt", "Blue", "M", "SHIRT-BLUE-M"},
		{"spaces become hyphens", "Linen  Summer Shirt", "Sea Green", "XL", "LINEN-SUMMER-SHIRT-SEA-GREEN-XL"},
		{"trims outer whitespace", "  Mug ", " red", "one size ", "MUG-RED-ONE-SIZE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSKU(tt.product, tt.color, tt.size))
		})
	}
}

func TestFindOrCreateVariant_ReturnsExisting(t *testing.T) {
	store := newFakeStore()
	p := store.addProduct("Shirt", "10.00", 5)
	existing := store.addVariant(p, "Blue", "M", 3)
	svc := NewVariantService(store, nil, zap.NewNop())

	v, err := svc.FindOrCreateVariant(context.Background(), &p, "Blue", "M")

	require.NoError(t, err)
	assert.Equal(t, existing.ID, v.ID)
	assert.Equal(t, 3, v.Quantity)
	assert.Equal(t, 1, store.variantCount())
}

func TestFindOrCreateVariant_SKUTakenByOtherProduct(t *testing.T) {
	store := newFakeStore()
	a := store.addProduct("Shirt", "10.00", 5)
	b := store.addProduct("Shirt", "12.00", 5)
	store.addVariant(a, "Blue", "M", 3)
	svc := NewVariantService(store, nil, zap.NewNop())

	v, err := svc.FindOrCreateVariant(context.Background(), &b, "Blue", "M")

	require.NoError(t, err)
	assert.Equal(t, b.ID, v.ProductID)
	assert.Equal(t, 0, v.Quantity)
	assert.NotEqual(t, "SHIRT-BLUE-M", v.SKU)
	assert.Contains(t, v.SKU, "SHIRT-BLUE-M-")
}

func TestFindOrCreateVariant_ConcurrentCallsCreateOnce(t *testing.T) {
	store := newFakeStore()
	p := store.addProduct("Shirt", "10.00", 5)
	svc := NewVariantService(store, nil, zap.NewNop())

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := svc.FindOrCreateVariant(context.Background(), &p, "Red", "S")
			if assert.NoError(t, err) {
				ids[i] = v.ID.String()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.variantCount())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestCreateVariant(t *testing.T) {
	store := newFakeStore()
	p := store.addProduct("Shirt", "10.00", 5)
	cache := &spyCache{}
	svc := NewVariantService(store, cache, zap.NewNop())
	ctx := context.Background()

	v, err := svc.CreateVariant(ctx, p.ID.String(), models.CreateVariantRequest{Color: " Blue ", Size: "M", Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, "Blue", v.Color)
	assert.Equal(t, "SHIRT-BLUE-M", v.SKU)
	assert.Equal(t, 4, v.Quantity)
	assert.Len(t, cache.invalidated, 1)

	_, err = svc.CreateVariant(ctx, p.ID.String(), models.CreateVariantRequest{Color: "Blue", Size: "M"})
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	custom := "CUSTOM-1"
	v, err = svc.CreateVariant(ctx, p.ID.String(), models.CreateVariantRequest{Color: "Red", Size: "L", SKU: &custom})
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM-1", v.SKU)
}

func TestUpdateVariant(t *testing.T) {
	store := newFakeStore()
	p := store.addProduct("Shirt", "10.00", 5)
	v := store.addVariant(p, "Blue", "M", 3)
	svc := NewVariantService(store, nil, zap.NewNop())
	qty, inactive := 9, false

	updated, err := svc.UpdateVariant(context.Background(), v.ID.String(), models.UpdateVariantRequest{Quantity: &qty, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Quantity)
	assert.False(t, updated.IsActive)

	list, err := svc.ListVariants(context.Background(), p.ID.String(), false)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = svc.ListVariants(context.Background(), p.ID.String(), true)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.UpdateVariant(context.Background(), v.ID.String(), models.UpdateVariantRequest{})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}
