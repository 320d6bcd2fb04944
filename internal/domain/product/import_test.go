package product

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

func validImport() Import {
	return Import{Name: "Trail Shoe", Brand: "Acme", Category: "shoes", Price: 120}
}

func TestImport_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Import)
		wantErr string
	}{
		{"valid", func(*Import) {}, ""},
		{"missing name", func(i *Import) { i.Name = "  " }, "name is required"},
		{"missing brand", func(i *Import) { i.Brand = "" }, "brand is required"},
		{"missing category", func(i *Import) { i.Category = "" }, "category is required"},
		{"negative price", func(i *Import) { i.Price = -1 }, "price"},
		{"rating too high", func(i *Import) { i.Rating = floatPtr(5.5) }, "rating"},
		{"rating bound inclusive", func(i *Import) { i.Rating = floatPtr(5) }, ""},
		{"negative stock", func(i *Import) { i.StockQuantity = -2 }, "counts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := validImport()
			tt.mutate(&imp)
			err := imp.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestImport_ToProduct_Defaults(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	imp := validImport()

	p := imp.ToProduct("p-1", now)

	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, 0.0, p.Rating)
	assert.True(t, p.InStock)
	assert.Equal(t, now, p.CreatedAt)
	assert.Equal(t, now, p.UpdatedAt)
	assert.Equal(t, StockIn, p.StockLabel())
}

func TestImport_ToProduct_Explicit(t *testing.T) {
	imp := validImport()
	imp.Rating = floatPtr(4.5)
	imp.InStock = boolPtr(false)

	p := imp.ToProduct("p-2", time.Now())

	assert.Equal(t, 4.5, p.Rating)
	assert.False(t, p.InStock)
	assert.Equal(t, StockOut, p.StockLabel())
}

func TestProduct_SearchText(t *testing.T) {
	p := Product{Name: "Lamp"}
	assert.Equal(t, "Lamp", p.SearchText())
	p.Description = "warm light"
	assert.Equal(t, "Lamp warm light", p.SearchText())
}
