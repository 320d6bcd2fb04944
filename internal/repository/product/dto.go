package product

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	domprod "github.com/kailas-cloud/vecfuse/internal/domain/product"
)

// Hash field names.
const (
	fieldName          = "name"
	fieldDescription   = "description"
	fieldBrand         = "brand"
	fieldCategory      = "category"
	fieldSubcategory   = "subcategory"
	fieldTags          = "tags"
	fieldPrice         = "price"
	fieldRating        = "rating"
	fieldReviewCount   = "review_count"
	fieldStockQuantity = "stock_quantity"
	fieldInStock       = "in_stock"
	fieldFeatured      = "featured"
	fieldAttributes    = "attributes"
	fieldCreatedAt     = "created_at"
	fieldUpdatedAt     = "updated_at"
	fieldVector        = "vector"
)

const tagSeparator = ","

// TextFields are the hash fields matched by lexical search.
var TextFields = []string{fieldName, fieldDescription, fieldBrand}

// recordFields lists everything but the vector so reads skip the blob.
var recordFields = []string{
	fieldName, fieldDescription, fieldBrand, fieldCategory, fieldSubcategory, fieldTags,
	fieldPrice, fieldRating, fieldReviewCount, fieldStockQuantity, fieldInStock, fieldFeatured,
	fieldAttributes, fieldCreatedAt, fieldUpdatedAt,
}

// buildHashFields flattens a product and its vector for HSET.
func buildHashFields(p *domprod.Product, vec []float32) (map[string]string, error) {
	m := map[string]string{
		fieldName:          p.Name,
		fieldDescription:   p.Description,
		fieldBrand:         p.Brand,
		fieldCategory:      p.Category,
		fieldSubcategory:   p.Subcategory,
		fieldTags:          strings.Join(p.Tags, tagSeparator),
		fieldPrice:         strconv.FormatFloat(p.Price, 'f', -1, 64),
		fieldRating:        strconv.FormatFloat(p.Rating, 'f', -1, 64),
		fieldReviewCount:   strconv.Itoa(p.ReviewCount),
		fieldStockQuantity: strconv.Itoa(p.StockQuantity),
		fieldInStock:       boolFlag(p.InStock),
		fieldFeatured:      boolFlag(p.Featured),
		fieldCreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339Nano),
		fieldUpdatedAt:     p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if len(p.Attributes) > 0 {
		data, err := json.Marshal(p.Attributes)
		if err != nil {
			return nil, fmt.Errorf("marshal attributes: %w", err)
		}
		m[fieldAttributes] = string(data)
	}
	if len(vec) > 0 {
		m[fieldVector] = vectorToBytes(vec)
	}
	return m, nil
}

// parseHashFields rebuilds a product from a hash. Unknown fields are ignored.
func parseHashFields(id string, m map[string]string) (domprod.Product, error) {
	p := domprod.Product{
		ID:          id,
		Name:        m[fieldName],
		Description: m[fieldDescription],
		Brand:       m[fieldBrand],
		Category:    m[fieldCategory],
		Subcategory: m[fieldSubcategory],
		InStock:     m[fieldInStock] == "1",
		Featured:    m[fieldFeatured] == "1",
	}
	if tags := m[fieldTags]; tags != "" {
		p.Tags = strings.Split(tags, tagSeparator)
	}

	var err error
	if p.Price, err = parseFloat(m, fieldPrice); err != nil {
		return domprod.Product{}, err
	}
	if p.Rating, err = parseFloat(m, fieldRating); err != nil {
		return domprod.Product{}, err
	}
	if p.ReviewCount, err = parseInt(m, fieldReviewCount); err != nil {
		return domprod.Product{}, err
	}
	if p.StockQuantity, err = parseInt(m, fieldStockQuantity); err != nil {
		return domprod.Product{}, err
	}
	if p.CreatedAt, err = parseTime(m, fieldCreatedAt); err != nil {
		return domprod.Product{}, err
	}
	if p.UpdatedAt, err = parseTime(m, fieldUpdatedAt); err != nil {
		return domprod.Product{}, err
	}
	if raw := m[fieldAttributes]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Attributes); err != nil {
			return domprod.Product{}, fmt.Errorf("field %s: %w", fieldAttributes, err)
		}
	}
	return p, nil
}

func parseFloat(m map[string]string, field string) (float64, error) {
	v, ok := m[field]
	if !ok || v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", field, err)
	}
	return f, nil
}

func parseInt(m map[string]string, field string) (int, error) {
	v, ok := m[field]
	if !ok || v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", field, err)
	}
	return n, nil
}

func parseTime(m map[string]string, field string) (time.Time, error) {
	v, ok := m[field]
	if !ok || v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %s: %w", field, err)
	}
	return t, nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// vectorToBytes serializes []float32 as little-endian FLOAT32, the layout FT vector fields expect.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
