package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CatalogProduct is one entry of the product reference table
type CatalogProduct struct {
	Code           string  `json:"code"`
	ReferencePrice float64 `json:"reference_price"`
	Group          string  `json:"group,omitempty"`
	Description    string  `json:"description,omitempty"`
	Line           string  `json:"line,omitempty"`
}

// Catalog indexes reference products by normalized product code. A nil
// *Catalog is valid and matches nothing.
type Catalog struct {
	products map[string]CatalogProduct
}

// NewCatalog indexes products by normalized code. The first entry for a code wins.
func NewCatalog(products []CatalogProduct) *Catalog {
	c := &Catalog{products: make(map[string]CatalogProduct, len(products))}
	for _, p := range products {
		code := NormalizeProductCode(p.Code)
		if code == "" {
			continue
		}
		if _, exists := c.products[code]; exists {
			continue
		}
		p.Code = code
		c.products[code] = p
	}
	return c
}

// BuildCatalog reads a reference table. Rows without a product code are
// skipped; unreadable prices are reported and stored as 0.
func BuildCatalog(table *RawTable) (*Catalog, []*MalformedRowError, error) {
	if table == nil || len(table.Headers) == 0 {
		return nil, nil, ErrNoHeader
	}
	index := ResolveHeaders(table.Headers)
	if missing := index.Missing(FieldProductCode, FieldReferencePrice); len(missing) > 0 {
		return nil, nil, fmt.Errorf("reference table is missing columns %v", missing)
	}

	var (
		products []CatalogProduct
		issues   []*MalformedRowError
	)
	for i, cells := range table.Rows {
		rowNumber := table.RowNumber(i)
		code := index.Cell(cells, FieldProductCode)
		if code == "" {
			continue
		}
		rawPrice := index.Cell(cells, FieldReferencePrice)
		price, err := table.Numbers.Parse(rawPrice)
		if err != nil {
			issues = append(issues, &MalformedRowError{Row: rowNumber, Field: FieldReferencePrice, Value: rawPrice, Err: err})
		}
		products = append(products, CatalogProduct{
			Code:           code,
			ReferencePrice: price,
			Group:          index.Cell(cells, FieldProductGroup),
			Description:    index.Cell(cells, FieldProductDescription),
			Line:           index.Cell(cells, FieldProductLine),
		})
	}
	return NewCatalog(products), issues, nil
}

// Lookup finds a product by code in any encoding ("3", "3.0", "003")
func (c *Catalog) Lookup(code string) (CatalogProduct, bool) {
	if c == nil {
		return CatalogProduct{}, false
	}
	p, ok := c.products[NormalizeProductCode(code)]
	return p, ok
}

// Len returns the number of products
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// NormalizeProductCode returns the canonical integer form of numeric codes
// ("3.0" and "003" become "3"). Other codes are trimmed and upper-cased.
func NormalizeProductCode(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64); err == nil &&
		math.Abs(f) < 1e15 && f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strings.ToUpper(s)
}

// FormatProductName is the one place product names are built. Precedence:
// catalogue Group/Description/Line, then the name on the row, then an
// "Uncatalogued product" placeholder.
func FormatProductName(code, rowName string, product *CatalogProduct) string {
	if product != nil {
		var parts []string
		for _, p := range []string{product.Group, product.Description, product.Line} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " - ")
		}
	}
	if name := strings.TrimSpace(rowName); name != "" {
		return name
	}
	if code = strings.TrimSpace(code); code != "" {
		return "Uncatalogued product " + code
	}
	return "Uncatalogued product"
}
