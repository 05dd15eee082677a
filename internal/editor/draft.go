package editor

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Form field names. They match the storefront API attribute names.
const (
	FieldName              = "name"
	FieldDescription       = "description"
	FieldPrice             = "price"
	FieldStockQuantity     = "stockQuantity"
	FieldCategoryID        = "categoryId"
	FieldTags              = "tags"
	FieldIsOnSale          = "isOnSale"
	FieldDiscountPrice     = "discountPrice"
	FieldBarcode           = "barcode"
	FieldTaxExclusivePrice = "taxExclusivePrice"
	FieldTax               = "tax"
	FieldBannerLabel       = "bannerLabel"
	FieldLowStockAlert     = "lowStockAlert"
)

// TextFields lists the string valued draft fields in form order. Price comes
// before the tax inputs so a derived price always wins over a posted one.
var TextFields = []string{
	FieldName,
	FieldDescription,
	FieldBarcode,
	FieldPrice,
	FieldStockQuantity,
	FieldTaxExclusivePrice,
	FieldTax,
	FieldLowStockAlert,
	FieldCategoryID,
	FieldDiscountPrice,
	FieldTags,
	FieldBannerLabel,
}

// Draft is the editable copy of a product, holding values as typed.
type Draft struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Price             string `json:"price"`
	StockQuantity     string `json:"stockQuantity"`
	CategoryID        string `json:"categoryId"`
	Tags              string `json:"tags"`
	IsOnSale          bool   `json:"isOnSale"`
	DiscountPrice     string `json:"discountPrice"`
	Barcode           string `json:"barcode"`
	TaxExclusivePrice string `json:"taxExclusivePrice"`
	Tax               string `json:"tax"`
	BannerLabel       string `json:"bannerLabel"`
	LowStockAlert     string `json:"lowStockAlert"`
}

// NewDraft initialises a draft from a loaded product.
func NewDraft(p Product) Draft {
	d := Draft{
		Name:              p.Name,
		Description:       p.Description,
		Price:             formatOptional(p.Price),
		StockQuantity:     strconv.Itoa(p.StockQuantity),
		CategoryID:        p.CategoryID,
		Tags:              strings.Join(p.Tags, ","),
		IsOnSale:          p.IsOnSale,
		Barcode:           p.Barcode,
		TaxExclusivePrice: formatOptional(p.TaxExclusivePrice),
		Tax:               formatNumber(p.Tax),
		BannerLabel:       p.BannerLabel,
	}
	if p.DiscountPrice != nil {
		d.DiscountPrice = formatNumber(*p.DiscountPrice)
	}
	if p.LowStockAlert != nil {
		d.LowStockAlert = strconv.Itoa(*p.LowStockAlert)
	}
	return d
}

// Value returns the current value of a text field.
func (d *Draft) Value(field string) (string, bool) {
	ptr := d.textField(field)
	if ptr == nil {
		return "", false
	}
	return *ptr, true
}

func (d *Draft) textField(field string) *string {
	switch field {
	case FieldName:
		return &d.Name
	case FieldDescription:
		return &d.Description
	case FieldPrice:
		return &d.Price
	case FieldStockQuantity:
		return &d.StockQuantity
	case FieldCategoryID:
		return &d.CategoryID
	case FieldTags:
		return &d.Tags
	case FieldDiscountPrice:
		return &d.DiscountPrice
	case FieldBarcode:
		return &d.Barcode
	case FieldTaxExclusivePrice:
		return &d.TaxExclusivePrice
	case FieldTax:
		return &d.Tax
	case FieldBannerLabel:
		return &d.BannerLabel
	case FieldLowStockAlert:
		return &d.LowStockAlert
	}
	return nil
}

// set writes a text field and applies the price derivation. It reports false
// for unknown fields.
func (d *Draft) set(field, value string) bool {
	ptr := d.textField(field)
	if ptr == nil {
		return false
	}
	*ptr = value
	if field == FieldTaxExclusivePrice || field == FieldTax {
		d.Price = derivePrice(d.TaxExclusivePrice, d.Tax)
	}
	return true
}

// setOnSale toggles the sale flag. Leaving the sale drops the discount.
func (d *Draft) setOnSale(on bool) {
	if d.IsOnSale && !on {
		d.DiscountPrice = ""
	}
	d.IsOnSale = on
}

// ComputeFinalPrice returns the tax inclusive price rounded to cents.
func ComputeFinalPrice(taxExclusivePrice, tax float64) float64 {
	base := decimal.NewFromFloat(taxExclusivePrice)
	amount := base.Mul(decimal.NewFromFloat(tax)).Div(decimal.NewFromInt(100))
	return base.Add(amount).Round(2).InexactFloat64()
}

// FormatPrice renders a price with two decimals.
func FormatPrice(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// derivePrice recomputes the draft price; non numeric inputs leave it blank.
func derivePrice(taxExclusivePrice, tax string) string {
	t, err := parseNumber(taxExclusivePrice)
	if err != nil {
		return ""
	}
	r, err := parseNumber(tax)
	if err != nil {
		return ""
	}
	return FormatPrice(ComputeFinalPrice(t, r))
}

// ParseTags splits a comma separated tag list, trimming entries and dropping
// empty ones.
func ParseTags(s string) []string {
	tags := []string{}
	for _, part := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatOptional leaves unset (zero) prices blank.
func formatOptional(v float64) string {
	if v == 0 {
		return ""
	}
	return formatNumber(v)
}
