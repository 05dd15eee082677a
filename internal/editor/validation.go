package editor

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a field name to its message.
type FieldErrors map[string]string

// productInput is the typed view of a draft checked by the validator.
type productInput struct {
	Name              string   `form:"name" validate:"required"`
	Description       string   `form:"description" validate:"required"`
	Price             float64  `form:"price" validate:"gt=0"`
	StockQuantity     int      `form:"stockQuantity" validate:"gte=0"`
	CategoryID        string   `form:"categoryId" validate:"required"`
	Barcode           string   `form:"barcode" validate:"required"`
	TaxExclusivePrice float64  `form:"taxExclusivePrice" validate:"gt=0"`
	Tax               float64  `form:"tax" validate:"gte=0,lte=100"`
	IsOnSale          bool     `form:"isOnSale"`
	DiscountPrice     *float64 `form:"discountPrice" validate:"omitempty,gt=0"`
	LowStockAlert     *int     `form:"lowStockAlert" validate:"omitempty,gte=1"`

	categories CategorySet
	priceOK    bool
}

var messages = map[string]map[string]string{
	FieldName:        {"required": "Please enter a product title"},
	FieldDescription: {"required": "Please enter a product description"},
	FieldPrice: {
		"required": "Please enter a product price",
		"number":   "Price must be a number",
		"gt":       "Price must be a positive number",
	},
	FieldStockQuantity: {
		"required": "Please enter the product stock",
		"number":   "Stock Quantity must be a number",
		"integer":  "Stock Quantity must be an integer",
		"gte":      "Stock Quantity cannot be negative",
	},
	FieldCategoryID: {
		"required": "Please select a product category",
		"category": "Please select a valid product category",
	},
	FieldBarcode: {"required": "Please enter a barcode"},
	FieldTaxExclusivePrice: {
		"required": "Please enter the Tax Exclusive Price",
		"number":   "Tax Exclusive Price must be a number",
		"gt":       "Tax Exclusive Price must be a positive number",
	},
	FieldTax: {
		"required": "Please enter the tax percentage",
		"number":   "Tax must be a number",
		"gte":      "Tax cannot be negative",
		"lte":      "Tax cannot exceed 100%",
	},
	FieldDiscountPrice: {
		"required": "Please enter a discount price",
		"number":   "Discount Price must be a number",
		"gt":       "Discount Price must be a positive number",
		"ltefield": "Discount Price must be less than the original price",
	},
	FieldLowStockAlert: {
		"number":  "Low stock alert must be a number",
		"integer": "Low stock alert must be an integer",
		"gte":     "Low stock alert must be at least 1",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("form")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	v.RegisterStructValidation(validateProductInput, productInput{})
	return v
}

func validateProductInput(sl validator.StructLevel) {
	in := sl.Current().Interface().(productInput)
	if in.CategoryID != "" && len(in.categories) > 0 && !in.categories.Has(in.CategoryID) {
		sl.ReportError(in.CategoryID, FieldCategoryID, "CategoryID", "category", "")
	}
	if !in.IsOnSale {
		return
	}
	if in.DiscountPrice == nil {
		sl.ReportError(in.DiscountPrice, FieldDiscountPrice, "DiscountPrice", "required", "")
		return
	}
	if in.priceOK && *in.DiscountPrice > in.Price {
		sl.ReportError(in.DiscountPrice, FieldDiscountPrice, "DiscountPrice", "ltefield", FieldPrice)
	}
}

// Validate checks a draft against the product rules. Categories restrict the
// category id to loaded entries; an empty set only requires a value.
func Validate(d Draft, categories CategorySet) FieldErrors {
	errs := FieldErrors{}
	in := productInput{
		Name:        d.Name,
		Description: d.Description,
		CategoryID:  d.CategoryID,
		Barcode:     d.Barcode,
		IsOnSale:    d.IsOnSale,
		categories:  categories,
	}

	if v, ok := requireNumber(errs, FieldPrice, d.Price); ok {
		in.Price = v
		in.priceOK = true
	}
	if v, ok := requireInteger(errs, FieldStockQuantity, d.StockQuantity); ok {
		in.StockQuantity = v
	}
	if v, ok := requireNumber(errs, FieldTaxExclusivePrice, d.TaxExclusivePrice); ok {
		in.TaxExclusivePrice = v
	}
	if v, ok := requireNumber(errs, FieldTax, d.Tax); ok {
		in.Tax = v
	}
	if d.IsOnSale && strings.TrimSpace(d.DiscountPrice) != "" {
		if v, err := parseNumber(d.DiscountPrice); err != nil {
			errs[FieldDiscountPrice] = messages[FieldDiscountPrice]["number"]
		} else {
			in.DiscountPrice = &v
		}
	}
	if strings.TrimSpace(d.LowStockAlert) != "" {
		if v, ok := parseInteger(errs, FieldLowStockAlert, d.LowStockAlert); ok {
			in.LowStockAlert = &v
		}
	}

	err := validate.Struct(in)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := fe.Field()
			// Parse failures were recorded first and take precedence.
			if _, seen := errs[field]; seen {
				continue
			}
			errs[field] = message(field, fe.Tag())
		}
	}
	return errs
}

func message(field, tag string) string {
	if msg, ok := messages[field][tag]; ok {
		return msg
	}
	return field + " is invalid"
}

func requireNumber(errs FieldErrors, field, raw string) (float64, bool) {
	if strings.TrimSpace(raw) == "" {
		errs[field] = messages[field]["required"]
		return 0, false
	}
	v, err := parseNumber(raw)
	if err != nil {
		errs[field] = messages[field]["number"]
		return 0, false
	}
	return v, true
}

func requireInteger(errs FieldErrors, field, raw string) (int, bool) {
	if strings.TrimSpace(raw) == "" {
		errs[field] = messages[field]["required"]
		return 0, false
	}
	return parseInteger(errs, field, raw)
}

func parseInteger(errs FieldErrors, field, raw string) (int, bool) {
	v, err := parseNumber(raw)
	if err != nil {
		errs[field] = messages[field]["number"]
		return 0, false
	}
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		errs[field] = messages[field]["integer"]
		return 0, false
	}
	return int(v), true
}
