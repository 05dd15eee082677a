package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/odyssey-erp/storefront-admin/internal/editor"
)

// The API stores documents with a Mongo style "_id"; some routes also expose
// "id". Either is accepted.

type categoryWire struct {
	ID      string `json:"id"`
	MongoID string `json:"_id"`
	Name    string `json:"name"`
}

func (w categoryWire) toCategory() editor.Category {
	return editor.Category{ID: firstNonEmpty(w.ID, w.MongoID), Name: w.Name}
}

type categoryEnvelope struct {
	Documents []categoryWire `json:"documents"`
	Total     *int           `json:"total"`
}

type categoryPage struct {
	items     []editor.Category
	total     int
	paginated bool
}

func decodeCategoryPage(raw json.RawMessage) (categoryPage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return categoryPage{}, errors.New("empty category response")
	}
	if raw[0] == '[' {
		var list []categoryWire
		if err := json.Unmarshal(raw, &list); err != nil {
			return categoryPage{}, fmt.Errorf("decode categories: %w", err)
		}
		return categoryPage{items: toCategories(list)}, nil
	}

	var env categoryEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return categoryPage{}, fmt.Errorf("decode categories: %w", err)
	}
	page := categoryPage{items: toCategories(env.Documents)}
	if env.Total != nil {
		page.total = *env.Total
		page.paginated = true
	}
	return page, nil
}

func toCategories(list []categoryWire) []editor.Category {
	out := make([]editor.Category, 0, len(list))
	for _, w := range list {
		out = append(out, w.toCategory())
	}
	return out
}

type productWire struct {
	ID                string   `json:"id"`
	MongoID           string   `json:"_id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Price             float64  `json:"price"`
	StockQuantity     int      `json:"stockQuantity"`
	CategoryID        string   `json:"categoryId"`
	Tags              []string `json:"tags"`
	IsOnSale          bool     `json:"isOnSale"`
	DiscountPrice     *float64 `json:"discountPrice"`
	Barcode           string   `json:"barcode"`
	TaxExclusivePrice float64  `json:"taxExclusivePrice"`
	Tax               float64  `json:"tax"`
	BannerLabel       string   `json:"bannerLabel"`
	LowStockAlert     *int     `json:"lowStockAlert"`
	Images            []string `json:"images"`
}

func (w productWire) toProduct() editor.Product {
	return editor.Product{
		ID:                firstNonEmpty(w.ID, w.MongoID),
		Name:              w.Name,
		Description:       w.Description,
		Price:             w.Price,
		StockQuantity:     w.StockQuantity,
		CategoryID:        w.CategoryID,
		Tags:              w.Tags,
		IsOnSale:          w.IsOnSale,
		DiscountPrice:     w.DiscountPrice,
		Barcode:           w.Barcode,
		TaxExclusivePrice: w.TaxExclusivePrice,
		Tax:               w.Tax,
		BannerLabel:       w.BannerLabel,
		LowStockAlert:     w.LowStockAlert,
		Images:            w.Images,
	}
}

func decodeUploadRefs(r io.Reader) ([]string, error) {
	var refs []string
	if err := json.NewDecoder(r).Decode(&refs); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return refs, nil
}

type formField struct {
	name  string
	value string
}

// payloadFields flattens an update into form fields. Lists become repeated
// fields and absent optionals are sent as empty values.
func payloadFields(p editor.UpdatePayload) []formField {
	fields := []formField{
		{"name", p.Name},
		{"description", p.Description},
		{"price", formatFloat(p.Price)},
		{"stockQuantity", strconv.Itoa(p.StockQuantity)},
		{"categoryId", p.CategoryID},
	}
	for _, img := range p.Images {
		fields = append(fields, formField{"images", img})
	}
	for _, tag := range p.Tags {
		fields = append(fields, formField{"tags", tag})
	}
	discount := ""
	if p.DiscountPrice != nil {
		discount = formatFloat(*p.DiscountPrice)
	}
	alert := ""
	if p.LowStockAlert != nil {
		alert = strconv.Itoa(*p.LowStockAlert)
	}
	return append(fields,
		formField{"isOnSale", strconv.FormatBool(p.IsOnSale)},
		formField{"discountPrice", discount},
		formField{"barcode", p.Barcode},
		formField{"taxExclusivePrice", formatFloat(p.TaxExclusivePrice)},
		formField{"tax", formatFloat(p.Tax)},
		formField{"bannerLabel", p.BannerLabel},
		formField{"lowStockAlert", alert},
	)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
