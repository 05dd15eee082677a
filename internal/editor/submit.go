package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Submission outcomes reported to the Recorder.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeNoImages = "no_images"
	OutcomeInFlight = "in_flight"
	OutcomeFailed   = "failed"
)

// Submit validates the draft, uploads new images, and sends the update. On
// success it releases all previews and navigates to the product list.
func (s *Screen) Submit(ctx context.Context) error {
	st := s.state
	if !st.Ready() {
		return ErrNotLoaded
	}

	s.touchAll()
	s.revalidate()
	st.CategoryError = ""
	st.ImageError = ""
	if len(st.Errors) > 0 {
		s.recorder.RecordSubmission(OutcomeInvalid)
		return ErrInvalidDraft
	}
	if st.ImageCount() == 0 {
		st.ImageError = msgImageRequired
		s.recorder.RecordSubmission(OutcomeNoImages)
		return ErrNoImages
	}

	if s.locker != nil {
		unlock, err := s.locker.TryLock(ctx)
		if err != nil {
			if errors.Is(err, ErrSubmitInFlight) {
				s.notifier.Error(msgSubmitInFlight)
				s.recorder.RecordSubmission(OutcomeInFlight)
			}
			return err
		}
		defer unlock()
	}

	if err := s.send(ctx); err != nil {
		s.logger.Error("update product", slog.String("product_id", st.ProductID), slog.Any("error", err))
		s.notifier.Error(msgUpdateFailed)
		s.recorder.RecordSubmission(OutcomeFailed)
		return err
	}

	s.recorder.RecordSubmission(OutcomeSuccess)
	s.notifier.Success(msgUpdated)
	s.Teardown(ctx)
	st.Done = true
	s.navigator.Navigate(ProductListPath)
	return nil
}

func (s *Screen) send(ctx context.Context) error {
	st := s.state
	images := append([]string(nil), st.ExistingImages...)

	if len(st.SelectedFiles) > 0 {
		files := make([]ImageFile, 0, len(st.SelectedFiles))
		for _, f := range st.SelectedFiles {
			preview, err := s.previews.Open(ctx, f.Handle)
			if err != nil {
				return fmt.Errorf("open preview %s: %w", f.Name, err)
			}
			files = append(files, ImageFile{Name: f.Name, ContentType: f.ContentType, Data: preview.Data})
		}
		refs, err := s.catalog.UploadImages(ctx, files)
		if err != nil {
			return fmt.Errorf("upload images: %w", err)
		}
		s.recorder.RecordUploadedImages(len(refs))
		images = append(images, refs...)
	}

	payload, err := BuildPayload(st.Draft, images)
	if err != nil {
		return err
	}
	if err := s.catalog.UpdateProduct(ctx, st.ProductID, payload); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// BuildPayload converts a validated draft into the update request body.
func BuildPayload(d Draft, images []string) (UpdatePayload, error) {
	taxExclusive, err := parseNumber(d.TaxExclusivePrice)
	if err != nil {
		return UpdatePayload{}, fmt.Errorf("tax exclusive price: %w", err)
	}
	tax, err := parseNumber(d.Tax)
	if err != nil {
		return UpdatePayload{}, fmt.Errorf("tax: %w", err)
	}
	stock, err := parseNumber(d.StockQuantity)
	if err != nil {
		return UpdatePayload{}, fmt.Errorf("stock quantity: %w", err)
	}

	p := UpdatePayload{
		Name:              d.Name,
		Description:       d.Description,
		Price:             ComputeFinalPrice(taxExclusive, tax),
		StockQuantity:     int(stock),
		CategoryID:        d.CategoryID,
		Images:            images,
		Tags:              ParseTags(d.Tags),
		IsOnSale:          d.IsOnSale,
		Barcode:           d.Barcode,
		TaxExclusivePrice: taxExclusive,
		Tax:               tax,
		BannerLabel:       d.BannerLabel,
	}
	if d.IsOnSale {
		discount, err := parseNumber(d.DiscountPrice)
		if err != nil {
			return UpdatePayload{}, fmt.Errorf("discount price: %w", err)
		}
		p.DiscountPrice = &discount
	}
	if strings.TrimSpace(d.LowStockAlert) != "" {
		alert, err := parseNumber(d.LowStockAlert)
		if err != nil {
			return UpdatePayload{}, fmt.Errorf("low stock alert: %w", err)
		}
		n := int(alert)
		p.LowStockAlert = &n
	}
	return p, nil
}
