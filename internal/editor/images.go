package editor

import (
	"context"
	"log/slog"
	"slices"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageBytes is the per file size ceiling for new images (5 MB).
const MaxImageBytes int64 = 5 * 1024 * 1024

// AcceptedImageTypes are the content types accepted for new images.
var AcceptedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/bmp", "image/webp"}

// AcceptedImageExtensions mirror AcceptedImageTypes for file pickers.
var AcceptedImageExtensions = []string{".jpeg", ".jpg", ".png", ".gif", ".bmp", ".webp"}

// RejectReason explains why a file was not added.
type RejectReason string

const (
	RejectUnsupportedType RejectReason = "Unsupported file type."
	RejectTooLarge        RejectReason = "File is too large."
)

// Code is a stable identifier for metrics and logs.
func (r RejectReason) Code() string {
	switch r {
	case RejectTooLarge:
		return "too_large"
	case RejectUnsupportedType:
		return "unsupported_type"
	}
	return "unknown"
}

// Upload is a file picked by the user. Size is the declared size; Data may be
// truncated for files above the ceiling.
type Upload struct {
	Name string
	Size int64
	Data []byte
}

// Rejection reports a file that was not added.
type Rejection struct {
	Name   string
	Reason RejectReason
}

// CheckImage validates an upload against the size ceiling and the accepted
// types. It returns the detected content type.
func CheckImage(u Upload) (string, RejectReason, bool) {
	size := u.Size
	if int64(len(u.Data)) > size {
		size = int64(len(u.Data))
	}
	if size > MaxImageBytes {
		return "", RejectTooLarge, false
	}
	mtype := mimetype.Detect(u.Data)
	if !mimetype.EqualsAny(mtype.String(), AcceptedImageTypes...) {
		return "", RejectUnsupportedType, false
	}
	return mtype.String(), "", true
}

// AddFiles appends accepted uploads to the selection, each with its own
// preview handle. Rejected uploads are returned with their reason.
func (s *Screen) AddFiles(ctx context.Context, uploads []Upload) ([]Rejection, error) {
	if !s.state.Ready() {
		return nil, ErrNotLoaded
	}
	var rejected []Rejection
	for _, u := range uploads {
		contentType, reason, ok := CheckImage(u)
		if !ok {
			s.recorder.RecordRejectedFile(reason.Code())
			rejected = append(rejected, Rejection{Name: u.Name, Reason: reason})
			continue
		}
		handle, err := s.previews.Acquire(ctx, Preview{Name: u.Name, ContentType: contentType, Data: u.Data})
		if err != nil {
			s.logger.Error("stage image preview", slog.String("file", u.Name), slog.Any("error", err))
			s.notifier.Error(msgImageStageFailed)
			return rejected, err
		}
		s.state.SelectedFiles = append(s.state.SelectedFiles, SelectedFile{
			Handle:      handle,
			Name:        u.Name,
			ContentType: contentType,
			Size:        int64(len(u.Data)),
		})
		s.state.ImageError = ""
	}
	return rejected, nil
}

// RemoveExisting deletes an attached image from storage and drops it from
// the list. On failure the list is left untouched.
func (s *Screen) RemoveExisting(ctx context.Context, ref string) error {
	if !slices.Contains(s.state.ExistingImages, ref) {
		return ErrUnknownImage
	}
	if err := s.images.DeleteImage(ctx, ref); err != nil {
		s.logger.Error("delete image", slog.String("ref", ref), slog.Any("error", err))
		s.notifier.Error(msgImageDeleteFailed)
		return err
	}
	s.state.ExistingImages = slices.DeleteFunc(s.state.ExistingImages, func(r string) bool { return r == ref })
	s.notifier.Success(msgImageDeleted)
	return nil
}

// RemoveSelected drops a local selection and releases its preview handle.
func (s *Screen) RemoveSelected(ctx context.Context, handle string) error {
	idx := slices.IndexFunc(s.state.SelectedFiles, func(f SelectedFile) bool { return f.Handle == handle })
	if idx < 0 {
		return ErrUnknownImage
	}
	s.state.SelectedFiles = slices.Delete(s.state.SelectedFiles, idx, idx+1)
	s.state.ImageError = ""
	s.release(ctx, handle)
	return nil
}

// Teardown releases every remaining preview handle and empties the selection.
func (s *Screen) Teardown(ctx context.Context) {
	for _, f := range s.state.SelectedFiles {
		s.release(ctx, f.Handle)
	}
	s.state.SelectedFiles = nil
}

func (s *Screen) release(ctx context.Context, handle string) {
	if s.previews == nil {
		return
	}
	if err := s.previews.Release(ctx, handle); err != nil {
		s.logger.Warn("release image preview", slog.String("handle", handle), slog.Any("error", err))
	}
}
