// Package media models the in-memory image batch handed to the publish and
// upload pipelines.
package media

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrImageEncoding is returned for payloads that are not JPEG or PNG images.
var ErrImageEncoding = errors.New("unsupported or corrupt image payload")

// maxUploadMemory bounds in-memory buffering of multipart uploads.
const maxUploadMemory = 32 << 20

// Item is one image of a submitted batch, with its ordinal position.
type Item struct {
	Index       int
	Filename    string
	ContentType string
	Data        []byte
}

// NewItem validates the payload by sniffing its content and builds an Item.
func NewItem(index int, filename string, data []byte) (Item, error) {
	if len(data) == 0 {
		return Item{}, fmt.Errorf("%w: empty payload", ErrImageEncoding)
	}
	contentType := http.DetectContentType(data)
	switch contentType {
	case "image/jpeg", "image/png":
	default:
		return Item{}, fmt.Errorf("%w: detected %s", ErrImageEncoding, contentType)
	}
	return Item{Index: index, Filename: filename, ContentType: contentType, Data: data}, nil
}

// Ext returns the file extension matching the sniffed content type.
func (i Item) Ext() string {
	if i.ContentType == "image/png" {
		return ".png"
	}
	return ".jpg"
}

// ItemsFromMultipart reads the "images" files of a multipart request into an
// ordered batch. Order of the parts is preserved as the batch order.
func ItemsFromMultipart(r *http.Request) ([]Item, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		return nil, errors.New("request carries no images")
	}

	items := make([]Item, 0, len(files))
	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %d: %w", i, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %d: %w", i, err)
		}

		item, err := NewItem(i, fh.Filename, data)
		if err != nil {
			return nil, fmt.Errorf("part %d (%s): %w", i, fh.Filename, err)
		}
		items = append(items, item)
	}
	return items, nil
}
