package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"iter"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fabianshop/storefront/pkg/media"
)

// EncodeImageFile reads an image and returns it as an upload request whose
// filename is the base name without extension.
func EncodeImageFile(path string) (media.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return media.Request{}, fmt.Errorf("failed to read image: %w", err)
	}
	return EncodeImage(filepath.Base(path), data)
}

// EncodeImage builds a data URI from raw image bytes.
func EncodeImage(name string, data []byte) (media.Request, error) {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return media.Request{}, fmt.Errorf("%w: %s is %s", media.ErrUnsupportedFormat, name, mime)
	}
	return media.Request{
		Image:    "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
		Filename: strings.TrimSuffix(name, filepath.Ext(name)),
	}, nil
}

// Upload is one entry of a batch upload.
type Upload struct {
	Path   string
	Result media.Result
}

// UploadImages encodes and uploads files one at a time, in order. The
// sequence stops after the first error. progress may be nil.
func (c *Client) UploadImages(ctx context.Context, files []string, progress media.Progress) iter.Seq2[Upload, error] {
	return func(yield func(Upload, error) bool) {
		reqs := make([]media.Request, 0, len(files))
		for _, f := range files {
			req, err := EncodeImageFile(f)
			if err != nil {
				yield(Upload{Path: f}, err)
				return
			}
			reqs = append(reqs, req)
		}

		i := 0
		for res, err := range media.Sequence(ctx, c, reqs, progress) {
			if !yield(Upload{Path: files[i], Result: res}, err) || err != nil {
				return
			}
			i++
		}
	}
}
