// Package imagefetch downloads slide images for the local renderer.
package imagefetch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"

	"github.com/janhq/deck-server/internal/domain/render"
)

// DefaultMaxBytes bounds one image.
const DefaultMaxBytes = 10 << 20

var (
	// ErrUnsupported is returned for references that are neither http(s) URLs
	// nor data URIs.
	ErrUnsupported = errors.New("unsupported image reference")
	// ErrTooLarge is returned when an image exceeds the size limit.
	ErrTooLarge = errors.New("image exceeds size limit")
	// ErrNotImage is returned when the bytes are not a drawable image.
	ErrNotImage = errors.New("content is not a supported image")
)

var drawable = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// Observer counts fetch outcomes.
type Observer interface {
	ObserveImageFetch(outcome string)
}

// Fetcher implements render.ImageSource over HTTP.
type Fetcher struct {
	httpClient *resty.Client
	maxBytes   int64
	observer   Observer
}

// New creates a fetcher.
func New(timeout time.Duration, maxBytes int64, observer Observer) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		httpClient: resty.New().
			SetTimeout(timeout).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
			SetHeader("Accept", "image/png,image/jpeg,image/gif;q=0.9,*/*;q=0.1"),
		maxBytes: maxBytes,
		observer: observer,
	}
}

// Fetch loads ref and checks it is an image the renderer can draw.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (render.Image, error) {
	img, err := f.fetch(ctx, ref)
	if f.observer != nil {
		f.observer.ObserveImageFetch(outcome(err))
	}
	return img, err
}

func (f *Fetcher) fetch(ctx context.Context, ref string) (render.Image, error) {
	ref = strings.TrimSpace(ref)
	var data []byte
	var err error
	switch {
	case strings.HasPrefix(ref, "data:"):
		data, err = decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		data, err = f.download(ctx, ref)
	default:
		return render.Image{}, fmt.Errorf("%w: %q", ErrUnsupported, ref)
	}
	if err != nil {
		return render.Image{}, err
	}
	if int64(len(data)) > f.maxBytes {
		return render.Image{}, ErrTooLarge
	}
	mime := mimetype.Detect(data).String()
	if !drawable[mime] {
		return render.Image{}, fmt.Errorf("%w: %s", ErrNotImage, mime)
	}
	return render.Image{Data: data, MIME: mime}, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.httpClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.IsError() {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode())
	}
	data, err := io.ReadAll(io.LimitReader(body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

func decodeDataURI(ref string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data uri", ErrUnsupported)
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: data uri is not base64", ErrUnsupported)
	}
	return base64.StdEncoding.DecodeString(payload)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	case errors.Is(err, ErrNotImage):
		return "not_image"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	default:
		return "error"
	}
}

var _ render.ImageSource = (*Fetcher)(nil)
