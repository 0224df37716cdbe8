package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// Image is decoded-ready image bytes with their detected MIME type.
type Image struct {
	Data        []byte
	MIME        string
	Placeholder bool
}

// ImageSource loads an image by reference (URL or stored key).
type ImageSource interface {
	Fetch(ctx context.Context, ref string) (Image, error)
}

// DefaultCacheSize bounds the images kept for one render.
const DefaultCacheSize = 64

// ImageCache memoizes fetches for the duration of one render. A failed fetch
// is cached as the placeholder so a broken reference is tried once.
type ImageCache struct {
	source ImageSource
	cache  *lru.Cache[string, Image]
	log    zerolog.Logger

	mu           sync.Mutex
	fetched      int
	placeholders int
}

// NewImageCache creates a cache over source. A nil source yields placeholders
// for every reference.
func NewImageCache(source ImageSource, size int, log zerolog.Logger) (*ImageCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, Image](size)
	if err != nil {
		return nil, err
	}
	return &ImageCache{source: source, cache: cache, log: log}, nil
}

// Get returns the image for ref, or the placeholder. It never fails.
func (c *ImageCache) Get(ctx context.Context, ref string) Image {
	if img, ok := c.cache.Get(ref); ok {
		return img
	}
	img := c.fetch(ctx, ref)
	c.cache.Add(ref, img)

	c.mu.Lock()
	if img.Placeholder {
		c.placeholders++
	} else {
		c.fetched++
	}
	c.mu.Unlock()
	return img
}

func (c *ImageCache) fetch(ctx context.Context, ref string) Image {
	if c.source == nil || ref == "" {
		return Placeholder()
	}
	img, err := c.source.Fetch(ctx, ref)
	if err != nil || len(img.Data) == 0 {
		c.log.Warn().Err(err).Str("image", ref).Msg("image unavailable, using placeholder")
		return Placeholder()
	}
	return img
}

// Counts reports how many distinct references were fetched and how many fell
// back to the placeholder.
func (c *ImageCache) Counts() (fetched, placeholders int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetched, c.placeholders
}

var (
	placeholderOnce sync.Once
	placeholderPNG  []byte
)

// Placeholder is a flat grey PNG drawn where an image cannot be loaded.
func Placeholder() Image {
	placeholderOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, 16, 9))
		grey := color.RGBA{R: 0xd9, G: 0xdc, B: 0xe1, A: 0xff}
		for y := 0; y < 9; y++ {
			for x := 0; x < 16; x++ {
				img.Set(x, y, grey)
			}
		}
		var buf bytes.Buffer
		_ = png.Encode(&buf, img)
		placeholderPNG = buf.Bytes()
	})
	return Image{Data: placeholderPNG, MIME: "image/png", Placeholder: true}
}
