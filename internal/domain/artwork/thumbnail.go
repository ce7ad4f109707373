// Package artwork resizes catalog cover images for the gallery grid.
package artwork

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // GIF decoder
	"image/jpeg"
	_ "image/png" // PNG decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder
)

// ThumbnailSize represents common thumbnail dimensions.
type ThumbnailSize int

const (
	// ThumbSmall is 150x150 pixels - for list views
	ThumbSmall ThumbnailSize = 150
	// ThumbMedium is 300x300 pixels - for grid views
	ThumbMedium ThumbnailSize = 300
	// ThumbLarge is 500x500 pixels - for detail views
	ThumbLarge ThumbnailSize = 500
)

// ParseSize maps a query value to a supported size, defaulting to medium.
func ParseSize(value string) ThumbnailSize {
	switch value {
	case "small":
		return ThumbSmall
	case "large":
		return ThumbLarge
	default:
		return ThumbMedium
	}
}

// Thumbnailer serves resized cover images from the catalog image root,
// caching encoded thumbnails on disk.
type Thumbnailer struct {
	root     string
	cacheDir string
}

// NewThumbnailer creates a thumbnailer. root is the directory holding the
// catalog's relative cover paths; cacheDir receives encoded thumbnails.
func NewThumbnailer(root, cacheDir string) *Thumbnailer {
	return &Thumbnailer{
		root:     root,
		cacheDir: cacheDir,
	}
}

// Thumbnail returns JPEG bytes for the cover at the given catalog-relative
// path, resized to fit the requested size. Paths escaping the image root
// are rejected.
func (t *Thumbnailer) Thumbnail(coverPath string, size ThumbnailSize) ([]byte, error) {
	if strings.Contains(coverPath, "..") {
		return nil, fmt.Errorf("invalid cover path: %s", coverPath)
	}
	clean := filepath.Clean("/" + coverPath)
	sourcePath := filepath.Join(t.root, clean)

	thumbPath := t.cachePath(clean, size)
	if data, err := os.ReadFile(thumbPath); err == nil {
		return data, nil
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("open cover: %w", err)
	}
	defer src.Close()

	img, format, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}

	log.Debug().
		Str("cover", coverPath).
		Str("format", format).
		Int("size", int(size)).
		Msg("Generating cover thumbnail")

	thumb := resize(img, int(size))

	if err := os.MkdirAll(filepath.Dir(thumbPath), 0755); err != nil {
		return nil, fmt.Errorf("create thumbnail directory: %w", err)
	}
	out, err := os.Create(thumbPath)
	if err != nil {
		return nil, fmt.Errorf("create thumbnail file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return os.ReadFile(thumbPath)
}

func (t *Thumbnailer) cachePath(clean string, size ThumbnailSize) string {
	sum := sha1.Sum([]byte(clean))
	name := fmt.Sprintf("%s_%d.jpg", hex.EncodeToString(sum[:8]), size)
	return filepath.Join(t.cacheDir, "thumbs", name)
}

// resize scales an image to fit within maxSize while keeping aspect ratio.
func resize(src image.Image, maxSize int) image.Image {
	bounds := src.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	if srcW <= maxSize && srcH <= maxSize {
		return src
	}

	var newW, newH int
	if srcW > srcH {
		newW = maxSize
		newH = srcH * maxSize / srcW
	} else {
		newH = maxSize
		newW = srcW * maxSize / srcH
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
