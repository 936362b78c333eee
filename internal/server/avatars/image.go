// Package avatars stores profile pictures on an S3-compatible object store.
// Uploaded images are normalized to a fixed-size square JPEG before storage
// so every avatar URL serves the same dimensions.
package avatars

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	// AvatarSize is the edge length of the stored square avatar in pixels.
	AvatarSize = 250

	jpegQuality = 85
)

// normalize decodes data (jpeg, png or gif), center-crops it to a square,
// scales it to AvatarSize and re-encodes it as JPEG.
func normalize(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	square := centerCrop(src)

	dst := image.NewRGBA(image.Rect(0, 0, AvatarSize, AvatarSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), square, square.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

// centerCrop returns the largest centered square region of src.
func centerCrop(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == h {
		return src
	}

	side := w
	if h < side {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2
	rect := image.Rect(x0, y0, x0+side, y0+side)

	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if s, ok := src.(subImager); ok {
		return s.SubImage(rect)
	}

	cropped := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Copy(cropped, image.Point{}, src, rect, draw.Src, nil)
	return cropped
}
