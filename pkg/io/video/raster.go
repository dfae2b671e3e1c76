package video

import (
	"image"

	"golang.org/x/image/draw"
)

// Rasterize draws src into a newly allocated RGBA buffer with the same bounds.
// The result shares no memory with src.
func Rasterize(src image.Image) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

// Thumbnail scales src down so that its width is at most maxWidth, keeping the
// aspect ratio. Images that are already small enough are rasterized as they are.
func Thumbnail(src image.Image, maxWidth int) *image.RGBA {
	b := src.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return Rasterize(src)
	}

	height := b.Dy() * maxWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
