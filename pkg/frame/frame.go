package frame

import "image"

// Decoder turns one raw frame from a driver into an image. The returned func
// releases any buffer the image still references.
type Decoder interface {
	Decode(frame []byte, width, height int) (image.Image, func(), error)
}

// DecoderFunc is a proxy type for Decoder
type DecoderFunc func(frame []byte, width, height int) (image.Image, func(), error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(frame []byte, width, height int) (image.Image, func(), error) {
	return f(frame, width, height)
}
