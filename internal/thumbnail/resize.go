package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"

	_ "image/gif"
	_ "image/png"

	"github.com/agersant/polaris/internal/apperr"
	"github.com/agersant/polaris/internal/tagreader"
	"github.com/nfnt/resize"
)

// jpegQuality is fixed at 80 for every produced thumbnail, matching the
// required output format.
const jpegQuality = 80

// FileDecoder is the production Decoder: it reads an image file from
// disk, resizes it with Lanczos3, optionally letterbox-pads it to an
// exact square, and re-encodes as JPEG. image/draw and image/jpeg are
// stdlib here because no pack library offers a simpler resize-then-encode
// primitive than nfnt/resize (already used for the resize step) plus the
// two-call stdlib pipeline for the padding canvas and JPEG encode.
type FileDecoder struct{}

func (FileDecoder) Decode(realPath string, size SizeClass, pad bool) ([]byte, error) {
	src, err := decodeSource(realPath)
	if err != nil {
		return nil, err
	}

	out := src
	if size != Native {
		dim := uint(size)
		out = resize.Thumbnail(dim, dim, src, resize.Lanczos3)
		if pad {
			out = letterbox(out, int(dim))
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "encode thumbnail jpeg", err)
	}
	return buf.Bytes(), nil
}

// decodeSource opens realPath as a standalone image file, falling back to
// extracting an audio file's embedded picture frame when the path names a
// song rather than an adjacent art file. This is how artwork resolved from
// an "embedded:<song_virtual_path>" reference reaches the resize
// pipeline: the caller always passes the real file path, and this
// function decides which decode path applies.
func decodeSource(realPath string) (image.Image, error) {
	if tagreader.IsSupported(realPath) {
		result, err := tagreader.Read(realPath)
		if err != nil {
			return nil, apperr.Wrap(apperr.Unsupported, "read embedded artwork", err)
		}
		if len(result.EmbeddedPicture) == 0 {
			return nil, apperr.New(apperr.NotFound, "song has no embedded artwork")
		}
		img, _, err := image.Decode(bytes.NewReader(result.EmbeddedPicture))
		if err != nil {
			return nil, apperr.Wrap(apperr.Unsupported, "embedded artwork is not a decodable image", err)
		}
		return img, nil
	}

	f, err := os.Open(realPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.NotFound, "source image not found", err)
		}
		return nil, apperr.Wrap(apperr.IO, "open source image", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unsupported, "source is not a decodable image", err)
	}
	return img, nil
}

// letterbox centers img on a black square canvas of side dim.
func letterbox(img image.Image, dim int) image.Image {
	canvas := image.NewRGBA(image.Rect(0, 0, dim, dim))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)

	b := img.Bounds()
	offsetX := (dim - b.Dx()) / 2
	offsetY := (dim - b.Dy()) / 2
	dstRect := image.Rect(offsetX, offsetY, offsetX+b.Dx(), offsetY+b.Dy())
	draw.Draw(canvas, dstRect, img, b.Min, draw.Src)
	return canvas
}
