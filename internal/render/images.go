package render

import (
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
)

var (
	// ErrNotDataURI indicates an image field value without a data URI payload.
	ErrNotDataURI = errors.New("image value is not a data URI")
	// ErrDecode indicates an image payload that could not be decoded.
	ErrDecode = errors.New("image decode failed")
)

const (
	formatPNG  = "PNG"
	formatJPEG = "JPG"
)

// Picture is a decoded image ready to be placed on a page.
type Picture struct {
	Name   string
	Format string
	Data   []byte
	Width  int
	Height int
}

// DecodeDataURI decodes the base64 payload following the first comma of a
// data URI. The declared MIME type selects the decoder; when none is declared
// PNG is tried first, then JPEG. PNG input is re-encoded so that interlaced
// and 16-bit variants reach the PDF writer in a form it accepts.
func DecodeDataURI(value string) (*Picture, error) {
	idx := strings.IndexByte(value, ',')
	if idx < 0 {
		return nil, ErrNotDataURI
	}

	header := strings.ToLower(value[:idx])
	raw, err := decodeBase64(value[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	name := pictureName(raw)

	switch {
	case strings.Contains(header, "png"):
		return decodePNG(name, raw)
	case strings.Contains(header, "jpeg"), strings.Contains(header, "jpg"):
		return decodeJPEG(name, raw)
	}

	if pic, err := decodePNG(name, raw); err == nil {
		return pic, nil
	}
	return decodeJPEG(name, raw)
}

func decodePNG(name string, raw []byte) (*Picture, error) {
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: png: %v", ErrDecode, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: png re-encode: %v", ErrDecode, err)
	}

	return picture(name, formatPNG, buf.Bytes(), img), nil
}

func decodeJPEG(name string, raw []byte) (*Picture, error) {
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: jpeg: %v", ErrDecode, err)
	}
	return picture(name, formatJPEG, raw, img), nil
}

func picture(name, format string, data []byte, img image.Image) *Picture {
	b := img.Bounds()
	return &Picture{
		Name:   name,
		Format: format,
		Data:   data,
		Width:  b.Dx(),
		Height: b.Dy(),
	}
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)

	if raw, err := base64.StdEncoding.DecodeString(s); err == nil {
		return raw, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func pictureName(raw []byte) string {
	sum := sha1.Sum(raw)
	return "img-" + hex.EncodeToString(sum[:])
}
