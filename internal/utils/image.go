package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

// ResizeImage decodes an image and scales it down to fit maxWidth x maxHeight,
// keeping its aspect ratio. Smaller images are returned unchanged.
func ResizeImage(r io.Reader, filename string, maxWidth, maxHeight uint) (image.Image, error) {
	img, err := decodeImage(r, filename)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width := uint(bounds.Dx())
	height := uint(bounds.Dy())

	if width <= maxWidth && height <= maxHeight {
		return img, nil
	}

	widthRatio := float64(maxWidth) / float64(width)
	heightRatio := float64(maxHeight) / float64(height)

	var newWidth, newHeight uint
	if widthRatio < heightRatio {
		newWidth = maxWidth
		newHeight = uint(float64(height) * widthRatio)
	} else {
		newWidth = uint(float64(width) * heightRatio)
		newHeight = maxHeight
	}

	return resize.Resize(newWidth, newHeight, img, resize.Lanczos3), nil
}

// ProcessCourseImage resizes an uploaded course image and re-encodes it.
// PNG stays PNG, everything else becomes JPEG.
func ProcessCourseImage(r io.Reader, filename string, maxWidth, maxHeight uint) ([]byte, string, error) {
	img, err := ResizeImage(r, filename, maxWidth, maxHeight)
	if err != nil {
		return nil, "", err
	}

	format, contentType := "jpeg", "image/jpeg"
	if strings.ToLower(filepath.Ext(filename)) == ".png" {
		format, contentType = "png", "image/png"
	}

	var buf bytes.Buffer
	if err := EncodeImage(img, format, &buf, 85); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), contentType, nil
}

func decodeImage(r io.Reader, filename string) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Decode(r)
	case ".png":
		return png.Decode(r)
	default:
		return nil, ErrUnsupportedImage
	}
}

func EncodeImage(img image.Image, format string, writer io.Writer, quality int) error {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
	case "png":
		return png.Encode(writer, img)
	default:
		return ErrUnsupportedImage
	}
}

func IsValidImageFormat(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, format := range AllowedImageTypes {
		if ext == format {
			return true
		}
	}
	return false
}
