// Package thumbnail shrinks meal photos before they are uploaded or sent
// off for analysis.
package thumbnail

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// MaxDim bounds the longer side of a thumbnail.
	MaxDim = 512

	jpegQuality = 80
)

// Make decodes an image, applies the EXIF orientation, fits it inside
// MaxDim x MaxDim and re-encodes it as JPEG.
func Make(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	thumb := imaging.Fit(img, MaxDim, MaxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}
