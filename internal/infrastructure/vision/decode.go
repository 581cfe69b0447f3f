//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
)

// tileMeans декодирует JPEG/PNG и считает средний цвет каждой из восьми плиток
func tileMeans(imageData []byte) ([gridRows * gridCols]rgb, error) {
	var means [gridRows * gridCols]rgb

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return means, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	tileW, tileH, err := tileBounds(b.Dx(), b.Dy())
	if err != nil {
		return means, err
	}

	for row := 0; row < gridRows; row++ {
		for col := 0; col < gridCols; col++ {
			x0 := b.Min.X + col*tileW
			y0 := b.Min.Y + row*tileH

			var r, g, bl float64
			for y := y0; y < y0+tileH; y++ {
				for x := x0; x < x0+tileW; x++ {
					c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
					r += float64(c.R)
					g += float64(c.G)
					bl += float64(c.B)
				}
			}

			n := float64(tileW * tileH)
			means[row*gridCols+col] = rgb{R: r / n, G: g / n, B: bl / n}
		}
	}
	return means, nil
}
