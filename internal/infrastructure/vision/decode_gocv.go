//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// tileMeans декодирует изображение через OpenCV и считает средний цвет плиток
func tileMeans(imageData []byte) ([gridRows * gridCols]rgb, error) {
	var means [gridRows * gridCols]rgb

	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err != nil {
		return means, fmt.Errorf("decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return means, errors.New("decode image: empty result")
	}

	tileW, tileH, err := tileBounds(mat.Cols(), mat.Rows())
	if err != nil {
		return means, err
	}

	for row := 0; row < gridRows; row++ {
		for col := 0; col < gridCols; col++ {
			rect := image.Rect(col*tileW, row*tileH, (col+1)*tileW, (row+1)*tileH)
			tile := mat.Region(rect)
			s := tile.Mean()
			tile.Close()

			// OpenCV хранит каналы в порядке BGR
			means[row*gridCols+col] = rgb{R: s.Val3, G: s.Val2, B: s.Val1}
		}
	}
	return means, nil
}
