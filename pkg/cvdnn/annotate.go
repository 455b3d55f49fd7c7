package cvdnn

import (
	"fmt"
	"image"
	"image/color"

	"github.com/frutero/frutero/pkg/nn"
	"gocv.io/x/gocv"
)

var boxColor = color.RGBA{R: 0, G: 200, B: 40, A: 0}

// Annotate draws labeled bounding boxes onto a copy of the image, and returns
// the result as JPEG bytes.
func Annotate(img nn.ImageRGB, detections []nn.ObjectDetection, config *nn.ModelConfig) ([]byte, error) {
	mat, err := rgbToMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	for _, det := range detections {
		rect := image.Rect(det.Box.X, det.Box.Y, det.Box.X+det.Box.Width, det.Box.Y+det.Box.Height)
		gocv.Rectangle(&mat, rect, boxColor, 2)
		label := fmt.Sprintf("%v %.2f", config.ClassName(det.Class), det.Confidence)
		origin := image.Pt(det.Box.X, max(det.Box.Y-6, 12))
		gocv.PutText(&mat, label, origin, gocv.FontHersheySimplex, 0.6, boxColor, 2)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	jpg := make([]byte, len(buf.GetBytes()))
	copy(jpg, buf.GetBytes())
	return jpg, nil
}
