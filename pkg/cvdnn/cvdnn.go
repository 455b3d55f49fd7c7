// Package cvdnn implements nn.ObjectDetector on top of the OpenCV DNN module,
// for running a pretrained YOLOv8-style ONNX model on the CPU.
package cvdnn

import (
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/frutero/frutero/pkg/nn"
	"gocv.io/x/gocv"
)

type Detector struct {
	config *nn.ModelConfig

	// A gocv.Net forward pass is not safe for concurrent use, so every
	// inference run holds this lock for its duration.
	lock sync.Mutex
	net  gocv.Net
}

// NewDetector loads a pretrained ONNX model from disk.
// A missing or unreadable model file is an error, which callers treat as fatal at startup.
func NewDetector(config *nn.ModelConfig, modelFilename string) (*Detector, error) {
	if _, err := os.Stat(modelFilename); err != nil {
		return nil, fmt.Errorf("Model file %v not found: %w", modelFilename, err)
	}
	net := gocv.ReadNetFromONNX(modelFilename)
	if net.Empty() {
		return nil, fmt.Errorf("Failed to load model %v", modelFilename)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		return nil, err
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		return nil, err
	}
	return &Detector{
		config: config,
		net:    net,
	}, nil
}

func (d *Detector) Close() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.net.Close()
}

func (d *Detector) Config() *nn.ModelConfig {
	return d.config
}

// DetectObjects runs one inference pass.
// Boxes are returned in the coordinate frame of the input image, and anything
// below params.ProbabilityThreshold never makes it out of this function.
func (d *Detector) DetectObjects(img nn.ImageRGB, params *nn.DetectionParams) ([]nn.ObjectDetection, error) {
	if len(img.Pixels) != img.Width*img.Height*3 {
		return nil, fmt.Errorf("Invalid RGB image buffer: %v bytes for %vx%v", len(img.Pixels), img.Width, img.Height)
	}
	probThreshold := params.ProbabilityThreshold
	if probThreshold == 0 {
		probThreshold = nn.DefaultProbabilityThreshold
	}
	nmsThreshold := params.NmsIouThreshold
	if nmsThreshold == 0 {
		nmsThreshold = nn.DefaultNmsIouThreshold
	}

	mat, err := rgbToMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(d.config.Width, d.config.Height), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.lock.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.lock.Unlock()
	defer output.Close()

	return d.decodeYolo(output, img.Width, img.Height, probThreshold, nmsThreshold)
}

// decodeYolo decodes a YOLOv8 output tensor of shape [1, 4+nClasses, nBoxes].
// Rows 0..3 are cx,cy,w,h in model coordinates, the remaining rows are
// per-class probabilities.
func (d *Detector) decodeYolo(output gocv.Mat, imgWidth, imgHeight int, probThreshold, nmsThreshold float32) ([]nn.ObjectDetection, error) {
	nRows := 4 + len(d.config.Classes)
	flat := output.Reshape(1, nRows)
	defer flat.Close()
	nBoxes := flat.Cols()

	scaleX := float32(imgWidth) / float32(d.config.Width)
	scaleY := float32(imgHeight) / float32(d.config.Height)

	boxes := []image.Rectangle{}
	scores := []float32{}
	classes := []int{}
	for i := 0; i < nBoxes; i++ {
		bestClass := -1
		bestScore := float32(0)
		for c := 0; c < len(d.config.Classes); c++ {
			score := flat.GetFloatAt(4+c, i)
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		if bestClass == -1 || bestScore < probThreshold {
			continue
		}
		cx := flat.GetFloatAt(0, i) * scaleX
		cy := flat.GetFloatAt(1, i) * scaleY
		w := flat.GetFloatAt(2, i) * scaleX
		h := flat.GetFloatAt(3, i) * scaleY
		boxes = append(boxes, image.Rect(int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2)))
		scores = append(scores, bestScore)
		classes = append(classes, bestClass)
	}

	detections := []nn.ObjectDetection{}
	for _, idx := range gocv.NMSBoxes(boxes, scores, probThreshold, nmsThreshold) {
		box := boxes[idx]
		detections = append(detections, nn.ObjectDetection{
			Class:      classes[idx],
			Confidence: scores[idx],
			Box: nn.Rect{
				X:      box.Min.X,
				Y:      box.Min.Y,
				Width:  box.Dx(),
				Height: box.Dy(),
			},
		})
	}
	return detections, nil
}

// rgbToMat wraps a packed RGB buffer as a BGR Mat (OpenCV's native ordering).
func rgbToMat(img nn.ImageRGB) (gocv.Mat, error) {
	rgb, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC3, img.Pixels)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer rgb.Close()
	bgr := gocv.NewMat()
	if err := gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR); err != nil {
		bgr.Close()
		return gocv.Mat{}, err
	}
	return bgr, nil
}
