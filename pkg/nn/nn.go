// Package nn is a neural network interface layer.
// To load a model, use the cvdnn package.
package nn

import (
	"encoding/json"
	"os"
)

const DefaultProbabilityThreshold = 0.4
const DefaultNmsIouThreshold = 0.45

// NN object detection parameters
type DetectionParams struct {
	ProbabilityThreshold float32 // Value between 0 and 1. Lower values will find more objects. Zero value will use the default.
	NmsIouThreshold      float32 // Value between 0 and 1. Lower values will merge more objects together into one. Zero value will use the default.
}

// Create a default DetectionParams object
func NewDetectionParams() *DetectionParams {
	return &DetectionParams{
		ProbabilityThreshold: DefaultProbabilityThreshold,
		NmsIouThreshold:      DefaultNmsIouThreshold,
	}
}

// Rect is a bounding box, in the pixel coordinates of the image that was analyzed
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ObjectDetection is an object that a neural network has found in an image
type ObjectDetection struct {
	Class      int     `json:"class"`
	Confidence float32 `json:"confidence"`
	Box        Rect    `json:"box"`
}

// ObjectDetector is given an image, and returns zero or more detected objects
type ObjectDetector interface {
	// Close closes the detector (you MUST call this when finished, because it owns C++ objects underneath)
	Close()

	// DetectObjects returns a list of objects detected in the image.
	// The image is a 24-bit RGB image. Objects below params.ProbabilityThreshold
	// are excluded by the inference run itself, not filtered afterwards.
	DetectObjects(img ImageRGB, params *DetectionParams) ([]ObjectDetection, error)

	// Model Config.
	// Callers assume that ModelConfig will remain constant, so don't change it
	// once the detector has been created.
	Config() *ModelConfig
}

// ModelConfig is saved in a JSON file along with the weights of the NN model
type ModelConfig struct {
	Architecture string   `json:"architecture"` // eg "yolov8"
	Width        int      `json:"width"`        // eg 640
	Height       int      `json:"height"`       // eg 640
	Classes      []string `json:"classes"`      // eg ["manzana", "banana", ...]
}

// Load model config from a JSON file
func LoadModelConfig(filename string) (*ModelConfig, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	config := &ModelConfig{}
	if err := json.Unmarshal(b, config); err != nil {
		return nil, err
	}
	return config, nil
}

// ClassName returns the name of the given class index, or "" if out of range.
func (c *ModelConfig) ClassName(class int) string {
	if class < 0 || class >= len(c.Classes) {
		return ""
	}
	return c.Classes[class]
}

// ImageRGB is a tightly packed 24-bit RGB image.
type ImageRGB struct {
	Width  int
	Height int
	Pixels []byte // len = Width * Height * 3
}

func WholeImage(pixels []byte, width, height int) ImageRGB {
	return ImageRGB{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}
