package server

import "github.com/cyclopcam/dbh"

type Config struct {
	DB           dbh.DBConfig  `json:"db"`
	MediaStorage StorageConfig `json:"mediaStorage"`
	MediaFolder  string        `json:"mediaFolder"` // Folder (object name prefix) for media objects. Default "CLASIFICADOR_FRUTAS"
	Model        ModelConfig   `json:"model"`
}

// One of the storage options must be configured (i.e. either 'filesystem' or 'gcs')
type StorageConfig struct {
	Filesystem *StorageConfigFS  `json:"filesystem"`
	GCS        *StorageConfigGCS `json:"gcs"`
}

type StorageConfigFS struct {
	Root string `json:"root"` // Path to the root of the filesystem
}

type StorageConfigGCS struct {
	Bucket string `json:"bucket"` // Name of the GCS bucket. Must be public, so that media URLs resolve for clients
}

// ModelConfig points at the pretrained fruit detection model on disk.
type ModelConfig struct {
	Weights             string  `json:"weights"`             // Path to the ONNX weights file
	Config              string  `json:"config"`              // Path to the model's JSON config (architecture, input size, classes)
	ConfidenceThreshold float32 `json:"confidenceThreshold"` // Detections below this are discarded by the model run. Default 0.4
}

const defaultMediaFolder = "CLASIFICADOR_FRUTAS"
const defaultConfidenceThreshold = 0.4

func (c *Config) applyDefaults() {
	if c.MediaFolder == "" {
		c.MediaFolder = defaultMediaFolder
	}
	if c.Model.ConfidenceThreshold == 0 {
		c.Model.ConfidenceThreshold = defaultConfidenceThreshold
	}
}
