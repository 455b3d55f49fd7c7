package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/frutero/frutero/pkg/cvdnn"
	"github.com/frutero/frutero/pkg/nn"
	"github.com/frutero/frutero/server/storage"
	"github.com/julienschmidt/httprouter"
	"gorm.io/gorm"
)

type annotateFunc func(img nn.ImageRGB, detections []nn.ObjectDetection, config *nn.ModelConfig) ([]byte, error)

type Server struct {
	HotReloadWWW bool
	Log          logs.Log
	DB           *gorm.DB

	signalIn   chan os.Signal
	httpServer *http.Server
	httpRouter *httprouter.Router

	detector            nn.ObjectDetector
	annotate            annotateFunc
	storage             storage.Storage
	mediaFolder         string
	confidenceThreshold float32
}

func NewServer(configFile string, hotReloadWWW bool) (*Server, error) {
	cfg := Config{}
	if cfgB, err := os.ReadFile(configFile); err != nil {
		return nil, err
	} else {
		if err := json.Unmarshal(cfgB, &cfg); err != nil {
			return nil, fmt.Errorf("Error parsing config file %v: %w", configFile, err)
		}
	}
	cfg.applyDefaults()
	logger, err := logs.NewLog()
	if err != nil {
		return nil, err
	}
	db, err := openDB(logger, cfg.DB, 0)
	if err != nil {
		return nil, err
	}

	// Open blob store
	var storageServer storage.Storage
	if cfg.MediaStorage.GCS != nil {
		// Google Cloud Storage
		storageServer, err = storage.NewStorageGCS(logger, cfg.MediaStorage.GCS.Bucket)
		if err != nil {
			return nil, err
		}
	} else if cfg.MediaStorage.Filesystem != nil {
		// Filesystem
		storageServer, err = storage.NewStorageFS(logger, cfg.MediaStorage.Filesystem.Root, "/media")
		if err != nil {
			return nil, err
		}
	} else {
		return nil, fmt.Errorf("One of the storage options must be configured (i.e. either 'filesystem' or 'gcs')")
	}

	// Load the pretrained detection model. A missing model file is fatal.
	modelConfig, err := nn.LoadModelConfig(cfg.Model.Config)
	if err != nil {
		return nil, fmt.Errorf("Failed to load model config: %w", err)
	}
	detector, err := cvdnn.NewDetector(modelConfig, cfg.Model.Weights)
	if err != nil {
		return nil, err
	}
	logger.Infof("Loaded model %v (%v classes)", cfg.Model.Weights, len(modelConfig.Classes))

	return newServer(logger, db, detector, storageServer, cfg.MediaFolder, cfg.Model.ConfidenceThreshold, hotReloadWWW)
}

// newServer wires up a Server from its parts. Tests use this directly, with a
// fake detector and a filesystem blob store.
// hotReloadWWW must be known here, because setupHttpRoutes bakes it into the
// static file server.
func newServer(logger logs.Log, db *gorm.DB, detector nn.ObjectDetector, storageServer storage.Storage, mediaFolder string, confidenceThreshold float32, hotReloadWWW bool) (*Server, error) {
	s := &Server{
		HotReloadWWW:        hotReloadWWW,
		Log:                 logger,
		DB:                  db,
		detector:            detector,
		annotate:            cvdnn.Annotate,
		storage:             storageServer,
		mediaFolder:         mediaFolder,
		confidenceThreshold: confidenceThreshold,
	}
	if err := s.setupHttpRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// port example: ":8080"
func (s *Server) ListenHTTP(port string) error {
	s.Log.Infof("Listening on %v", port)
	s.httpServer = &http.Server{
		Addr:    port,
		Handler: s.httpRouter,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) ListenForKillSignals() {
	s.signalIn = make(chan os.Signal, 1)
	signal.Notify(s.signalIn, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig, ok := <-s.signalIn
		if ok {
			s.Log.Infof("Received OS signal '%v'. Shutting down", sig.String())
			s.Shutdown()
		}
	}()
}

func (s *Server) Shutdown() {
	s.Log.Infof("Shutdown")
	signal.Stop(s.signalIn)
	close(s.signalIn)
	s.Log.Infof("Closing HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.Log.Warnf("Shutdown complete, with error: %v", err)
	} else {
		s.Log.Infof("Shutdown complete")
	}
	s.detector.Close()
	s.Log.Close()
}
