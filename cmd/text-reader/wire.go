package main

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/text-reader/internal/capture"
	"github.com/ironsheep/text-reader/internal/config"
	"github.com/ironsheep/text-reader/internal/detection"
	"github.com/ironsheep/text-reader/internal/imaging"
	"github.com/ironsheep/text-reader/internal/ocr"
	"github.com/ironsheep/text-reader/internal/pipeline"
	"github.com/ironsheep/text-reader/internal/speech"
)

func newSource(cfg *config.Config) capture.Source {
	return capture.NewFileSource(cfg.CapturePath, cfg.CaptureRotation, cfg.CaptureMirror)
}

// newDetector returns the configured detector and a function releasing it.
func newDetector(cfg *config.Config, log logrus.FieldLogger) (detection.Detector, func(), error) {
	switch cfg.Detector {
	case "heuristic":
		return detection.NewTextDetector(cfg.DetectorMinConfidence), func() {}, nil
	case "remote":
		d := detection.NewRemoteDetector(cfg.DetectorURL, log)
		return d, func() { d.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown detector: %s", cfg.Detector)
	}
}

func newRecognizer(cfg *config.Config) (ocr.Recognizer, error) {
	switch cfg.Recognizer {
	case "tesseract":
		t, err := ocr.NewTesseract(cfg.OCRLanguage, cfg.TessdataPrefix)
		if errors.Is(err, ocr.ErrOCRNotEnabled) {
			return nil, fmt.Errorf("tesseract is not available in this build, set READER_RECOGNIZER=rekognition: %w", err)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tesseract: %w", err)
		}
		return t, nil
	case "rekognition":
		r, err := ocr.NewRekognition(ocr.RekognitionOptions{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			MinConfidence:   cfg.RekognitionMinConfidence,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rekognition: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown recognizer: %s", cfg.Recognizer)
	}
}

func newSpeechEngine(cfg *config.Config, log logrus.FieldLogger) speech.Engine {
	if cfg.SpeechEngine == "log" {
		return speech.NewLogEngine(log)
	}
	return speech.NewExecEngine(cfg.SpeechCommand, cfg.SpeechVoice, log)
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		Padding:                   cfg.CropPadding,
		RecognitionTimeout:        cfg.RecognitionTimeout,
		MaxConcurrentRecognitions: cfg.MaxConcurrentRecognitions,
		Preprocess:                cfg.Preprocess,
		Contrast:                  imaging.DefaultContrast,
		AnnounceCapture:           cfg.AnnounceCapture,
		RenderOverlay:             cfg.RenderOverlay,
	}
}
