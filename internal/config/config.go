// Package config loads the text reader configuration from the environment.
//
// Values come from process environment variables, optionally seeded from a
// .env file in the working directory. Every variable has a default except
// READER_CAPTURE_PATH.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the text reader configuration.
type Config struct {
	// Logging
	LogLevel string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFile  string

	// Capture
	CapturePath     string `validate:"required"`
	CaptureRotation int    `validate:"gte=-360,lte=360"`
	CaptureMirror   bool

	// Detection
	Detector              string  `validate:"oneof=heuristic remote"`
	DetectorURL           string  `validate:"required_if=Detector remote"`
	DetectorMinConfidence float64 `validate:"gte=0,lte=1"`

	// Recognition
	Recognizer                string `validate:"oneof=tesseract rekognition"`
	OCRLanguage               string `validate:"required"`
	TessdataPrefix            string
	AWSRegion                 string `validate:"required_if=Recognizer rekognition"`
	AWSAccessKeyID            string
	AWSSecretAccessKey        string
	RekognitionMinConfidence  float64       `validate:"gte=0,lte=100"`
	RecognitionTimeout        time.Duration `validate:"gt=0"`
	MaxConcurrentRecognitions int           `validate:"gte=0"`
	CropPadding               float64       `validate:"gte=0,lt=0.5"`
	Preprocess                bool

	// Speech
	SpeechEngine    string `validate:"oneof=exec log"`
	SpeechCommand   string `validate:"required_if=SpeechEngine exec"`
	SpeechVoice     string
	AnnounceCapture bool

	// Reports
	RenderOverlay bool
}

// Load reads .env (if present) and the environment, applies defaults and
// validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		LogLevel:                  getEnvOrDefault("READER_LOG_LEVEL", "info"),
		LogFile:                   getEnvOrDefault("READER_LOG_FILE", ""),
		CapturePath:               getEnvOrDefault("READER_CAPTURE_PATH", ""),
		CaptureRotation:           getEnvAsIntOrDefault("READER_CAPTURE_ROTATION", 0),
		CaptureMirror:             getEnvAsBoolOrDefault("READER_CAPTURE_MIRROR", false),
		Detector:                  getEnvOrDefault("READER_DETECTOR", "heuristic"),
		DetectorURL:               getEnvOrDefault("READER_DETECTOR_URL", ""),
		DetectorMinConfidence:     getEnvAsFloatOrDefault("READER_DETECTOR_MIN_CONFIDENCE", 0.3),
		Recognizer:                getEnvOrDefault("READER_RECOGNIZER", "tesseract"),
		OCRLanguage:               getEnvOrDefault("READER_OCR_LANGUAGE", "eng"),
		TessdataPrefix:            getEnvOrDefault("READER_TESSDATA_PREFIX", ""),
		AWSRegion:                 getEnvOrDefault("READER_AWS_REGION", "us-east-1"),
		AWSAccessKeyID:            getEnvOrDefault("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:        getEnvOrDefault("AWS_SECRET_ACCESS_KEY", ""),
		RekognitionMinConfidence:  getEnvAsFloatOrDefault("READER_REKOGNITION_MIN_CONFIDENCE", 0),
		RecognitionTimeout:        getEnvAsDurationOrDefault("READER_RECOGNITION_TIMEOUT", 30*time.Second),
		MaxConcurrentRecognitions: getEnvAsIntOrDefault("READER_MAX_CONCURRENT_RECOGNITIONS", 0),
		CropPadding:               getEnvAsFloatOrDefault("READER_CROP_PADDING", 0.02),
		Preprocess:                getEnvAsBoolOrDefault("READER_PREPROCESS", false),
		SpeechEngine:              getEnvOrDefault("READER_SPEECH_ENGINE", "exec"),
		SpeechCommand:             getEnvOrDefault("READER_SPEECH_COMMAND", "espeak-ng"),
		SpeechVoice:               getEnvOrDefault("READER_SPEECH_VOICE", "en-us"),
		AnnounceCapture:           getEnvAsBoolOrDefault("READER_ANNOUNCE_CAPTURE", false),
		RenderOverlay:             getEnvAsBoolOrDefault("READER_RENDER_OVERLAY", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its field constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDurationOrDefault gets environment variable as a duration ("30s",
// "1m30s") or returns default
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
