// Package ocr provides text recognition for image crops.
//
// The pipeline sends every detected region to a Recognizer concurrently, so
// all implementations are safe for concurrent use. A crop without readable
// text is not an error: Recognize returns "".
//
// # Recognizers
//
//   - Tesseract: local recognition via gosseract/v2. Compiled in on Linux
//     with cgo; elsewhere NewTesseract returns ErrOCRNotEnabled.
//   - Rekognition: AWS Rekognition DetectText. LINE detections are joined
//     with spaces; crops below the service minimum size are scaled up.
//
// # Prerequisites
//
// Tesseract must be installed on the system to build with cgo on Linux:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// Rekognition uses the default AWS credential chain unless static keys are
// configured.
package ocr
