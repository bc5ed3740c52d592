package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/disintegration/imaging"
)

// rekognitionMinSide is the smallest image side Rekognition accepts.
const rekognitionMinSide = 80

// textDetectionAPI is the subset of the Rekognition client used here.
type textDetectionAPI interface {
	DetectTextWithContext(ctx aws.Context, input *rekognition.DetectTextInput, opts ...request.Option) (*rekognition.DetectTextOutput, error)
}

// RekognitionOptions configures NewRekognition.
type RekognitionOptions struct {
	Region string

	// AccessKeyID and SecretAccessKey select static credentials. When empty
	// the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// MinConfidence drops lines below this confidence (0-100).
	MinConfidence float64
}

// Rekognition recognizes text with the AWS Rekognition DetectText API.
//
// Each crop is sent as PNG; crops smaller than the service minimum are scaled
// up first. Detected LINE entries are joined with single spaces in the order
// the service returns them. The client is safe for concurrent use.
type Rekognition struct {
	client        textDetectionAPI
	minConfidence float64
}

// NewRekognition creates a Rekognition recognizer.
func NewRekognition(opts RekognitionOptions) (*Rekognition, error) {
	cfg := &aws.Config{Region: aws.String(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(opts.AccessKeyID, opts.SecretAccessKey, "")
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &Rekognition{
		client:        rekognition.New(sess),
		minConfidence: opts.MinConfidence,
	}, nil
}

// Recognize implements Recognizer.
func (r *Rekognition) Recognize(ctx context.Context, img image.Image) (string, error) {
	data, err := encodePNG(ensureMinSide(img, rekognitionMinSide))
	if err != nil {
		return "", err
	}

	out, err := r.client.DetectTextWithContext(ctx, &rekognition.DetectTextInput{
		Image: &rekognition.Image{Bytes: data},
	})
	if err != nil {
		return "", fmt.Errorf("rekognition DetectText failed: %w", err)
	}

	lines := make([]string, 0, len(out.TextDetections))
	for _, det := range out.TextDetections {
		if aws.StringValue(det.Type) != rekognition.TextTypesLine {
			continue
		}
		if aws.Float64Value(det.Confidence) < r.minConfidence {
			continue
		}
		if text := strings.TrimSpace(aws.StringValue(det.DetectedText)); text != "" {
			lines = append(lines, text)
		}
	}

	return strings.Join(lines, " "), nil
}

// ensureMinSide scales img up, keeping its aspect ratio, until both sides are
// at least side pixels.
func ensureMinSide(img image.Image, side int) image.Image {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || (w >= side && h >= side) {
		return img
	}

	scale := float64(side) / float64(min(w, h))
	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	return imaging.Resize(img, max(nw, side), max(nh, side), imaging.Lanczos)
}
