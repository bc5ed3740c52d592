package pipeline

import (
	"strings"

	"github.com/ironsheep/text-reader/internal/ocr"
)

// Merge joins the recognized texts into one sentence-like string.
//
// Each text is trimmed and empty ones are skipped. Every kept text is followed
// by ". " and the result is trimmed, so a single "STOP" becomes "STOP." and
// all-empty input yields "".
func Merge(results []ocr.Result) string {
	var sb strings.Builder
	for _, r := range results {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString(". ")
	}
	return strings.TrimSpace(sb.String())
}
