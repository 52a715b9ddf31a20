// Package extract turns receipt text into structured form-prefill data. The
// Extractor port stands in for a real OCR engine; the bundled implementation
// is a fixed stub, and the parser is a best-effort heuristic over its output.
// Extraction accuracy is explicitly not a goal.
package extract

import (
	"context"
	"strings"
	"unicode/utf8"
)

type (
	// Result is raw extractor output.
	Result struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	}

	// Extractor converts an image (data URI or URL) into text.
	Extractor interface {
		Extract(ctx context.Context, image string) (Result, error)
	}
)

// Mock is the development extractor: it ignores the image and returns a
// fixed sample receipt.
type Mock struct{}

const mockText = `롯데마트 본점
2024-01-15 14:30:25
바나나          3,000원
우유 1L        2,500원
계란 10개      4,800원
─────────────────
합계          10,300원
카드결제      10,300원`

func (Mock) Extract(_ context.Context, _ string) (Result, error) {
	return Result{Text: mockText, Confidence: 0.85}, nil
}

// ValidResult reports whether extractor output is trustworthy enough to
// feed the parser.
func ValidResult(r Result) bool {
	return r.Confidence > 0.7 && utf8.RuneCountInString(strings.TrimSpace(r.Text)) > 10
}
