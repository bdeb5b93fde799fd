package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/pkg/utils"
)

// PDFStrategy stages the body in a temporary file and parses it. The file is removed on every
// path; a failed removal is the one error this strategy returns. Parse errors and parser
// panics yield empty text.
type PDFStrategy struct {
	tempDir string
	logger  *zap.Logger
	parse   func(path string) (string, error)
	remove  func(path string) error
}

// NewPDFStrategy creates a PDF strategy staging files in tempDir (os.TempDir when empty).
func NewPDFStrategy(tempDir string, logger *zap.Logger) *PDFStrategy {
	return &PDFStrategy{tempDir: tempDir, logger: utils.OrNop(logger), parse: readPDF, remove: os.Remove}
}

func (s *PDFStrategy) Name() string { return "pdf" }

func (s *PDFStrategy) Accepts(contentType string) bool {
	return strings.Contains(contentType, "pdf")
}

func (s *PDFStrategy) TryExtract(ctx context.Context, src *Source) (text string, err error) {
	f, err := os.CreateTemp(s.tempDir, "kotae-*.pdf")
	if err != nil {
		s.logger.Warn("cannot stage pdf", zap.String("url", src.URL), zap.Error(err))
		return "", nil
	}
	path := f.Name()
	defer func() {
		if rerr := s.remove(path); rerr != nil && !os.IsNotExist(rerr) {
			text, err = "", fmt.Errorf("remove temporary file %s: %w", path, rerr)
		}
	}()

	_, werr := f.Write(src.Response.Body)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		s.logger.Warn("cannot stage pdf", zap.String("url", src.URL), zap.Error(werr))
		return "", nil
	}
	return s.safeParse(src.URL, path), nil
}

func (s *PDFStrategy) safeParse(url, path string) (text string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("pdf parser panicked", zap.String("url", url), zap.Any("panic", r))
			text = ""
		}
	}()
	var err error
	text, err = s.parse(path)
	if err != nil {
		s.logger.Warn("pdf parse failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(text)
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 0; i < numPages; i++ {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i+1, err)
		}
		buf.WriteString(text)
		if i < numPages-1 {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}
