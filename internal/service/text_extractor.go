package service

import (
	"fmt"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

var textExtensions = map[string]bool{
	"txt":  true,
	"md":   true,
	"csv":  true,
	"json": true,
}

// TextExtractor reads the analysable text of a stored file. Failures are
// logged and reported as "no text"; they never fail an upload.
type TextExtractor struct {
	pdfText bool
	logger  *zap.Logger
}

func NewTextExtractor(pdfText bool, logger *zap.Logger) *TextExtractor {
	return &TextExtractor{
		pdfText: pdfText,
		logger:  logger,
	}
}

// Extract returns the file's text and whether any was found. mimeType is the
// client-declared type: text is read for text/* declarations and the txt,
// md, csv and json extensions; PDFs are read through MuPDF when enabled.
func (e *TextExtractor) Extract(path, mimeType, ext string) (string, bool) {
	switch {
	case strings.HasPrefix(mimeType, "text/") || textExtensions[ext]:
		data, err := os.ReadFile(path)
		if err != nil {
			e.logger.Warn("Failed to read file as text", zap.String("file", path), zap.Error(err))
			return "", false
		}
		text := sanitizeUTF8(string(data))
		return text, text != ""

	case e.pdfText && (ext == "pdf" || mimeType == "application/pdf"):
		text, err := e.extractPDF(path)
		if err != nil {
			e.logger.Warn("Failed to extract text from PDF", zap.String("file", path), zap.Error(err))
			return "", false
		}
		return text, text != ""
	}

	return "", false
}

func (e *TextExtractor) extractPDF(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder

	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			e.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.String("file", path),
				zap.Error(err),
			)
			continue
		}

		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	text := sanitizeUTF8(strings.TrimSpace(textBuilder.String()))

	e.logger.Info("PDF text extracted",
		zap.String("file", path),
		zap.Int("pages", doc.NumPage()),
		zap.Int("text_length", len(text)),
	)

	return text, nil
}
