package extract

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"go.uber.org/zap"

	"docrag/internal/domain"
)

// Loader reads a corpus directory into documents. The set of readable
// files in the directory defines the corpus for one ingestion run.
type Loader struct {
	log *zap.Logger
}

func NewLoader(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{log: log}
}

// LoadDir returns the documents under dir in path order. PDF files are
// extracted page by page; .txt and .md files are read as-is; anything
// else is skipped.
func (l *Loader) LoadDir(dir string) ([]domain.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var documents []domain.Document
	for _, name := range names {
		path := filepath.Join(dir, name)
		var content string
		switch strings.ToLower(filepath.Ext(name)) {
		case ".pdf":
			content, err = l.readPDF(path)
			if err != nil {
				return nil, fmt.Errorf("extract %s: %w", path, err)
			}
		case ".txt", ".md":
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			content = string(data)
		default:
			l.log.Debug("skipping unsupported file", zap.String("path", path))
			continue
		}
		documents = append(documents, domain.Document{
			ID:      hashID(path),
			Path:    path,
			Content: content,
		})
		l.log.Info("loaded document",
			zap.String("path", path),
			zap.Int("chars", len(content)))
	}
	if len(documents) == 0 {
		return nil, fmt.Errorf("%w: no readable documents in %s", domain.ErrConfiguration, dir)
	}
	return documents, nil
}

func (l *Loader) readPDF(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("page count: %w", err)
	}
	var text strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			l.log.Warn("skipping page", zap.String("path", path), zap.Int("page", i), zap.Error(err))
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			l.log.Warn("skipping page", zap.String("path", path), zap.Int("page", i), zap.Error(err))
			continue
		}
		pageText, err := ex.ExtractText()
		if err != nil {
			l.log.Warn("skipping page", zap.String("path", path), zap.Int("page", i), zap.Error(err))
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return text.String(), nil
}

func hashID(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
