package service

import (
	"context"
	"io"

	"concept-visualizer-be/internal/dto"
	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/pkg/document"
)

type IDocumentService interface {
	FromURL(ctx context.Context, req *dto.ScrapeURLRequest) (*dto.DocumentTextResponse, error)
	FromPDF(ctx context.Context, filename string, r io.Reader) (*dto.DocumentTextResponse, error)
}

// PageFetcher returns the readable text of a web page.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

type documentService struct {
	fetcher PageFetcher
	logger  logger.ILogger
}

func NewDocumentService(fetcher PageFetcher, log logger.ILogger) IDocumentService {
	return &documentService{fetcher: fetcher, logger: log}
}

func (s *documentService) FromURL(ctx context.Context, req *dto.ScrapeURLRequest) (*dto.DocumentTextResponse, error) {
	text, err := s.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		s.logger.Warn("DocumentService", "URL extraction failed", map[string]interface{}{
			"url":   req.URL,
			"error": err.Error(),
		})
		return nil, err
	}
	return &dto.DocumentTextResponse{Text: text, Source: req.URL}, nil
}

func (s *documentService) FromPDF(ctx context.Context, filename string, r io.Reader) (*dto.DocumentTextResponse, error) {
	res, err := document.ExtractPDF(r)
	if err != nil {
		s.logger.Warn("DocumentService", "PDF extraction failed", map[string]interface{}{
			"file":  filename,
			"error": err.Error(),
		})
		return nil, err
	}

	s.logger.Info("DocumentService", "PDF extracted", map[string]interface{}{
		"file":            filename,
		"total_pages":     res.TotalPages,
		"extracted_pages": res.ExtractedPages,
		"length":          len(res.Text),
	})
	return &dto.DocumentTextResponse{
		Text:           res.Text,
		Source:         filename,
		TotalPages:     res.TotalPages,
		ExtractedPages: res.ExtractedPages,
	}, nil
}
