package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/wire"
)

var ErrEmptyTitle = errors.New("title is required")

// ReportParams filters the notice board listing.
type ReportParams struct {
	Page   int
	Limit  int
	Type   core.ReportType
	Search string
}

func (p ReportParams) query() string {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Type != "" {
		q.Set("type", string(p.Type))
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		q.Set("search", s)
	}
	if len(q) == 0 {
		return "/reports"
	}
	return "/reports?" + q.Encode()
}

// ReportService manages notice board entries: free text notices and
// uploaded PDF reports.
type ReportService struct {
	api    API
	logger *log.Logger
}

func NewReportService(api API, logger *log.Logger) *ReportService {
	return &ReportService{api: api, logger: log.OrDiscard(logger).WithComponent(log.ComponentServices)}
}

func (s *ReportService) List(ctx context.Context, p ReportParams) ([]core.Report, error) {
	var list wire.ReportList
	if err := s.api.Get(ctx, p.query(), &list); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return list.Reports(), nil
}

// CreateText posts a text notice.
func (s *ReportService) CreateText(ctx context.Context, title, content string) (core.Report, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return core.Report{}, ErrEmptyTitle
	}
	body := map[string]string{
		"title":   title,
		"type":    string(core.ReportText),
		"content": content,
	}
	var env wire.ReportEnvelope
	if err := s.api.Post(ctx, "/reports", body, &env); err != nil {
		return core.Report{}, fmt.Errorf("create report: %w", err)
	}
	r, ok := env.Report()
	if !ok {
		r = core.Report{Title: title, Type: core.ReportText, Content: content, Keywords: wire.Keywords(title)}
	}
	return r, nil
}

// UploadPDF sends file as a multipart upload.
func (s *ReportService) UploadPDF(ctx context.Context, title, fileName string, file io.Reader) (core.Report, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return core.Report{}, ErrEmptyTitle
	}
	if file == nil {
		return core.Report{}, errors.New("file is required")
	}
	fields := map[string]string{"title": title, "type": string(core.ReportPDF)}
	var env wire.ReportEnvelope
	if err := s.api.Upload(ctx, "/reports", fields, "file", fileName, file, &env); err != nil {
		return core.Report{}, fmt.Errorf("upload report: %w", err)
	}
	r, ok := env.Report()
	if !ok {
		r = core.Report{Title: title, Type: core.ReportPDF, Keywords: wire.Keywords(title)}
	}
	s.logger.DebugContext(ctx, "report uploaded", "file", fileName)
	return r, nil
}

func (s *ReportService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	if err := s.api.Delete(ctx, "/reports/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}

// Download streams the report file. The caller closes the reader.
func (s *ReportService) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}
	rc, err := s.api.Download(ctx, "/reports/"+url.PathEscape(id)+"/download")
	if err != nil {
		return nil, fmt.Errorf("download report: %w", err)
	}
	return rc, nil
}

// Search filters reports locally by term and kind ("all", "pdf", "text").
func Search(reports []core.Report, term, kind string) []core.Report {
	out := make([]core.Report, 0, len(reports))
	for _, r := range reports {
		if r.Matches(term, kind) {
			out = append(out, r)
		}
	}
	return out
}
