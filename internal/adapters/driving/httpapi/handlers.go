package httpapi

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query      string         `json:"query"`
	TopK       *int           `json:"top_k,omitempty"`
	Filter     map[string]any `json:"filter,omitempty"`
	Collection string         `json:"collection,omitempty"`
	Mode       string         `json:"mode,omitempty"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Answer  string          `json:"answer"`
	Sources []domain.Source `json:"sources"`
}

// FileResponse reports one file of an upload.
type FileResponse struct {
	Filename string `json:"filename"`
	Indexed  int    `json:"indexed"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// UploadResponse is the body returned by POST /upload.
type UploadResponse struct {
	Indexed int            `json:"indexed"`
	Files   []FileResponse `json:"files"`
	Detail  string         `json:"detail,omitempty"`
}

// IndexedResponse is the body returned by POST /cms/import.
type IndexedResponse struct {
	Indexed int `json:"indexed"`
}

// StatusResponse is the body returned by POST /reset.
type StatusResponse struct {
	Status string `json:"status"`
}

func (s *Server) health(c *gin.Context) {
	status, err := s.ports.Collection.Health(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		badRequest(c, "query must not be empty")
		return
	}

	topK := domain.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	answer, err := s.ports.Chat.AskWithMode(c.Request.Context(), domain.Query{
		Text:       req.Query,
		TopK:       topK,
		Filter:     req.Filter,
		Collection: req.Collection,
	}, req.Mode)
	if err != nil {
		writeError(c, err)
		return
	}
	if s.ports.Metrics != nil && answer.Mode != "" {
		s.ports.Metrics.AnswersTotal.WithLabelValues(answer.Mode).Inc()
	}

	sources := answer.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	c.JSON(http.StatusOK, ChatResponse{Answer: answer.Text, Sources: sources})
}

func (s *Server) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "expected a multipart form with one or more files")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		badRequest(c, "no files uploaded")
		return
	}

	files := make([]domain.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			badRequest(c, fmt.Sprintf("read %s: %v", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			badRequest(c, fmt.Sprintf("read %s: %v", fh.Filename, err))
			return
		}
		files = append(files, domain.UploadFile{Filename: fh.Filename, Content: data})
	}

	report, err := s.ports.Ingest.UploadFiles(c.Request.Context(), files)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := UploadResponse{Indexed: report.Indexed, Files: make([]FileResponse, 0, len(report.Files))}
	for _, f := range report.Files {
		fr := FileResponse{Filename: f.Filename, Indexed: f.Indexed, URL: f.URL}
		if f.Err != nil {
			fr.Error = f.Err.Error()
		}
		resp.Files = append(resp.Files, fr)
	}

	if s.ports.Metrics != nil {
		s.ports.Metrics.PassagesIndexed.WithLabelValues("upload").Add(float64(report.Indexed))
		s.ports.Metrics.IngestFailures.WithLabelValues("upload").Add(float64(len(report.Failed())))
	}

	if report.AllFailed() {
		resp.Detail = report.Failed()[0].Err.Error()
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) cmsImport(c *gin.Context) {
	var batch domain.CMSImport
	if err := c.ShouldBindJSON(&batch); err != nil {
		badRequest(c, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(batch.Records) == 0 {
		badRequest(c, "no records to import")
		return
	}

	n, err := s.ports.Ingest.ImportCMS(c.Request.Context(), batch)
	if err != nil {
		writeError(c, err)
		return
	}
	if s.ports.Metrics != nil {
		s.ports.Metrics.PassagesIndexed.WithLabelValues("cms").Add(float64(n))
	}
	c.JSON(http.StatusOK, IndexedResponse{Indexed: n})
}

func (s *Server) reset(c *gin.Context) {
	if err := s.ports.Collection.Reset(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Status: "reset"})
}

func (s *Server) file(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	if name == "" || strings.Contains(name, "/") {
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Detail: "not found"})
		return
	}

	rc, err := s.ports.Files.Open(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
