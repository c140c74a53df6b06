package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/chattydevs/core/core"
	"github.com/chattydevs/core/extract"
)

const maxUploadBytes = 32 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type ingestRequest struct {
	ProjectID      string `json:"project_id"`
	StartURL       string `json:"start_url"`
	MaxPages       int    `json:"max_pages"`
	ChunkTokenSize int    `json:"chunk_token_size"`
}

type ingestResponse struct {
	ProjectID     string `json:"project_id"`
	PagesCrawled  int    `json:"pages_crawled"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

type deleteRequest struct {
	ProjectID string `json:"project_id"`
}

type deleteResponse struct {
	ProjectID      string `json:"project_id"`
	VectorsDeleted int    `json:"vectors_deleted"`
}

type uploadResponse struct {
	ProjectID     string `json:"project_id"`
	Filename      string `json:"filename"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}

	if err := core.ValidateProjectID(req.ProjectID); err != nil {
		s.writeError(w, err)
		return
	}
	if req.StartURL == "" {
		s.writeError(w, fmt.Errorf("%w: start_url must not be empty", core.ErrValidation))
		return
	}
	if req.MaxPages == 0 {
		req.MaxPages = DefaultMaxPages
	}
	if req.MaxPages < MinMaxPages || req.MaxPages > MaxMaxPages {
		s.writeError(w, fmt.Errorf("%w: max_pages must be between %d and %d",
			core.ErrValidation, MinMaxPages, MaxMaxPages))
		return
	}
	if req.ChunkTokenSize == 0 {
		req.ChunkTokenSize = DefaultChunkTokenSize
	}
	if req.ChunkTokenSize < MinChunkTokenSize || req.ChunkTokenSize > MaxChunkTokenSize {
		s.writeError(w, fmt.Errorf("%w: chunk_token_size must be between %d and %d",
			core.ErrValidation, MinChunkTokenSize, MaxChunkTokenSize))
		return
	}

	var (
		pages   []core.Page
		indexed int
		opErr   error
	)
	err := s.offload(func() {
		pages, opErr = s.crawler.Crawl(r.Context(), req.StartURL, req.MaxPages)
		if opErr != nil {
			return
		}
		for _, page := range pages {
			chunks := s.chunker.Split(page.Text, req.ChunkTokenSize)
			if len(chunks) == 0 {
				continue
			}
			var count int
			count, opErr = s.upserter.Upsert(r.Context(), req.ProjectID, page.URL, chunks)
			indexed += count
			if opErr != nil {
				return
			}
		}
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if opErr != nil {
		s.writeError(w, opErr)
		return
	}

	s.logger.Info("project ingested",
		"project_id", req.ProjectID, "pages", len(pages), "chunks", indexed)
	writeJSON(w, http.StatusOK, ingestResponse{
		ProjectID:     req.ProjectID,
		PagesCrawled:  len(pages),
		ChunksIndexed: indexed,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}
	if err := core.ValidateProjectID(req.ProjectID); err != nil {
		s.writeError(w, err)
		return
	}

	var (
		deleted int
		opErr   error
	)
	err := s.offload(func() {
		deleted, opErr = s.deleter.DeleteProject(r.Context(), req.ProjectID)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if opErr != nil {
		s.writeError(w, opErr)
		return
	}
	if deleted == 0 {
		s.writeError(w, fmt.Errorf("%w: no vectors found for project %s",
			core.ErrNotFound, req.ProjectID))
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{
		ProjectID:      req.ProjectID,
		VectorsDeleted: deleted,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed multipart body"})
		return
	}

	projectID := r.FormValue("project_id")
	if err := core.ValidateProjectID(projectID); err != nil {
		s.writeError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: file field is required", core.ErrValidation))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		s.writeError(w, err)
		return
	}

	text, err := extract.Text(header.Filename, data)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var (
		indexed int
		opErr   error
	)
	err = s.offload(func() {
		chunks := s.chunker.Split(text, DefaultChunkTokenSize)
		if len(chunks) == 0 {
			return
		}
		indexed, opErr = s.upserter.Upsert(r.Context(), projectID, header.Filename, chunks)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if opErr != nil {
		s.writeError(w, opErr)
		return
	}

	s.logger.Info("file ingested",
		"project_id", projectID, "filename", header.Filename, "chunks", indexed)
	writeJSON(w, http.StatusOK, uploadResponse{
		ProjectID:     projectID,
		Filename:      header.Filename,
		ChunksIndexed: indexed,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"service":     ServiceName,
		"environment": s.environment,
	})
}

// writeError maps domain errors to status codes. Anything outside the
// taxonomy is answered with a generic message; the detail is logged
// only, never returned to the caller.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
