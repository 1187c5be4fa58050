package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/a3tai/docindex/internal/docx"
	apperrors "github.com/a3tai/docindex/internal/errors"
	"github.com/a3tai/docindex/internal/tasks"
)

const internalErrorMessage = "an internal server error occurred; please contact the administrator"

type generateRegexRequest struct {
	Sample *string `json:"sample"`
}

type generateRegexResponse struct {
	Regex string `json:"regex"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, HealthMessage)
}

func (s *Server) handleGenerateRegex(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req generateRegexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Sample == nil {
		s.writeError(w, r, apperrors.New(apperrors.ErrorTypeMissingInput, "a JSON body with a sample entry is required"))
		return
	}

	regex, err := s.processor.GenerateRegex(r.Context(), *req.Sample)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, generateRegexResponse{Regex: regex})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	id, err := tasks.ParseTaskID(r.PathValue("taskId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	in, err := s.readInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out, err := s.processor.Process(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", docx.ContentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": id.ResultFilename()}))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// readInput reads every uploaded file and form value of a multipart request
func (s *Server) readInput(w http.ResponseWriter, r *http.Request) (tasks.Input, error) {
	// tab4 uploads two files
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.opts.MaxFileSize+formOverhead)

	if err := r.ParseMultipartForm(s.opts.MaxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return tasks.Input{}, apperrors.Newf(apperrors.ErrorTypeFileTooLarge,
				"upload too large (max: %d bytes per file)", s.opts.MaxFileSize)
		}
		return tasks.Input{}, apperrors.Wrap(apperrors.ErrorTypeMissingInput, "a multipart form upload is required", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	in := tasks.Input{
		Files:  make(map[string][]byte, len(r.MultipartForm.File)),
		Fields: make(map[string]string, len(r.MultipartForm.Value)),
	}
	for name, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			in.Fields[name] = values[0]
		}
	}
	for name, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		if headers[0].Size > s.opts.MaxFileSize {
			return tasks.Input{}, apperrors.Newf(apperrors.ErrorTypeFileTooLarge,
				"file too large: %d bytes (max: %d bytes)", headers[0].Size, s.opts.MaxFileSize)
		}
		f, err := headers[0].Open()
		if err != nil {
			return tasks.Input{}, apperrors.Wrap(apperrors.ErrorTypeInternal, "failed to open upload "+name, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return tasks.Input{}, apperrors.Wrap(apperrors.ErrorTypeInternal, "failed to read upload "+name, err)
		}
		in.Files[name] = data
	}

	return in, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

// writeError reports err as {message}. Client errors carry their message;
// anything else is logged and answered with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	s.writeJSON(w, status, errorResponse{Message: apperrors.MessageOf(err, internalErrorMessage)})
}

func statusOf(err error) int {
	switch {
	case apperrors.Is(err, apperrors.ErrorTypeUnknownTask):
		return http.StatusNotFound
	case apperrors.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
