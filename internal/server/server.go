package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forPelevin/cleancut/internal/logger"
	"github.com/forPelevin/cleancut/internal/pipeline"
	"github.com/forPelevin/cleancut/internal/types"
	"github.com/forPelevin/cleancut/internal/usecase"
)

// maxUploadMemory caps multipart memory use; larger uploads spill to disk.
const maxUploadMemory = 32 << 20

var timeNow = time.Now

// Editor is what the façade needs from the pipeline; satisfied by
// *pipeline.Pipeline.
type Editor interface {
	Edit(ctx context.Context, inputPath string, categories []types.CutReason) (usecase.Result, func(), error)
}

type Server struct {
	p          Editor
	log        logger.Logger
	outputsDir string
}

func New(p Editor, log logger.Logger, outputsDir string) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{p: p, log: log, outputsDir: outputsDir}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/edit", s.handleEdit)
	mux.HandleFunc("/download/", s.handleDownload)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

type editResponse struct {
	Script     string      `json:"script"`
	Transcript string      `json:"transcript"`
	KeptRanges []rangeJSON `json:"kept_ranges"`
	Output     string      `json:"output"`
	Degraded   bool        `json:"degraded,omitempty"`
}

type rangeJSON struct {
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "", fmt.Sprintf("parse upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	categories, err := pipeline.ParseCategories(r.FormValue("categories"))
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "", err.Error())
		return
	}

	uploadDir, err := os.MkdirTemp("", "cleancut-upload-")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "", "create upload dir")
		return
	}
	defer os.RemoveAll(uploadDir)

	name := sanitizeName(header.Filename)
	if name == "" {
		name = "upload"
	}
	inputPath := filepath.Join(uploadDir, name)
	dst, err := os.Create(inputPath)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "", "store upload")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		s.writeError(w, http.StatusInternalServerError, "", "store upload")
		return
	}
	dst.Close()

	res, cleanup, err := s.p.Edit(ctx, inputPath, categories)
	if err != nil {
		s.log.Error(ctx, "edit %s failed: %v", header.Filename, err)
		s.writeError(w, statusFor(err), string(types.StageOf(err)), err.Error())
		return
	}
	defer cleanup()

	if res.Empty {
		s.writeError(w, http.StatusUnprocessableEntity, string(types.StagePlan),
			"every span was cut; nothing to return")
		return
	}

	// Publish to the outputs dir so the result stays downloadable after the
	// workspace is removed.
	outName := pipeline.OutputName(header.Filename, timeNow())
	published := filepath.Join(s.outputsDir, outName)
	if err := os.MkdirAll(s.outputsDir, 0o755); err != nil {
		s.writeError(w, http.StatusInternalServerError, string(types.StageAssemble), "publish output")
		return
	}
	if err := copyFile(res.OutputPath, published); err != nil {
		s.log.Error(ctx, "publish %s: %v", outName, err)
		s.writeError(w, http.StatusInternalServerError, string(types.StageAssemble), "publish output")
		return
	}

	if r.URL.Query().Get("format") == "json" {
		ranges := make([]rangeJSON, 0, len(res.Kept))
		for _, kr := range res.Kept {
			ranges = append(ranges, rangeJSON{StartSec: kr.Start.Seconds(), EndSec: kr.End.Seconds()})
		}
		s.writeJSON(w, http.StatusOK, editResponse{
			Script:     res.Script,
			Transcript: res.Transcript,
			KeptRanges: ranges,
			Output:     "/download/" + outName,
			Degraded:   res.Degraded,
		})
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(outName))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outName))
	http.ServeFile(w, r, published)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := sanitizeName(strings.TrimPrefix(r.URL.Path, "/download/"))
	if name == "" {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(s.outputsDir, name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentTypeFor(name))
	http.ServeFile(w, r, path)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, stage, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg, Stage: stage})
}

// statusFor maps a stage-tagged pipeline error to the HTTP status the
// caller sees: unprocessable input, upstream failure, or assembly failure.
func statusFor(err error) int {
	switch types.StageOf(err) {
	case types.StageInput:
		return http.StatusUnprocessableEntity
	case types.StageTranscribe:
		return http.StatusBadGateway
	case types.StageAssemble:
		return http.StatusInternalServerError
	}
	if errors.Is(err, types.ErrEmptyPlan) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4":
		return "video/mp4"
	case ".m4a":
		return "audio/mp4"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
