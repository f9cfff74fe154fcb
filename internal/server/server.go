package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/agentic-research/wp2shopify/internal/convert"
	"github.com/agentic-research/wp2shopify/internal/ingest"
	"github.com/agentic-research/wp2shopify/internal/record"
	"github.com/agentic-research/wp2shopify/internal/shopify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Response headers set on every conversion.
const (
	HeaderConversionID = "X-Conversion-ID"
	HeaderProducts     = "X-Product-Count"
	HeaderRows         = "X-Row-Count"
)

// Server is the upload-and-download surface: a WordPress export goes in,
// a Shopify import file comes out.
type Server struct {
	Loader    *ingest.Engine
	Converter *convert.Converter
	// MaxUpload caps the request body in bytes.
	MaxUpload int64
	Logger    *zap.Logger
	Now       func() time.Time
}

func New(loader *ingest.Engine, conv *convert.Converter, maxUpload int64, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Loader:    loader,
		Converter: conv,
		MaxUpload: maxUpload,
		Logger:    logger,
		Now:       time.Now,
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/convert", s.handleConvert)
	r.Post("/breakdown", s.handleBreakdown)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	format, err := shopify.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if format == shopify.FormatSQLite {
		http.Error(w, "sqlite output is only available from the command line", http.StatusBadRequest)
		return
	}

	rows, ok := s.convertUpload(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := shopify.Write(&buf, format, rows); err != nil {
		s.Logger.Error("encode output", zap.Error(err))
		http.Error(w, "failed to encode output", http.StatusInternalServerError)
		return
	}

	sum := shopify.Summarize(rows)
	id := uuid.NewString()
	h := w.Header()
	h.Set("Content-Type", format.ContentType())
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": shopify.Filename(s.Now(), format),
	}))
	h.Set(HeaderConversionID, id)
	h.Set(HeaderProducts, strconv.Itoa(sum.UniqueProducts))
	h.Set(HeaderRows, strconv.Itoa(sum.TotalRows))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	s.Logger.Info("converted upload",
		zap.String("conversion_id", id),
		zap.String("format", string(format)),
		zap.Int("products", sum.UniqueProducts),
		zap.Int("rows", sum.TotalRows))
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.convertUpload(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(shopify.Summarize(rows)); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// convertUpload loads the request body and converts it. On failure it has
// already answered the request.
func (s *Server) convertUpload(w http.ResponseWriter, r *http.Request) ([]shopify.Row, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUpload)

	table, err := s.readUpload(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	rows, err := s.Converter.Convert(r.Context(), table)
	if err != nil {
		s.Logger.Warn("conversion failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return rows, true
}

// readUpload accepts either a multipart form with a "file" part or the raw
// export as the request body. The source kind comes from ?source=, then the
// uploaded file name, then defaults to CSV.
func (s *Server) readUpload(r *http.Request) (*record.Table, error) {
	query := r.URL.Query().Get("source")

	var (
		body     io.Reader = r.Body
		filename string
	)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.MaxUpload); err != nil {
			return nil, fmt.Errorf("failed to parse form: %w", err)
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing \"file\" upload: %w", err)
		}
		defer func() { _ = file.Close() }()
		body, filename = file, header.Filename
	}

	kind, err := ingest.ParseKind(query)
	if err != nil {
		return nil, err
	}
	if query == "" && filename != "" {
		if k, err := ingest.KindForPath(filename); err == nil {
			kind = k
		}
	}
	return s.Loader.Read(body, kind)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
