// internal/server/mux.go
// Package server implements the HTTP handlers and routing for the archive
// service: record CRUD, search, statistics counters, media attachment and
// AI-drafted social posts.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/shahed-archive/shahed-archive-go/internal/ai"
	errordefs "github.com/shahed-archive/shahed-archive-go/internal/errors"
	"github.com/shahed-archive/shahed-archive-go/internal/metrics"
	"github.com/shahed-archive/shahed-archive-go/internal/model"
	"github.com/shahed-archive/shahed-archive-go/internal/repo"
	"github.com/shahed-archive/shahed-archive-go/internal/schema"
	"github.com/shahed-archive/shahed-archive-go/internal/storage"
)

// ContextKey is used for context values to avoid collisions.
type ContextKey string

const (
	// ContextKeyCorrelationID stores the per-request correlation id.
	ContextKeyCorrelationID ContextKey = "correlationId"

	// downloadURLTTL bounds the lifetime of signed download links.
	downloadURLTTL = 15 * time.Minute
)

// recordsPrefix is the base of all per-record routes.
const recordsPrefix = "/v1/martyrs/"

// fileFieldCategories maps multipart field names of the creation form to
// asset categories. The profileImage field is handled separately.
var fileFieldCategories = map[string]string{
	"gallery":   model.CategoryImage,
	"videos":    model.CategoryVideo,
	"audio":     model.CategoryAudio,
	"documents": model.CategoryDocument,
}

// Mux handles HTTP requests for the archive service.
type Mux struct {
	mux     *http.ServeMux
	repo    *repo.Repository
	metrics *metrics.Metrics

	// Media limits
	maxMediaSize     int64
	allowedMimeTypes []string

	// CORS configuration
	corsAllowedOrigins []string
}

// NewMux creates the HTTP mux with all archive endpoints. The repository
// carries all domain dependencies; the mux only owns transport concerns.
func NewMux(repository *repo.Repository, maxMediaSize int64, allowedMimeTypes, corsAllowedOrigins []string) *http.ServeMux {
	m := &Mux{
		mux:                http.NewServeMux(),
		repo:               repository,
		metrics:            metrics.NewMetrics(),
		maxMediaSize:       maxMediaSize,
		allowedMimeTypes:   allowedMimeTypes,
		corsAllowedOrigins: corsAllowedOrigins,
	}

	m.mux.HandleFunc("/healthz", m.handleHealthz)
	m.mux.HandleFunc("/readyz", m.handleReadyz)
	m.mux.Handle("/metrics", promhttp.Handler())

	m.mux.HandleFunc("/v1/martyrs", m.withMiddleware(m.handleCollection))
	m.mux.HandleFunc(recordsPrefix, m.withMiddleware(m.handleRecordRoutes))

	return m.mux
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withMiddleware applies CORS, correlation id propagation, request logging
// and HTTP metrics to a handler.
func (m *Mux) withMiddleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if origin := r.Header.Get("Origin"); origin != "" && m.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Correlation-Id")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		correlationID := r.Header.Get("X-Correlation-Id")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		r = r.WithContext(context.WithValue(r.Context(), ContextKeyCorrelationID, correlationID))
		w.Header().Set("X-Correlation-Id", correlationID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		duration := time.Since(start)
		status := strconv.Itoa(rec.status)
		m.metrics.HTTPRequestTotal.WithLabelValues(r.Method, routeLabel(r.URL.Path), status).Inc()
		m.metrics.HTTPRequestDuration.WithLabelValues(r.Method, routeLabel(r.URL.Path), status).Observe(duration.Seconds())
		m.logRequest(r, rec.status, duration, correlationID)
	}
}

// routeLabel collapses per-record paths into one metric label to keep the
// label cardinality bounded.
func routeLabel(path string) string {
	if !strings.HasPrefix(path, recordsPrefix) {
		return path
	}
	rest := strings.TrimPrefix(path, recordsPrefix)
	parts := strings.Split(rest, "/")
	parts[0] = "{id}"
	if len(parts) >= 3 && parts[1] == "media" {
		parts[2] = "{assetId}"
	}
	return recordsPrefix + strings.Join(parts, "/")
}

func (m *Mux) originAllowed(origin string) bool {
	for _, allowed := range m.corsAllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// correlationID extracts the correlation id placed by the middleware.
func correlationID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyCorrelationID).(string); ok {
		return v
	}
	return ""
}

// writeSuccess writes a JSON success envelope.
func (m *Mux) writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

// writeErrorDef writes a JSON error envelope from an errordefs.Error.
func (m *Mux) writeErrorDef(w http.ResponseWriter, err *errordefs.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	body := map[string]any{
		"code":          err.Code,
		"message":       err.Message,
		"correlationId": err.CorrelationID,
	}
	if err.Details != nil {
		body["details"] = err.Details
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"error": body})
}

// writeMapped translates a domain error into the error taxonomy and writes it.
func (m *Mux) writeMapped(w http.ResponseWriter, ctx context.Context, err error) {
	m.writeErrorDef(w, mapError(err, correlationID(ctx)))
}

// mapError translates domain errors into the archive error taxonomy.
func mapError(err error, correlationID string) *errordefs.Error {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		return errordefs.NewWithDetails(errordefs.ARCHIVE_VALIDATION, "record validation failed", correlationID, map[string]any{
			"missingFields": verr.MissingFields,
			"problems":      verr.Problems,
		})
	case errors.Is(err, storage.ErrNotFound):
		return errordefs.New(errordefs.ARCHIVE_NOT_FOUND, "record not found", correlationID)
	case errors.Is(err, repo.ErrAssetNotFound):
		return errordefs.New(errordefs.ARCHIVE_NOT_FOUND, "media asset not found", correlationID)
	case errors.Is(err, repo.ErrLocalAsset):
		return errordefs.New(errordefs.ARCHIVE_MEDIA_LOCAL_ONLY, "asset has no stored object to download", correlationID)
	case errors.Is(err, repo.ErrUploadFailed):
		return errordefs.New(errordefs.ARCHIVE_MEDIA_UPLOAD, "media upload failed", correlationID)
	case errors.Is(err, repo.ErrNoUploader), errors.Is(err, ai.ErrNotConfigured):
		return errordefs.New(errordefs.ARCHIVE_UNAVAILABLE, err.Error(), correlationID)
	case errors.Is(err, repo.ErrUnknownCounter):
		return errordefs.New(errordefs.ARCHIVE_BAD_REQUEST, err.Error(), correlationID)
	default:
		return errordefs.New(errordefs.ARCHIVE_INTERNAL, "internal error", correlationID)
	}
}

// logRequest logs completed requests.
func (m *Mux) logRequest(r *http.Request, status int, duration time.Duration, correlationID string) {
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.LogAttrs(r.Context(), level, "request completed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", duration),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("correlation_id", correlationID),
	)
}

// handleHealthz handles liveness checks.
func (m *Mux) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz handles readiness checks by touching the store.
func (m *Mux) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := m.repo.Metadata(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleCollection dispatches /v1/martyrs: POST creates, GET searches.
func (m *Mux) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		m.handleCreateRecord(w, r)
	case http.MethodGet:
		m.handleSearch(w, r)
	default:
		m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_BAD_REQUEST, "method not allowed", correlationID(r.Context())))
	}
}

// handleRecordRoutes dispatches everything under /v1/martyrs/{id}.
func (m *Mux) handleRecordRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, recordsPrefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if parts[0] == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_BAD_REQUEST, "record id is required", correlationID(r.Context())))
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			m.handleGetRecord(w, r, id)
		case http.MethodPatch:
			m.handleUpdateRecord(w, r, id)
		case http.MethodDelete:
			m.handleDeleteRecord(w, r, id)
		default:
			m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_BAD_REQUEST, "method not allowed", correlationID(r.Context())))
		}
	case len(parts) == 2 && parts[1] == "stats" && r.Method == http.MethodPost:
		m.handleIncrement(w, r, id)
	case len(parts) == 2 && parts[1] == "candle" && r.Method == http.MethodPost:
		m.handleCandle(w, r, id)
	case len(parts) == 2 && parts[1] == "social-post" && r.Method == http.MethodPost:
		m.handleSocialPost(w, r, id)
	case len(parts) == 2 && parts[1] == "media" && r.Method == http.MethodPost:
		m.handleAttachMedia(w, r, id)
	case len(parts) == 3 && parts[1] == "media" && r.Method == http.MethodDelete:
		m.handleRemoveMedia(w, r, id, parts[2])
	case len(parts) == 4 && parts[1] == "media" && parts[3] == "download" && r.Method == http.MethodGet:
		m.handleDownload(w, r, id, parts[2])
	default:
		m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_NOT_FOUND, "no such route", correlationID(r.Context())))
	}
}

// handleCreateRecord handles POST /v1/martyrs. The body is either plain JSON
// or multipart/form-data with a "record" JSON part plus file parts
// (profileImage plus per-category fields).
func (m *Mux) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("archive-service").Start(r.Context(), "handleCreateRecord")
	defer span.End()
	defer r.Body.Close()

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var req model.CreateRecordRequest
	var profile *repo.MediaFile
	var attachments []repo.MediaFile

	if contentType == "multipart/form-data" {
		if err := r.ParseMultipartForm(m.maxMediaSize + 1024*1024); err != nil {
			span.SetStatus(codes.Error, "bad multipart body")
			m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_BAD_REQUEST, "invalid multipart body", correlationID(ctx)))
			return
		}
		recordJSON := r.FormValue("record")
		if recordJSON == "" {
			m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_BAD_REQUEST, "record field is required", correlationID(ctx)))
			return
		}
		if err := json.Unmarshal([]byte(recordJSON), &req); err != nil {
			m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_BAD_REQUEST, "invalid record JSON", correlationID(ctx)))
			return
		}

		var err *errordefs.Error
		profile, attachments, err = m.collectFiles(r, correlationID(ctx))
		if err != nil {
			m.writeErrorDef(w, err)
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			span.SetStatus(codes.Error, "invalid JSON")
			m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_BAD_REQUEST, "invalid JSON", correlationID(ctx)))
			return
		}
	}

	span.SetAttributes(
		attribute.Bool("has_profile_image", profile != nil),
		attribute.Int("attachments", len(attachments)),
	)

	record, err := m.repo.Create(ctx, req, profile, attachments)
	if err != nil {
		span.SetStatus(codes.Error, "create failed")
		m.writeMapped(w, ctx, err)
		return
	}
	m.writeSuccess(w, http.StatusCreated, record)
}

// collectFiles gathers and validates the uploaded file parts of a multipart
// creation request.
func (m *Mux) collectFiles(r *http.Request, correlationID string) (*repo.MediaFile, []repo.MediaFile, *errordefs.Error) {
	var profile *repo.MediaFile
	var attachments []repo.MediaFile

	if headers := r.MultipartForm.File["profileImage"]; len(headers) > 0 {
		header := headers[0]
		file, err := m.openPart(header, correlationID)
		if err != nil {
			return nil, nil, err
		}
		file.Category = model.CategoryImage
		profile = file
	}

	for field, category := range fileFieldCategories {
		for _, header := range r.MultipartForm.File[field] {
			file, err := m.openPart(header, correlationID)
			if err != nil {
				return nil, nil, err
			}
			file.Category = category
			attachments = append(attachments, *file)
		}
	}
	return profile, attachments, nil
}

// openPart validates one multipart file against the media limits and opens it.
func (m *Mux) openPart(header *multipart.FileHeader, correlationID string) (*repo.MediaFile, *errordefs.Error) {
	if header.Size > m.maxMediaSize {
		return nil, errordefs.New(errordefs.ARCHIVE_MEDIA_SIZE,
			fmt.Sprintf("media size exceeds limit of %d bytes", m.maxMediaSize), correlationID)
	}
	contentType := header.Header.Get("Content-Type")
	if !m.mimeAllowed(contentType) {
		return nil, errordefs.New(errordefs.ARCHIVE_MEDIA_TYPE,
			fmt.Sprintf("media type %s is not allowed", contentType), correlationID)
	}
	f, err := header.Open()
	if err != nil {
		return nil, errordefs.New(errordefs.ARCHIVE_BAD_REQUEST, "unreadable file part", correlationID)
	}
	return &repo.MediaFile{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        f,
	}, nil
}

func (m *Mux) mimeAllowed(contentType string) bool {
	for _, allowed := range m.allowedMimeTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

// handleSearch handles GET /v1/martyrs with the q, tag, location, year,
// limit and offset query parameters.
func (m *Mux) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("archive-service").Start(r.Context(), "handleSearch")
	defer span.End()

	params := r.URL.Query()
	query := model.SearchQuery{
		Query:    params.Get("q"),
		Tag:      params.Get("tag"),
		Location: params.Get("location"),
	}
	if yearStr := params.Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_BAD_REQUEST, "year must be an integer", correlationID(ctx)))
			return
		}
		query.Year = year
	}
	if limitStr := params.Get("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
			query.Limit = v
		}
	}
	if offsetStr := params.Get("offset"); offsetStr != "" {
		if v, err := strconv.Atoi(offsetStr); err == nil && v > 0 {
			query.Offset = v
		}
	}

	span.SetAttributes(attribute.String("query", query.Query), attribute.Int("year", query.Year))

	result, err := m.repo.Search(ctx, query)
	if err != nil {
		span.SetStatus(codes.Error, "search failed")
		m.writeMapped(w, ctx, err)
		return
	}
	m.writeSuccess(w, http.StatusOK, result)
}

// handleGetRecord handles GET /v1/martyrs/{id}.
func (m *Mux) handleGetRecord(w http.ResponseWriter, r *http.Request, id string) {
	ctx, span := otel.Tracer("archive-service").Start(r.Context(), "handleGetRecord")
	defer span.End()
	span.SetAttributes(attribute.String("record_id", id))

	record, err := m.repo.Get(ctx, id)
	if err != nil {
		m.writeMapped(w, ctx, err)
		return
	}
	m.writeSuccess(w, http.StatusOK, record)
}

// handleUpdateRecord handles PATCH /v1/martyrs/{id} with a section patch.
func (m *Mux) handleUpdateRecord(w http.ResponseWriter, r *http.Request, id string) {
	ctx, span := otel.Tracer("archive-service").Start(r.Context(), "handleUpdateRecord")
	defer span.End()
	defer r.Body.Close()
	span.SetAttributes(attribute.String("record_id", id))

	var patch model.RecordPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_BAD_REQUEST, "invalid JSON", correlationID(ctx)))
		return
	}

	record, err := m.repo.Update(ctx, id, patch)
	if err != nil {
		span.SetStatus(codes.Error, "update failed")
		m.writeMapped(w, ctx, err)
		return
	}
	m.writeSuccess(w, http.StatusOK, record)
}

// handleDeleteRecord handles DELETE /v1/martyrs/{id}.
func (m *Mux) handleDeleteRecord(w http.ResponseWriter, r *http.Request, id string) {
	ctx, span := otel.Tracer("archive-service").Start(r.Context(), "handleDeleteRecord")
	defer span.End()
	span.SetAttributes(attribute.String("record_id", id))

	if err := m.repo.Delete(ctx, id); err != nil {
		m.writeMapped(w, ctx, err)
		return
	}
	m.writeSuccess(w, http.StatusOK, map[string]string{"deleted": id})
}

// handleIncrement handles POST /v1/martyrs/{id}/stats.
func (m *Mux) handleIncrement(w http.ResponseWriter, r *http.Request, id string) {
	ctx, span := otel.Tracer("archive-service").Start(r.Context(), "handleIncrement")
	defer span.End()
	defer r.Body.Close()

	var req model.IncrementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_BAD_REQUEST, "invalid JSON", correlationID(ctx)))
		return
	}
	span.SetAttributes(attribute.String("record_id", id), attribute.String("counter", req.Counter))

	record, err := m.repo.Increment(ctx, id, req.Counter, req.Delta)
	if err != nil {
		m.writeMapped(w, ctx, err)
		return
	}
	m.writeSuccess(w, http.StatusOK, record.Statistics)
}

// handleCandle handles POST /v1/martyrs/{id}/candle, a body-less shortcut for
// lighting one memorial candle.
func (m *Mux) handleCandle(w http.ResponseWriter, r *http.Request, id string) {
	ctx, span := otel.Tracer("archive-service").Start(r.Context(), "handleCandle")
	defer span.End()
	span.SetAttributes(attribute.String("record_id", id))

	record, err := m.repo.Increment(ctx, id, model.CounterCandles, 1)
	if err != nil {
		m.writeMapped(w, ctx, err)
		return
	}
	m.writeSuccess(w, http.StatusOK, record.Statistics)
}

// handleSocialPost handles POST /v1/martyrs/{id}/social-post.
func (m *Mux) handleSocialPost(w http.ResponseWriter, r *http.Request, id string) {
	ctx, span := otel.Tracer("archive-service").Start(r.Context(), "handleSocialPost")
	defer span.End()
	span.SetAttributes(attribute.String("record_id", id))

	post, err := m.repo.SocialPost(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "generation failed")
		// Upstream generation failures are a gateway problem, not ours.
		if !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, ai.ErrNotConfigured) {
			m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_AI_UPSTREAM, "social post generation failed", correlationID(ctx)))
			return
		}
		m.writeMapped(w, ctx, err)
		return
	}
	m.writeSuccess(w, http.StatusOK, post)
}

// handleAttachMedia handles POST /v1/martyrs/{id}/media with a multipart
// "file" part. The category form value picks the bundle slot; profile=true
// replaces the profile image.
func (m *Mux) handleAttachMedia(w http.ResponseWriter, r *http.Request, id string) {
	ctx, span := otel.Tracer("archive-service").Start(r.Context(), "handleAttachMedia")
	defer span.End()
	span.SetAttributes(attribute.String("record_id", id))

	if err := r.ParseMultipartForm(m.maxMediaSize + 1024*1024); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_BAD_REQUEST, "invalid multipart body", correlationID(ctx)))
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_BAD_REQUEST, "file part is required", correlationID(ctx)))
		return
	}

	file, errDef := m.openPart(headers[0], correlationID(ctx))
	if errDef != nil {
		m.writeErrorDef(w, errDef)
		return
	}

	asProfile := r.FormValue("profile") == "true"
	category := r.FormValue("category")
	if !asProfile {
		switch category {
		case model.CategoryImage, model.CategoryAudio, model.CategoryVideo, model.CategoryDocument:
		default:
			m.writeErrorDef(w, errordefs.New(errordefs.ARCHIVE_BAD_REQUEST,
				"category must be one of images, audio, videos, documents", correlationID(ctx)))
			return
		}
		file.Category = category
	}

	_, asset, err := m.repo.AttachMedia(ctx, id, *file, asProfile)
	if err != nil {
		span.SetStatus(codes.Error, "attach failed")
		m.writeMapped(w, ctx, err)
		return
	}
	m.writeSuccess(w, http.StatusCreated, asset)
}

// handleRemoveMedia handles DELETE /v1/martyrs/{id}/media/{assetId}.
func (m *Mux) handleRemoveMedia(w http.ResponseWriter, r *http.Request, id, assetID string) {
	ctx, span := otel.Tracer("archive-service").Start(r.Context(), "handleRemoveMedia")
	defer span.End()
	span.SetAttributes(attribute.String("record_id", id), attribute.String("asset_id", assetID))

	record, err := m.repo.RemoveMedia(ctx, id, assetID)
	if err != nil {
		m.writeMapped(w, ctx, err)
		return
	}
	m.writeSuccess(w, http.StatusOK, record.MediaAssets)
}

// handleDownload handles GET /v1/martyrs/{id}/media/{assetId}/download by
// redirecting to a signed URL and counting the download.
func (m *Mux) handleDownload(w http.ResponseWriter, r *http.Request, id, assetID string) {
	ctx, span := otel.Tracer("archive-service").Start(r.Context(), "handleDownload")
	defer span.End()
	span.SetAttributes(attribute.String("record_id", id), attribute.String("asset_id", assetID))

	url, err := m.repo.DownloadURL(ctx, id, assetID, downloadURLTTL)
	if err != nil {
		m.writeMapped(w, ctx, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}
