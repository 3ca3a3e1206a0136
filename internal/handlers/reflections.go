package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/reflections-backend/internal/apperr"
	"github.com/AnshRaj112/reflections-backend/internal/models"
	"github.com/AnshRaj112/reflections-backend/internal/services"
)

// PhotoField is the multipart part carrying the optional media file.
const PhotoField = "photo"

const (
	defaultMaxUpload      = 50 << 20
	multipartOverhead     = 1 << 20
	multipartMemoryBuffer = 32 << 20
	defaultRequestTimeout = 60 * time.Second
)

// ReflectionService is what the handlers need from the core.
type ReflectionService interface {
	Submit(ctx context.Context, sub services.Submission) (*models.Reflection, error)
	List(ctx context.Context, f models.ReflectionFilter) ([]models.Reflection, error)
}

// ReflectionHandler serves /api/reflections.
type ReflectionHandler struct {
	svc       ReflectionService
	logger    *zap.Logger
	maxUpload int64
	timeout   time.Duration
}

// NewReflectionHandler builds the handler. Non-positive limits fall back to
// 50MB uploads and a 60s timeout.
func NewReflectionHandler(svc ReflectionService, logger *zap.Logger, maxUpload int64, timeout time.Duration) *ReflectionHandler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &ReflectionHandler{svc: svc, logger: logger, maxUpload: maxUpload, timeout: timeout}
}

// CreateReflection handles POST /api/reflections in either encoding.
func (h *ReflectionHandler) CreateReflection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)

	sub, err := h.decodeSubmission(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rec, err := h.svc.Submit(ctx, sub)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    []models.Reflection{*rec},
	})
}

// GetReflections handles GET /api/reflections?neighborhood=&featured=true.
func (h *ReflectionHandler) GetReflections(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	filter := models.ReflectionFilter{
		Neighborhood: q.Get("neighborhood"),
		// Only the literal "true" filters; "1" or "TRUE" are ignored.
		FeaturedOnly: q.Get("featured") == "true",
	}

	list, err := h.svc.List(ctx, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	public := make([]models.Reflection, 0, len(list))
	for _, rec := range list {
		public = append(public, rec.Public())
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: public})
}

// decodeSubmission picks the request shape once from Content-Type.
func (h *ReflectionHandler) decodeSubmission(r *http.Request) (services.Submission, error) {
	contentType := strings.TrimSpace(r.Header.Get("Content-Type"))
	if contentType == "" {
		return decodeJSON(r.Body)
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return services.Submission{}, apperr.Wrap(apperr.KindMalformedRequest, "Invalid Content-Type header", err.Error(), err)
	}

	switch mediaType {
	case "application/json":
		return decodeJSON(r.Body)
	case "multipart/form-data":
		return h.decodeMultipart(r)
	default:
		return services.Submission{}, apperr.New(apperr.KindMalformedRequest, "Unsupported Content-Type "+mediaType)
	}
}

func decodeJSON(body io.Reader) (services.Submission, error) {
	var fields services.Fields
	if err := json.NewDecoder(body).Decode(&fields); err != nil {
		return services.Submission{}, bodyError("Invalid JSON body", err)
	}
	return services.Submission{Kind: services.SubmissionSimple, Fields: fields}, nil
}

func (h *ReflectionHandler) decodeMultipart(r *http.Request) (services.Submission, error) {
	if err := r.ParseMultipartForm(multipartMemoryBuffer); err != nil {
		return services.Submission{}, bodyError("Invalid multipart body", err)
	}
	defer r.MultipartForm.RemoveAll()

	sub := services.Submission{
		Kind: services.SubmissionWithMedia,
		Fields: services.Fields{
			Email:        r.FormValue("email"),
			Neighborhood: r.FormValue("neighborhood"),
			Reflection:   r.FormValue("reflection"),
			Title:        r.FormValue("title"),
		},
	}

	file, header, err := r.FormFile(PhotoField)
	if errors.Is(err, http.ErrMissingFile) {
		return sub, nil
	}
	if err != nil {
		return services.Submission{}, bodyError("Invalid photo part", err)
	}
	defer file.Close()

	attachment, err := readAttachment(file, header)
	if err != nil {
		return services.Submission{}, bodyError("Invalid photo part", err)
	}
	sub.Attachment = attachment
	return sub, nil
}

func readAttachment(file multipart.File, header *multipart.FileHeader) (*services.Attachment, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	contentType := header.Header.Get("Content-Type")
	if (contentType == "" || contentType == "application/octet-stream") && len(data) > 0 {
		contentType = http.DetectContentType(data)
	}
	return &services.Attachment{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func bodyError(message string, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Wrap(apperr.KindMalformedRequest, "Request body too large", err.Error(), err)
	}
	return apperr.Wrap(apperr.KindMalformedRequest, message, err.Error(), err)
}
