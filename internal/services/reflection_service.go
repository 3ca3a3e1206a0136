package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/AnshRaj112/reflections-backend/internal/apperr"
	"github.com/AnshRaj112/reflections-backend/internal/models"
	"github.com/AnshRaj112/reflections-backend/internal/storage"
	"github.com/AnshRaj112/reflections-backend/internal/store"
)

// SubmissionKind tags which request encoding a Submission came from.
type SubmissionKind int

const (
	// SubmissionSimple carries text fields only.
	SubmissionSimple SubmissionKind = iota + 1
	// SubmissionWithMedia carries text fields and an optional attachment.
	SubmissionWithMedia
)

func (k SubmissionKind) String() string {
	switch k {
	case SubmissionSimple:
		return "simple"
	case SubmissionWithMedia:
		return "with_media"
	default:
		return "unknown"
	}
}

// Fields are the text fields common to both encodings.
type Fields struct {
	Email        string `json:"email"`
	Neighborhood string `json:"neighborhood"`
	Reflection   string `json:"reflection"`
	Title        string `json:"title"`
}

// MaxFieldRunes bounds email, neighborhood and title, which are VARCHAR(255) columns.
const MaxFieldRunes = 255

// Validate reports every required field that is empty or blank, then every
// bounded field that is too long.
func (f Fields) Validate() error {
	trimmed := Fields{
		Email:        strings.TrimSpace(f.Email),
		Neighborhood: strings.TrimSpace(f.Neighborhood),
		Reflection:   strings.TrimSpace(f.Reflection),
		Title:        strings.TrimSpace(f.Title),
	}
	err := validation.ValidateStruct(&trimmed,
		validation.Field(&trimmed.Email, validation.Required, validation.RuneLength(0, MaxFieldRunes)),
		validation.Field(&trimmed.Neighborhood, validation.Required, validation.RuneLength(0, MaxFieldRunes)),
		validation.Field(&trimmed.Reflection, validation.Required),
		validation.Field(&trimmed.Title, validation.RuneLength(0, MaxFieldRunes)),
	)
	if err == nil {
		return nil
	}
	errs, ok := err.(validation.Errors)
	if !ok {
		return apperr.Wrap(apperr.KindValidationFailed, "Invalid submission", err.Error(), err)
	}

	var missing, tooLong []string
	for _, name := range []string{"email", "neighborhood", "reflection", "title"} {
		e, ok := errs[name].(validation.Error)
		switch {
		case errs[name] == nil:
		case ok && e.Code() == validation.ErrRequired.Code():
			missing = append(missing, name)
		default:
			tooLong = append(tooLong, name)
		}
	}
	if len(missing) > 0 {
		return apperr.Missing(missing...)
	}
	return &apperr.Error{
		Kind:    apperr.KindValidationFailed,
		Message: fmt.Sprintf("Fields must be at most %d characters", MaxFieldRunes),
		Fields:  tooLong,
	}
}

// Attachment is an uploaded media file. Empty Data means "no attachment".
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Submission is one create request, decided once at the HTTP boundary.
type Submission struct {
	Kind       SubmissionKind
	Fields     Fields
	Attachment *Attachment
}

func (s Submission) hasMedia() bool {
	return s.Kind == SubmissionWithMedia && s.Attachment != nil && len(s.Attachment.Data) > 0
}

// ReflectionService validates submissions, uploads media, persists records
// and answers listings. It holds no per-request state.
type ReflectionService struct {
	records   store.RecordStore
	objects   storage.ObjectStore
	cache     ListingCache
	logger    *zap.Logger
	keyPrefix string
	now       func() time.Time
	newKey    func(prefix, filename string, now time.Time) string
}

// Option configures a ReflectionService.
type Option func(*ReflectionService)

// WithObjectStore enables media uploads.
func WithObjectStore(objects storage.ObjectStore) Option {
	return func(s *ReflectionService) { s.objects = objects }
}

// WithListingCache caches listings; nil disables caching.
func WithListingCache(cache ListingCache) Option {
	return func(s *ReflectionService) { s.cache = cache }
}

// WithKeyPrefix sets the folder uploads are keyed under (default "reflections").
func WithKeyPrefix(prefix string) Option {
	return func(s *ReflectionService) { s.keyPrefix = prefix }
}

func NewReflectionService(records store.RecordStore, logger *zap.Logger, opts ...Option) *ReflectionService {
	s := &ReflectionService{
		records:   records,
		logger:    logger,
		keyPrefix: "reflections",
		now:       time.Now,
		newKey:    storage.NewKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit creates one reflection. Media is fully uploaded before the record is
// inserted, so a stored photo_url always points at an existing object; a failed
// insert after a successful upload leaves an unreferenced object behind.
func (s *ReflectionService) Submit(ctx context.Context, sub Submission) (*models.Reflection, error) {
	if sub.Kind != SubmissionSimple && sub.Kind != SubmissionWithMedia {
		return nil, apperr.New(apperr.KindMalformedRequest, "Unrecognized submission encoding")
	}
	if err := sub.Fields.Validate(); err != nil {
		return nil, err
	}

	var photoURL *string
	if sub.hasMedia() {
		url, err := s.upload(ctx, sub.Attachment)
		if err != nil {
			return nil, err
		}
		photoURL = &url
	}

	rec := &models.Reflection{
		Email:        sub.Fields.Email,
		Neighborhood: sub.Fields.Neighborhood,
		Reflection:   sub.Fields.Reflection,
		PhotoURL:     photoURL,
		Featured:     false,
	}
	if title := strings.TrimSpace(sub.Fields.Title); title != "" {
		rec.Title = &title
	}

	if err := s.records.Insert(ctx, rec); err != nil {
		fields := []zap.Field{zap.Error(err)}
		if photoURL != nil {
			fields = append(fields, zap.String("orphaned_object", *photoURL))
		}
		s.logger.Error("reflection insert failed", fields...)
		return nil, apperr.Wrap(apperr.KindPersistenceFailed, "Failed to save reflection", store.Detail(err), err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	s.logger.Info("reflection created",
		zap.String("id", rec.ID),
		zap.String("encoding", sub.Kind.String()),
		zap.Bool("with_photo", photoURL != nil))
	return rec, nil
}

func (s *ReflectionService) upload(ctx context.Context, a *Attachment) (string, error) {
	if s.objects == nil {
		return "", apperr.New(apperr.KindStorageWriteFailed, "Media uploads are not configured")
	}

	key := s.newKey(s.keyPrefix, a.Filename, s.now())
	url, err := s.objects.Upload(ctx, storage.Object{
		Key:         key,
		ContentType: a.ContentType,
		Data:        a.Data,
	})
	if err != nil {
		s.logger.Error("media upload failed", zap.String("key", key), zap.Error(err))
		return "", apperr.Wrap(apperr.KindStorageWriteFailed, "Failed to upload photo", storage.Detail(err), err)
	}
	return url, nil
}

// List returns reflections newest first. A store whose schema lacks the
// featured column yields an empty list rather than an error.
func (s *ReflectionService) List(ctx context.Context, f models.ReflectionFilter) ([]models.Reflection, error) {
	gen := NoGeneration
	if s.cache != nil {
		cached, g, ok := s.cache.Get(ctx, f)
		if ok {
			return cached, nil
		}
		gen = g
	}

	out, err := s.records.List(ctx, f)
	if err != nil {
		if store.IsMissingColumn(err, "featured") {
			s.logger.Warn("featured column does not exist yet; run the migration", zap.Error(err))
			return []models.Reflection{}, nil
		}
		s.logger.Error("reflection list failed", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindRetrievalFailed, "Failed to fetch reflections", store.Detail(err), err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, gen, f, out)
	}
	return out, nil
}
