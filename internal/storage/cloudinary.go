package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// cloudinaryUploader is the slice of the Cloudinary upload API we use.
type cloudinaryUploader interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryStore stores media as Cloudinary assets.
type CloudinaryStore struct {
	upload cloudinaryUploader
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStore{upload: &cld.Upload}, nil
}

// Upload stores obj under its key. The key's extension is dropped from the
// public ID since Cloudinary appends the delivered format itself.
func (s *CloudinaryStore) Upload(ctx context.Context, obj Object) (string, error) {
	publicID := obj.Key
	if ext := extension(publicID); ext != "" {
		publicID = strings.TrimSuffix(publicID, ext)
	}

	result, err := s.upload.Upload(ctx, bytes.NewReader(obj.Data), uploader.UploadParams{
		PublicID:       publicID,
		ResourceType:   resourceType(obj.ContentType),
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(false),
	})
	if err != nil {
		return "", &UploadError{Key: obj.Key, Err: fmt.Errorf("failed to upload to Cloudinary: %w", err)}
	}
	if result.Error.Message != "" {
		return "", &UploadError{Key: obj.Key, Detail: result.Error.Message, Err: fmt.Errorf("cloudinary: %s", result.Error.Message)}
	}
	if existing(result) {
		return "", &UploadError{Key: obj.Key, Err: ErrObjectExists}
	}
	if result.SecureURL == "" {
		return "", &UploadError{Key: obj.Key, Detail: "upload returned no URL", Err: fmt.Errorf("cloudinary: empty secure_url")}
	}
	return result.SecureURL, nil
}

// existing reports Cloudinary's "existing": true marker, returned instead of an
// error when overwrite is disabled and the public ID is taken.
func existing(result *uploader.UploadResult) bool {
	raw, ok := result.Response.(map[string]interface{})
	if !ok {
		return false
	}
	v, _ := raw["existing"].(bool)
	return v
}

func resourceType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	default:
		return "auto"
	}
}
