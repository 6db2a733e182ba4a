package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"

	"github.com/decorhaus/storefront_api/internal/config"
	"github.com/decorhaus/storefront_api/internal/utils"
)

// MaxUploadBytes is the largest accepted product image.
const MaxUploadBytes = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// StorageService stores product images in a public S3 bucket.
type StorageService struct {
	api        objectAPI
	bucket     string
	publicBase string
	prefix     string
	now        func() time.Time
}

// NewStorageService creates a StorageService from an SDK config.
func NewStorageService(awsCfg aws.Config, cfg *config.StorageConfig) *StorageService {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	base := cfg.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &StorageService{api: client, bucket: cfg.Bucket, publicBase: base, prefix: "products/", now: time.Now}
}

// UploadedImage describes a stored object.
type UploadedImage struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// UploadImage validates and stores an image, returning its public URL.
func (s *StorageService) UploadImage(ctx context.Context, filename string, data []byte) (*UploadedImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("file is empty: %w", utils.ErrInvalidInput)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("file exceeds 5MB: %w", utils.ErrUnsupportedUpload)
	}
	mt := mimetype.Detect(data)
	contentType := strings.SplitN(mt.String(), ";", 2)[0]
	if !allowedImageTypes[contentType] {
		return nil, fmt.Errorf("%s is not an accepted image type: %w", contentType, utils.ErrUnsupportedUpload)
	}

	name, err := utils.UploadObjectName(s.now(), filename)
	if err != nil {
		return nil, err
	}
	key := s.prefix + name

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to upload image")
		return nil, fmt.Errorf("upload image: %w", err)
	}

	log.Info().Str("key", key).Int("size", len(data)).Msg("Image uploaded")
	return &UploadedImage{URL: s.publicBase + "/" + key, Key: key, ContentType: contentType, Size: len(data)}, nil
}

// KeyFromURL returns the object key when url points into this bucket.
func (s *StorageService) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, s.publicBase+"/") {
		return "", false
	}
	key := strings.TrimPrefix(url, s.publicBase+"/")
	if key == "" {
		return "", false
	}
	return key, true
}

// DeleteByURL removes the object behind url. URLs outside the bucket are ignored.
func (s *StorageService) DeleteByURL(ctx context.Context, url string) error {
	key, ok := s.KeyFromURL(url)
	if !ok {
		return nil
	}
	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	log.Info().Str("key", key).Msg("Image deleted")
	return nil
}
