package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
	"resty.dev/v3"

	"socialnet/internal/config"
	"socialnet/internal/metrics"
	domain "socialnet/internal/model"
)

const remoteFetchTimeout = 10 * time.Second

// objectStore is the subset of the S3 client the media service uses.
type objectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// MediaStore ingests images for profiles and posts and removes them again.
type MediaStore interface {
	Ingest(ctx context.Context, kind domain.ImageKind, src *domain.ImageSource) (*domain.UploadResult, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) string
}

// MediaService stores normalized images in an S3-compatible bucket (Cloudflare R2 by default).
type MediaService struct {
	store      objectStore
	bucket     string
	publicURL  string
	defaultKey string
	http       *resty.Client
	log        *zap.Logger
}

// NewMediaService builds the S3 client. Without storage configuration it returns a service
// whose ingests fail with ErrUploadFailed and whose deletes are no-ops.
func NewMediaService(ctx context.Context, cfg *config.Config, log *zap.Logger) (*MediaService, error) {
	httpClient := newRemoteFetchClient()

	if !cfg.StorageConfigured() {
		log.Warn("object storage not configured; image uploads will fail and deletes are skipped")
		return newMediaService(nil, "", "", cfg.DefaultProfileImageKey, httpClient, log), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for object storage: %w", err)
	}

	endpoint := cfg.S3Endpoint
	if cfg.R2AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	}
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return newMediaService(s3Client, cfg.R2BucketName, cfg.R2PublicURL, cfg.DefaultProfileImageKey, httpClient, log), nil
}

func newMediaService(store objectStore, bucket, publicURL, defaultKey string, httpClient *resty.Client, log *zap.Logger) *MediaService {
	return &MediaService{
		store:      store,
		bucket:     bucket,
		publicURL:  strings.TrimSuffix(publicURL, "/"),
		defaultKey: defaultKey,
		http:       httpClient,
		log:        log,
	}
}

// Close releases the remote fetch client.
func (s *MediaService) Close() error {
	return s.http.Close()
}

// Ingest validates, normalizes to JPEG and uploads an image, returning its public URL and key.
func (s *MediaService) Ingest(ctx context.Context, kind domain.ImageKind, src *domain.ImageSource) (*domain.UploadResult, error) {
	result, err := s.ingest(ctx, kind, src)
	if err != nil {
		metrics.MediaUploads.WithLabelValues(string(kind), metrics.ResultError).Inc()
		return nil, err
	}
	metrics.MediaUploads.WithLabelValues(string(kind), metrics.ResultOK).Inc()
	return result, nil
}

func (s *MediaService) ingest(ctx context.Context, kind domain.ImageKind, src *domain.ImageSource) (*domain.UploadResult, error) {
	if src == nil {
		return nil, domain.ErrInvalidImage
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: storage not configured", domain.ErrUploadFailed)
	}

	data := src.Data
	if src.RemoteURL != "" {
		fetched, err := s.fetchRemote(ctx, src.RemoteURL, kind.MaxSize())
		if err != nil {
			return nil, err
		}
		data = fetched
	}

	if _, err := validateImage(data, kind.MaxSize()); err != nil {
		return nil, err
	}

	jpegBytes, err := normalizeImage(kind, data)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", kind.Folder(), uuid.NewString(), domain.ImageExt)
	if err := s.putObject(ctx, key, jpegBytes, domain.ContentTypeJPEG, domain.ImageCacheControl); err != nil {
		s.log.Error("image upload failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	return &domain.UploadResult{URL: fmt.Sprintf("%s/%s", s.publicURL, key), Key: key}, nil
}

// fetchRemote downloads an http(s) image, refusing bodies above maxSize.
func (s *MediaService) fetchRemote(ctx context.Context, rawURL string, maxSize int64) ([]byte, error) {
	resp, err := s.http.R().
		WithContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		if errors.Is(err, errDisallowedAddress) {
			s.log.Warn("remote image rejected", zap.String("url", rawURL), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidImage, err)
		}
		return nil, fmt.Errorf("%w: fetch remote image: %v", domain.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, fmt.Errorf("%w: remote image returned %d", domain.ErrInvalidImage, resp.StatusCode())
	}
	if cl := resp.Header().Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n > maxSize {
			return nil, domain.ErrFileTooLarge
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read remote image: %v", domain.ErrUploadFailed, err)
	}
	if int64(len(data)) > maxSize {
		return nil, domain.ErrFileTooLarge
	}
	return data, nil
}

func fetchMetricMiddleware(_ *resty.Client, response *resty.Response) error {
	metrics.RemoteFetchLatency.
		WithLabelValues(strconv.Itoa(response.StatusCode())).
		Observe(response.Duration().Seconds())
	return nil
}

// Delete removes an object by key. Empty keys and the shared default avatar are skipped.
func (s *MediaService) Delete(ctx context.Context, key string) error {
	if key == "" || key == s.defaultKey || s.store == nil {
		return nil
	}
	_, err := s.store.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// KeyFromURL recovers the object key from a public URL served from this bucket.
func (s *MediaService) KeyFromURL(url string) string {
	if s.publicURL == "" || !strings.HasPrefix(url, s.publicURL+"/") {
		return ""
	}
	return strings.TrimPrefix(url, s.publicURL+"/")
}

func (s *MediaService) putObject(ctx context.Context, key string, body []byte, contentType, cacheControl string) error {
	_, err := s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// ParseImageSource turns a profileImage/imageUrl string into an ImageSource.
// Accepted forms are data:<mime>;base64,<payload> and http(s) URLs.
func ParseImageSource(raw string) (*domain.ImageSource, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "data:"):
		return parseDataURI(raw)
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return &domain.ImageSource{RemoteURL: raw}, nil
	default:
		return nil, domain.ErrInvalidImage
	}
}

func parseDataURI(raw string) (*domain.ImageSource, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, domain.ErrInvalidImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64 payload", domain.ErrInvalidImage)
	}

	return &domain.ImageSource{
		Data:        data,
		ContentType: strings.TrimSuffix(meta, ";base64"),
	}, nil
}

// ImageSourceFromMultipart reads an uploaded file part, enforcing maxSize.
func ImageSourceFromMultipart(file multipart.File, header *multipart.FileHeader, maxSize int64) (*domain.ImageSource, error) {
	if header.Size > maxSize {
		return nil, domain.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, domain.ErrFileTooLarge
	}

	return &domain.ImageSource{Data: data, ContentType: header.Header.Get("Content-Type")}, nil
}

// validateImage checks size and the sniffed content type.
func validateImage(data []byte, maxSize int64) (string, error) {
	if len(data) == 0 {
		return "", domain.ErrInvalidImage
	}
	if int64(len(data)) > maxSize {
		return "", domain.ErrFileTooLarge
	}

	contentType := http.DetectContentType(data[:min(len(data), 512)])
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !domain.IsAllowedImageType(contentType) {
		return "", domain.ErrInvalidImageType
	}
	return contentType, nil
}

// normalizeImage center-fills avatars and fits post images, then encodes as JPEG.
func normalizeImage(kind domain.ImageKind, data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImageType, err)
	}

	switch kind {
	case domain.ImageKindAvatar:
		img = imaging.Fill(img, domain.AvatarWidth, domain.AvatarHeight, imaging.Center, imaging.Lanczos)
	default:
		b := img.Bounds()
		if b.Dx() > domain.PostImageMaxWidth || b.Dy() > domain.PostImageMaxHeight {
			img = imaging.Fit(img, domain.PostImageMaxWidth, domain.PostImageMaxHeight, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(domain.ImageJPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// IsMediaClientError reports whether err should be answered with 400 rather than 500.
func IsMediaClientError(err error) bool {
	return errors.Is(err, domain.ErrFileTooLarge) ||
		errors.Is(err, domain.ErrInvalidImageType) ||
		errors.Is(err, domain.ErrInvalidImage)
}
