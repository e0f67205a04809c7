package model

import "errors"

// ImageKind selects the normalization and folder applied to an upload.
type ImageKind string

const (
	ImageKindAvatar ImageKind = "avatar"
	ImageKindPost   ImageKind = "post"
)

const (
	MaxAvatarSizeBytes    = 5 * 1024 * 1024  // 5MB
	MaxPostImageSizeBytes = 10 * 1024 * 1024 // 10MB
	AvatarWidth           = 200
	AvatarHeight          = 200
	PostImageMaxWidth     = 1080
	PostImageMaxHeight    = 1350
	AvatarFolder          = "avatars"
	PostImageFolder       = "posts"
	ImageExt              = ".jpg"
	ImageCacheControl     = "public, max-age=31536000" // 1 year
	ImageJPEGQuality      = 85
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

// ImageSource is an image payload as received: raw bytes (multipart or data URI) or a remote URL.
type ImageSource struct {
	Data        []byte
	ContentType string
	RemoteURL   string
}

// MaxSize returns the upload limit for the kind.
func (k ImageKind) MaxSize() int64 {
	if k == ImageKindAvatar {
		return MaxAvatarSizeBytes
	}
	return MaxPostImageSizeBytes
}

// Folder returns the bucket prefix for the kind.
func (k ImageKind) Folder() string {
	if k == ImageKindAvatar {
		return AvatarFolder
	}
	return PostImageFolder
}

// Domain errors for media operations
var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
	ErrInvalidImage     = errors.New("image must be a data URI or an http(s) URL")
	ErrUploadFailed     = errors.New("image upload failed")
)

// UploadResult represents the uploaded object location
// URL is the public-facing URL
// Key is the object key inside the bucket (used for deletes)
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
