package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // register GIF decoder
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"path"
	"strings"

	"quill/internal/models"
	"quill/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 5
	ThumbnailWidth              = 960
	ThumbnailHeight             = 339
	WebPQuality                 = 80
	MaxImagePixels              = 40_000_000

	imageKeyPrefix = "posts/"
	thumbKeyPrefix = "posts/thumbs/"
)

// ImageUpload is a file received from a post form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImageService validates uploaded post images and writes them, together with
// a cropped WebP thumbnail, to the blob store.
type ImageService struct {
	store              storage.BlobStore
	maxUploadSizeBytes int64
}

func NewImageService(store storage.BlobStore, maxUploadMB int) *ImageService {
	if maxUploadMB <= 0 {
		maxUploadMB = DefaultImageMaxUploadSizeMB
	}
	return &ImageService{
		store:              store,
		maxUploadSizeBytes: int64(maxUploadMB) * 1024 * 1024,
	}
}

// Store validates in and returns the blob key of the saved original.
// Validation failures are field errors on "image".
func (s *ImageService) Store(ctx context.Context, in ImageUpload) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewFieldError("image", "The submitted file is empty.")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewFieldError("image", fmt.Sprintf("File too large (max %dMB).", s.maxUploadSizeBytes/(1024*1024)))
	}

	const invalid = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	if _, ok := formatForMIME(http.DetectContentType(in.Content)); !ok {
		return "", models.NewFieldError("image", invalid)
	}
	// Dimensions come from the header, before any pixels are allocated.
	dims, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewFieldError("image", invalid)
	}
	if dims.Width <= 0 || dims.Height <= 0 || int64(dims.Width)*int64(dims.Height) > MaxImagePixels {
		return "", models.NewFieldError("image", fmt.Sprintf("Image dimensions too large (max %d megapixels).", MaxImagePixels/1_000_000))
	}
	decoded, name, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewFieldError("image", invalid)
	}
	format, ok := imageFormats[name]
	if !ok {
		return "", models.NewFieldError("image", "Unsupported image format.")
	}
	if claimed, ok := formatForMIME(in.ContentType); ok && claimed != format {
		return "", models.NewFieldError("image", "Image content type mismatch.")
	}

	thumb, err := encodeWebP(Thumbnail(decoded, ThumbnailWidth, ThumbnailHeight), WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	id := uuid.NewString()
	key := imageKeyPrefix + id + format.ext
	if err := s.store.Put(ctx, key, format.mime, in.Content); err != nil {
		return "", models.NewInternalError(fmt.Errorf("store image: %w", err))
	}
	if err := s.store.Put(ctx, ThumbnailKey(key), "image/webp", thumb); err != nil {
		_ = s.store.Remove(ctx, key)
		return "", models.NewInternalError(fmt.Errorf("store thumbnail: %w", err))
	}
	return key, nil
}

// Remove deletes an image and its thumbnail.
func (s *ImageService) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.store.Remove(ctx, ThumbnailKey(key)); err != nil {
		return err
	}
	return s.store.Remove(ctx, key)
}

// URLs resolves the public addresses of an image and its thumbnail.
func (s *ImageService) URLs(key string) (imageURL, thumbnailURL string) {
	if key == "" {
		return "", ""
	}
	return s.store.URL(key), s.store.URL(ThumbnailKey(key))
}

// ThumbnailKey maps "posts/<id>.<ext>" to "posts/thumbs/<id>.webp".
func ThumbnailKey(key string) string {
	base := path.Base(key)
	return thumbKeyPrefix + strings.TrimSuffix(base, path.Ext(base)) + ".webp"
}

// Thumbnail crops src around its center to the w:h ratio and scales the
// crop to exactly w x h.
func Thumbnail(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	cropW, cropH := sw, sw*h/w
	if cropH > sh {
		cropW, cropH = sh*w/h, sh
	}
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}
	x := b.Min.X + (sw-cropW)/2
	y := b.Min.Y + (sh-cropH)/2
	cropped := cropToRect(src, x, y, cropW, cropH)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), xdraw.Over, nil)
	return dst
}

// cropToRect returns the w x h region of src at (x, y), sharing pixels
// when src supports SubImage.
func cropToRect(src image.Image, x, y, w, h int) image.Image {
	r := image.Rect(x, y, x+w, y+h)
	if sub, ok := src.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

type imageFormat struct {
	mime string
	ext  string
}

// imageFormats is keyed by the format name image.Decode reports.
var imageFormats = map[string]imageFormat{
	"jpeg": {mime: "image/jpeg", ext: ".jpg"},
	"png":  {mime: "image/png", ext: ".png"},
	"gif":  {mime: "image/gif", ext: ".gif"},
	"webp": {mime: "image/webp", ext: ".webp"},
}

// formatForMIME resolves a Content-Type header (parameters allowed,
// image/jpg accepted as an alias) to an accepted format.
func formatForMIME(contentType string) (imageFormat, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return imageFormat{}, false
	}
	if mediaType == "image/jpg" {
		mediaType = "image/jpeg"
	}
	for _, f := range imageFormats {
		if f.mime == mediaType {
			return f, true
		}
	}
	return imageFormat{}, false
}
