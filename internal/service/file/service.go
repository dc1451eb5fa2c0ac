package file

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoding for uploaded photos
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	maxPhotoBytes  = 150 * 1024
	maxPhotoWidth  = 1280
	maxUploadBytes = 10 << 20
)

var allowedPhotoExts = []string{".jpg", ".jpeg", ".png"}

type FileService interface {
	// UploadAttendancePhoto stores a check-in picture as JPEG and returns its public URL.
	UploadAttendancePhoto(ctx context.Context, userID string, date time.Time, file io.Reader, filename string) (string, error)
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{storage: storage}
}

func (s *fileServiceImpl) UploadAttendancePhoto(ctx context.Context, userID string, date time.Time, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !isAllowedExt(ext) {
		return "", fmt.Errorf("invalid file type %q: only jpg, jpeg, png allowed", ext)
	}

	buffer, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}
	if len(buffer) > maxUploadBytes {
		return "", fmt.Errorf("photo exceeds %d bytes", maxUploadBytes)
	}

	compressed, err := compressImage(buffer, maxPhotoBytes, maxPhotoWidth)
	if err != nil {
		return "", fmt.Errorf("failed to compress photo: %w", err)
	}

	// attendance/{date}/{userID}-{uuid}.jpg
	path := filepath.Join("attendance", date.Format("2006-01-02"), fmt.Sprintf("%s-%s.jpg", userID, uuid.NewString()))

	key, err := s.storage.Upload(ctx, bytes.NewReader(compressed), path)
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}
	return s.storage.URL(key), nil
}

func isAllowedExt(ext string) bool {
	for _, allowed := range allowedPhotoExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

// compressImage re-encodes buffer as JPEG no wider than maxWidth, lowering quality until
// the output fits maxSize or quality reaches 50.
func compressImage(buffer []byte, maxSize, maxWidth int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(buffer))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if b := img.Bounds(); b.Dx() > maxWidth {
		height := b.Dy() * maxWidth / b.Dx()
		if height < 1 {
			height = 1
		}
		img = resizeImage(img, maxWidth, height)
	}

	var out []byte
	for quality := 85; quality >= 50; quality -= 5 {
		buf := new(bytes.Buffer)
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		out = buf.Bytes()
		if len(out) <= maxSize {
			break
		}
	}
	return out, nil
}

func resizeImage(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
