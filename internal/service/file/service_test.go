package file

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	objects map[string][]byte
	err     error
}

func (m *memoryStorage) Upload(ctx context.Context, content io.Reader, path string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	m.objects[path] = data
	return path, nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) URL(key string) string {
	return "/uploads/" + key
}

func pngFixture(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadAttendancePhoto(t *testing.T) {
	store := &memoryStorage{objects: map[string][]byte{}}
	svc := NewFileService(store)
	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	url, err := svc.UploadAttendancePhoto(context.Background(), "user-1", date, bytes.NewReader(pngFixture(t, 2000, 100)), "me.PNG")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "/uploads/attendance/2024-06-10/user-1-"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))
	require.Len(t, store.objects, 1)

	for _, data := range store.objects {
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, maxPhotoWidth, cfg.Width)
		assert.Equal(t, 64, cfg.Height)
	}
}

func TestUploadAttendancePhoto_Rejects(t *testing.T) {
	store := &memoryStorage{objects: map[string][]byte{}}
	svc := NewFileService(store)
	ctx := context.Background()

	_, err := svc.UploadAttendancePhoto(ctx, "user-1", time.Now(), strings.NewReader("x"), "notes.pdf")
	assert.ErrorContains(t, err, "invalid file type")

	_, err = svc.UploadAttendancePhoto(ctx, "user-1", time.Now(), strings.NewReader("not an image"), "me.jpg")
	assert.ErrorContains(t, err, "decode")

	store.err = errors.New("disk full")
	_, err = svc.UploadAttendancePhoto(ctx, "user-1", time.Now(), bytes.NewReader(pngFixture(t, 10, 10)), "me.png")
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, store.objects)
}
