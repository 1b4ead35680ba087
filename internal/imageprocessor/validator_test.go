package imageprocessor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func newTestValidator() *Validator {
	return NewValidator(Options{MaxSize: 5 * 1024 * 1024})
}

func TestValidate_ValidImagesPass(t *testing.T) {
	v := newTestValidator()
	ctx := context.Background()

	for name, data := range map[string][]byte{
		"avatar.png": pngBytes(t),
		"PHOTO.JPG":  jpegBytes(t),
		"cover.jpeg": jpegBytes(t),
	} {
		r := bytes.NewReader(data)
		err := v.Validate(ctx, r, name, int64(len(data)))
		assert.NoError(t, err, name)

		// курсор возвращен в начало
		rest, _ := io.ReadAll(r)
		assert.Equal(t, data, rest, name)
	}
}

func TestValidate_NotAFile(t *testing.T) {
	err := newTestValidator().Validate(context.Background(), nil, "a.png", 10)
	vErr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, NotAFile, vErr.Kind)
}

func TestValidate_TooLargeCheckedBeforeFormat(t *testing.T) {
	v := newTestValidator()
	// 6 MiB заявлено, расширение тоже неверное: побеждает размер
	err := v.Validate(context.Background(), bytes.NewReader([]byte("x")), "doc.pdf", 6*1024*1024)
	vErr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, TooLarge, vErr.Kind)
	assert.Contains(t, vErr.Message, "5MB")
}

func TestValidate_TooLargeByActualContent(t *testing.T) {
	v := NewValidator(Options{MaxSize: 16})
	data := pngBytes(t)
	err := v.Validate(context.Background(), bytes.NewReader(data), "a.png", 10)
	vErr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, TooLarge, vErr.Kind)
}

func TestValidate_UnsupportedFormat(t *testing.T) {
	v := newTestValidator()
	for _, name := range []string{"anim.gif", "noext", "archive.png.zip"} {
		err := v.Validate(context.Background(), bytes.NewReader(pngBytes(t)), name, 100)
		vErr, ok := AsValidationError(err)
		require.True(t, ok, name)
		assert.Equal(t, UnsupportedFormat, vErr.Kind, name)
		assert.Contains(t, vErr.Message, "jpg, jpeg, png, webp")
	}
}

func TestValidate_InvalidImage(t *testing.T) {
	data := []byte("definitely not an image")
	err := newTestValidator().Validate(context.Background(), bytes.NewReader(data), "fake.png", int64(len(data)))
	vErr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, InvalidImage, vErr.Kind)
}

func TestValidate_TruncatedImageIsInvalid(t *testing.T) {
	data := pngBytes(t)
	data = data[:len(data)/2]
	err := newTestValidator().Validate(context.Background(), bytes.NewReader(data), "half.png", int64(len(data)))
	vErr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, InvalidImage, vErr.Kind)
}

func TestValidate_DecodeTimeout(t *testing.T) {
	v := NewValidator(Options{DecodeTimeout: 20 * time.Millisecond})
	release := make(chan struct{})
	defer close(release)
	v.decodeFn = func([]byte) error {
		<-release
		return nil
	}

	data := pngBytes(t)
	err := v.Validate(context.Background(), bytes.NewReader(data), "slow.png", int64(len(data)))
	vErr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, InvalidImage, vErr.Kind)
}

func TestPrepare_BuffersNonSeekable(t *testing.T) {
	v := newTestValidator()
	data := pngBytes(t)

	rs, err := v.Prepare(io.NopCloser(bytes.NewReader(data)))
	require.NoError(t, err)
	require.NoError(t, v.Validate(context.Background(), rs, "a.png", int64(len(data))))

	rest, _ := io.ReadAll(rs)
	assert.Equal(t, data, rest)
}
