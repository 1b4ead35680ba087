package imageprocessor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

// FailureKind - причина отказа валидации
type FailureKind string

const (
	NotAFile          FailureKind = "not_a_file"
	TooLarge          FailureKind = "too_large"
	UnsupportedFormat FailureKind = "unsupported_format"
	InvalidImage      FailureKind = "invalid_image"
)

// ValidationError - типизированный отказ валидации файла
type ValidationError struct {
	Kind    FailureKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AsValidationError извлекает *ValidationError из цепочки
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}

// Options - параметры валидатора
type Options struct {
	MaxSize           int64
	AllowedExtensions []string
	DecodeTimeout     time.Duration
	// TempDir - каталог для временной копии при повторном декодировании (по умолчанию os.TempDir)
	TempDir string
}

// Validator проверяет загружаемые изображения: размер, расширение, полное декодирование
type Validator struct {
	maxSize       int64
	allowed       []string
	allowedSet    map[string]struct{}
	decodeTimeout time.Duration
	tempDir       string
	decodeFn      func(data []byte) error
}

func NewValidator(opts Options) *Validator {
	if opts.MaxSize <= 0 {
		opts.MaxSize = 5 * 1024 * 1024
	}
	if len(opts.AllowedExtensions) == 0 {
		opts.AllowedExtensions = []string{"jpg", "jpeg", "png", "webp"}
	}
	if opts.DecodeTimeout <= 0 {
		opts.DecodeTimeout = 5 * time.Second
	}

	set := make(map[string]struct{}, len(opts.AllowedExtensions))
	allowed := make([]string, 0, len(opts.AllowedExtensions))
	for _, ext := range opts.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		set[ext] = struct{}{}
		allowed = append(allowed, ext)
	}

	v := &Validator{
		maxSize:       opts.MaxSize,
		allowed:       allowed,
		allowedSet:    set,
		decodeTimeout: opts.DecodeTimeout,
		tempDir:       opts.TempDir,
	}
	v.decodeFn = v.decode
	return v
}

// Validate проверяет blob по порядку: файл -> размер -> расширение -> декодирование.
// Возвращает nil (годен), *ValidationError (отказ) или обычную ошибку ввода-вывода.
//
// После успешной проверки seekable blob перемотан в начало.
// Не-seekable blob вычитывается в память; в этом случае используйте Prepare.
func (v *Validator) Validate(ctx context.Context, blob io.Reader, filename string, size int64) error {
	if blob == nil {
		return &ValidationError{Kind: NotAFile, Message: "The submitted file is not a valid file"}
	}

	if size > v.maxSize {
		return &ValidationError{
			Kind:    TooLarge,
			Message: fmt.Sprintf("The file is too large. Max %s", humanSize(v.maxSize)),
		}
	}

	ext := extension(filename)
	if _, ok := v.allowedSet[ext]; !ok {
		return &ValidationError{
			Kind:    UnsupportedFormat,
			Message: "Unsupported file format. Accepted formats: " + strings.Join(v.allowed, ", "),
		}
	}

	rs, ok := blob.(io.ReadSeeker)
	if !ok {
		return fmt.Errorf("blob is not seekable, use Prepare first")
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind upload: %w", err)
	}

	if err := v.decodeWithTimeout(ctx, rs); err != nil {
		return err
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind upload: %w", err)
	}
	return nil
}

// Prepare возвращает seekable reader: сам blob, если он уже seekable,
// иначе копию в памяти, ограниченную maxSize+1 байт.
func (v *Validator) Prepare(blob io.Reader) (io.ReadSeeker, error) {
	if blob == nil {
		return nil, nil
	}
	if rs, ok := blob.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(io.LimitReader(blob, v.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return bytes.NewReader(data), nil
}

// decodeWithTimeout декодирует изображение целиком; зависшее декодирование = InvalidImage
func (v *Validator) decodeWithTimeout(ctx context.Context, rs io.ReadSeeker) error {
	ctx, cancel := context.WithTimeout(ctx, v.decodeTimeout)
	defer cancel()

	// Декодируем из отдельной копии, чтобы горутина не трогала blob после таймаута
	data, err := io.ReadAll(io.LimitReader(rs, v.maxSize+1))
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	// Заявленный размер мог быть занижен клиентом
	if int64(len(data)) > v.maxSize {
		return &ValidationError{
			Kind:    TooLarge,
			Message: fmt.Sprintf("The file is too large. Max %s", humanSize(v.maxSize)),
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- v.decodeFn(data)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return &ValidationError{Kind: InvalidImage, Message: "The image could not be processed in time"}
	}
}

// decode: сначала из памяти, при неудаче - повторно через временный файл
func (v *Validator) decode(data []byte) error {
	if _, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return nil
	}

	ok, err := v.decodeViaTempFile(data)
	if err != nil {
		return err
	}
	if !ok {
		return &ValidationError{Kind: InvalidImage, Message: "The uploaded file is not a valid image"}
	}
	return nil
}

func (v *Validator) decodeViaTempFile(data []byte) (bool, error) {
	tmp, err := os.CreateTemp(v.tempDir, "upload-*")
	if err != nil {
		return false, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.Write(data); err != nil {
		return false, fmt.Errorf("failed to write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("failed to rewind temp file: %w", err)
	}

	_, _, err = image.Decode(tmp)
	return err == nil, nil
}

func extension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
