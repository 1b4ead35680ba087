package assets

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"strings"

	"portfolio_backend/internal/logger"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/storage"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Store - файловое хранилище слотов: имена файлов, запись/удаление и вычисление URL.
// Store ничего не знает о БД.
type Store struct {
	backend  storage.Storage
	siteURL  string
	mediaURL string
}

func NewStore(backend storage.Storage, siteURL, mediaURL string) *Store {
	return &Store{
		backend:  backend,
		siteURL:  strings.TrimRight(siteURL, "/"),
		mediaURL: mediaURL,
	}
}

// Put записывает новый файл слота и возвращает относительный путь.
// Предыдущий файл не трогается.
func (s *Store) Put(ctx context.Context, ownerKey string, slot SlotSpec, blob io.Reader, filename string) (string, error) {
	ext := Extension(filename)
	name, err := storedName(slot.Prefix, ownerKey, ext)
	if err != nil {
		return "", err
	}
	p := path.Join(slot.Dir, name)

	contentType := mime.TypeByExtension("." + ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.backend.Save(ctx, p, blob, contentType); err != nil {
		logger.StorageLog("save", p, err)
		return "", err
	}
	logger.StorageLog("save", p, nil)
	return p, nil
}

// URLFor вычисляет публичный URL по относительному пути.
// Пустой путь -> nil. Без site_url возвращается относительный URL (media_url + path).
func (s *Store) URLFor(p string) *string {
	if p == "" {
		return nil
	}
	u := s.mediaURL + strings.TrimLeft(p, "/")
	if s.siteURL != "" && !strings.Contains(s.mediaURL, "://") {
		u = s.siteURL + u
	}
	return &u
}

// Remove удаляет файл. Отсутствующий файл - не ошибка.
func (s *Store) Remove(ctx context.Context, p string) error {
	if p == "" {
		return nil
	}
	exists, err := s.backend.Exists(ctx, p)
	if err != nil {
		logger.StorageLog("exists", p, err)
		return err
	}
	if !exists {
		return nil
	}
	if err := s.backend.Delete(ctx, p); err != nil {
		logger.StorageLog("delete", p, err)
		return err
	}
	logger.StorageLog("delete", p, nil)
	return nil
}

// Clear удаляет файл слота (если есть) и обнуляет ссылку. Идемпотентно.
func (s *Store) Clear(ctx context.Context, a *models.Asset) error {
	if a.File != "" {
		if err := s.Remove(ctx, a.File); err != nil {
			return err
		}
	}
	*a = models.Asset{}
	return nil
}

// Assign записывает в слот новый путь и производный URL
func (s *Store) Assign(a *models.Asset, p string) {
	a.File = p
	a.URL = s.URLFor(p)
	a.External = false
}

// Open открывает сохраненный файл на чтение
func (s *Store) Open(ctx context.Context, p string) (io.ReadCloser, int64, error) {
	size, err := s.backend.GetSize(ctx, p)
	if err != nil {
		return nil, 0, err
	}
	rc, err := s.backend.Get(ctx, p)
	if err != nil {
		return nil, 0, err
	}
	return rc, size, nil
}

// Extension возвращает расширение файла в нижнем регистре (после последней точки, без точки)
func Extension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// storedName: {prefix}_{owner}_{8 hex}.{ext}
func storedName(prefix, ownerKey, ext string) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate file name: %w", err)
	}
	owner := unsafeChars.ReplaceAllString(ownerKey, "")
	if owner == "" {
		owner = "anon"
	}
	name := fmt.Sprintf("%s_%s_%s", prefix, owner, hex.EncodeToString(buf))
	if ext != "" {
		name += "." + ext
	}
	return name, nil
}
