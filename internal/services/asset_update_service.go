package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"reflect"
	"strings"

	"portfolio_backend/internal/assets"
	"portfolio_backend/internal/imageprocessor"
	"portfolio_backend/internal/lock"
	"portfolio_backend/internal/logger"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/services/dto"
	"portfolio_backend/internal/validator"
	"portfolio_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AssetUpdateService - единая точка изменения сущностей со слотами изображений:
// скалярные поля и файлы меняются вместе, одним UPDATE.
type AssetUpdateService interface {
	// Apply применяет запрос к сущности. entity после успешного вызова содержит свежее состояние.
	Apply(ctx context.Context, db *gorm.DB, entity models.AssetEntity, req *dto.UpdateRequest) (*dto.AppliedSummary, error)
	// Destroy удаляет запись, затем файлы всех ее слотов
	Destroy(ctx context.Context, db *gorm.DB, entity models.AssetEntity) error
	// Files - сохраненные файлы всех слотов сущности
	Files(entity models.AssetEntity) []string
	// RemoveFiles удаляет файлы; ошибки только логируются
	RemoveFiles(ctx context.Context, files []string)
	// ResyncURLs пересчитывает производные URL по текущей конфигурации
	ResyncURLs(ctx context.Context, db *gorm.DB) (int, error)
}

type AssetUpdateServiceImpl struct {
	store     *assets.Store
	images    *imageprocessor.Validator
	locker    lock.Locker
	validator *validator.Validator
}

func NewAssetUpdateService(
	store *assets.Store,
	images *imageprocessor.Validator,
	locker lock.Locker,
	v *validator.Validator,
) AssetUpdateService {
	return &AssetUpdateServiceImpl{
		store:     store,
		images:    images,
		locker:    locker,
		validator: v,
	}
}

// slotChange - что делать со слотом. Приоритет: upload > external > delete.
type slotChange struct {
	spec     assets.SlotSpec
	upload   *preparedUpload
	external *string
	delete   bool
}

type preparedUpload struct {
	filename string
	content  io.Reader
}

func (s *AssetUpdateServiceImpl) Apply(ctx context.Context, db *gorm.DB, entity models.AssetEntity, req *dto.UpdateRequest) (*dto.AppliedSummary, error) {
	spec, ok := assets.Lookup(entity.EntityKind())
	if !ok {
		return nil, apperrors.ErrInvalidOperation("assets", fmt.Sprintf("%s has no image slots", entity.EntityKind()))
	}
	if req == nil {
		req = dto.NewUpdateRequest()
	}

	if err := s.checkKeys(spec, req); err != nil {
		return nil, err
	}

	// Все загрузки проверяются до любых изменений
	plan, err := s.plan(ctx, spec, req)
	if err != nil {
		return nil, err
	}

	release, err := lock.AcquireAll(ctx, s.locker, lockKeys(entity, plan, len(req.Fields) > 0))
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			return nil, apperrors.ErrConflict("The resource is being updated by another request, try again")
		}
		return nil, apperrors.InternalError(err)
	}
	defer release()

	current := newLike(entity)
	var (
		written []string
		retired []string
		updated []string
		deleted []string
		changed bool
	)

	txErr := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(current, "id = ?", entity.GetID()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound(err)
			}
			return err
		}

		cols, err := changedFields(tx, current, req.Fields)
		if err != nil {
			return err
		}
		changed = len(cols) > 0

		for _, ch := range plan {
			slot := current.AssetSlot(ch.spec.Name)
			old := slot.File

			switch {
			case ch.upload != nil:
				p, err := s.store.Put(ctx, current.OwnerKey(), ch.spec, ch.upload.content, ch.upload.filename)
				if err != nil {
					return apperrors.ErrStorageFailure(err)
				}
				written = append(written, p)
				s.store.Assign(slot, p)
				updated = append(updated, ch.spec.UpdatedAction)
			case ch.external != nil:
				u := *ch.external
				*slot = models.Asset{URL: &u, External: true}
				updated = append(updated, ch.spec.UpdatedAction)
			case ch.delete:
				if slot.IsEmpty() && slot.URL == nil {
					continue
				}
				*slot = models.Asset{}
				deleted = append(deleted, ch.spec.DeletedAction)
			}

			if old != "" && old != slot.File {
				retired = append(retired, old)
			}
			maps.Copy(cols, slot.Columns(ch.spec.Column))
		}

		if len(cols) == 0 {
			return nil
		}
		if err := tx.Model(current).Updates(cols).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrAlreadyExists(err)
			}
			return err
		}
		return nil
	})

	if txErr != nil {
		// Новые файлы не должны пережить откат
		s.RemoveFiles(ctx, written)
		if _, ok := apperrors.AsAppError(txErr); ok {
			return nil, txErr
		}
		return nil, apperrors.InternalError(txErr)
	}

	// Старые файлы удаляются только после commit. Ошибка не откатывает ссылку на новый файл.
	s.RemoveFiles(ctx, retired)

	if err := db.WithContext(ctx).First(current, "id = ?", entity.GetID()).Error; err != nil {
		return nil, apperrors.InternalError(err)
	}
	reflect.ValueOf(entity).Elem().Set(reflect.ValueOf(current).Elem())

	actions := append(updated, deleted...)
	if changed {
		actions = append(actions, spec.FieldsAction)
	}
	if len(actions) == 0 {
		actions = []string{assets.NoChangesAction}
	}
	for _, a := range actions {
		logger.CtxInfo(ctx, "Entity updated", "kind", spec.Kind, "id", entity.GetID(), "action", a)
	}

	return &dto.AppliedSummary{Message: spec.Message, Actions: actions}, nil
}

// checkKeys отклоняет неизвестные поля и слоты
func (s *AssetUpdateServiceImpl) checkKeys(spec assets.KindSpec, req *dto.UpdateRequest) error {
	unknown := map[string]string{}
	for col := range req.Fields {
		if !spec.AcceptsField(col) {
			unknown[col] = "Unknown field"
		}
	}
	checkSlot := func(name models.SlotName) {
		if _, ok := spec.Slot(name); !ok {
			unknown[string(name)] = "Unknown image slot"
		}
	}
	for name := range req.Uploads {
		checkSlot(name)
	}
	for name := range req.Deletes {
		checkSlot(name)
	}
	for name := range req.ExternalURLs {
		checkSlot(name)
	}
	if len(unknown) > 0 {
		return apperrors.ErrFieldValidation(unknown)
	}
	return nil
}

// plan проверяет загрузки и внешние URL и строит список изменений в порядке таблицы слотов
func (s *AssetUpdateServiceImpl) plan(ctx context.Context, spec assets.KindSpec, req *dto.UpdateRequest) ([]slotChange, error) {
	var plan []slotChange

	for _, slot := range spec.Slots {
		ch := slotChange{spec: slot}

		if up, ok := req.Uploads[slot.Name]; ok {
			prepared, err := s.validateUpload(ctx, slot, up)
			if err != nil {
				return nil, err
			}
			ch.upload = prepared
		} else if u, ok := req.ExternalURLs[slot.Name]; ok && strings.TrimSpace(u) != "" {
			u = strings.TrimSpace(u)
			if err := s.validator.ValidateVar(slot.URLKey, u, "url"); err != nil {
				var vErr *validator.ValidationError
				if errors.As(err, &vErr) {
					return nil, apperrors.ErrFieldValidation(vErr.Errors)
				}
				return nil, apperrors.InternalError(err)
			}
			ch.external = &u
		} else if req.Deletes[slot.Name] {
			ch.delete = true
		} else {
			continue
		}

		plan = append(plan, ch)
	}
	return plan, nil
}

func (s *AssetUpdateServiceImpl) validateUpload(ctx context.Context, slot assets.SlotSpec, up *dto.Upload) (*preparedUpload, error) {
	if up == nil || up.Content == nil {
		return nil, apperrors.ErrNotAFile(slot.UploadKey)
	}

	rs, err := s.images.Prepare(up.Content)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.images.Validate(ctx, rs, up.Filename, up.Size); err != nil {
		vErr, ok := imageprocessor.AsValidationError(err)
		if !ok {
			return nil, apperrors.InternalError(err)
		}
		logger.CtxWarn(ctx, "Upload rejected", "field", slot.UploadKey, "reason", vErr.Kind)
		switch vErr.Kind {
		case imageprocessor.NotAFile:
			return nil, apperrors.ErrNotAFile(slot.UploadKey)
		case imageprocessor.TooLarge:
			return nil, apperrors.ErrFileTooLarge(slot.UploadKey, vErr.Message)
		case imageprocessor.UnsupportedFormat:
			return nil, apperrors.ErrUnsupportedFormat(slot.UploadKey, vErr.Message)
		default:
			return nil, apperrors.ErrInvalidImage(slot.UploadKey, vErr.Message)
		}
	}

	return &preparedUpload{filename: up.Filename, content: rs}, nil
}

func (s *AssetUpdateServiceImpl) Destroy(ctx context.Context, db *gorm.DB, entity models.AssetEntity) error {
	spec, ok := assets.Lookup(entity.EntityKind())
	if !ok {
		return apperrors.ErrInvalidOperation("assets", fmt.Sprintf("%s has no image slots", entity.EntityKind()))
	}

	keys := make([]string, 0, len(spec.Slots))
	for _, slot := range spec.Slots {
		keys = append(keys, slotLockKey(entity, slot.Name))
	}
	release, err := lock.AcquireAll(ctx, s.locker, keys)
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			return apperrors.ErrConflict("The resource is being updated by another request, try again")
		}
		return apperrors.InternalError(err)
	}
	defer release()

	files := s.Files(entity)
	if err := db.WithContext(ctx).Delete(entity).Error; err != nil {
		return apperrors.InternalError(err)
	}

	// Запись удалена: файлы слотов больше никем не используются
	for _, slot := range spec.Slots {
		if a := entity.AssetSlot(slot.Name); a != nil {
			if err := s.store.Clear(ctx, a); err != nil {
				logger.CtxWarn(ctx, "Failed to remove stored file", "kind", spec.Kind, "slot", slot.Name, "error", err)
			}
		}
	}
	logger.CtxInfo(ctx, "Entity deleted", "kind", spec.Kind, "id", entity.GetID(), "files", len(files))
	return nil
}

func (s *AssetUpdateServiceImpl) Files(entity models.AssetEntity) []string {
	spec, ok := assets.Lookup(entity.EntityKind())
	if !ok {
		return nil
	}
	var files []string
	for _, slot := range spec.Slots {
		if a := entity.AssetSlot(slot.Name); a != nil && a.File != "" {
			files = append(files, a.File)
		}
	}
	return files
}

func (s *AssetUpdateServiceImpl) RemoveFiles(ctx context.Context, files []string) {
	for _, f := range files {
		if err := s.store.Remove(ctx, f); err != nil {
			logger.CtxWarn(ctx, "Failed to remove stored file", "path", f, "error", err)
		}
	}
}

func (s *AssetUpdateServiceImpl) ResyncURLs(ctx context.Context, db *gorm.DB) (int, error) {
	total := 0
	for _, spec := range assets.Kinds() {
		var (
			n   int
			err error
		)
		switch spec.Kind {
		case models.KindUser:
			n, err = resyncKind[models.User](ctx, db, s.store, spec)
		case models.KindProject:
			n, err = resyncKind[models.Project](ctx, db, s.store, spec)
		case models.KindService:
			n, err = resyncKind[models.Service](ctx, db, s.store, spec)
		case models.KindSocialType:
			n, err = resyncKind[models.SocialType](ctx, db, s.store, spec)
		}
		if err != nil {
			return total, apperrors.InternalError(err)
		}
		total += n
	}
	logger.CtxInfo(ctx, "Asset URLs resynced", "updated", total)
	return total, nil
}

const resyncBatchSize = 100

func resyncKind[T any, PT interface {
	*T
	models.AssetEntity
}](ctx context.Context, db *gorm.DB, store *assets.Store, spec assets.KindSpec) (int, error) {
	base := db.WithContext(ctx)
	updated := 0

	var batch []T
	res := base.Model(new(T)).FindInBatches(&batch, resyncBatchSize, func(_ *gorm.DB, _ int) error {
		for i := range batch {
			entity := PT(&batch[i])
			cols := map[string]any{}
			for _, slot := range spec.Slots {
				a := entity.AssetSlot(slot.Name)
				if a.External {
					continue
				}
				want := store.URLFor(a.File)
				if sameURL(a.URL, want) {
					continue
				}
				cols[slot.Column+"url"] = want
			}
			if len(cols) == 0 {
				continue
			}
			if err := base.Session(&gorm.Session{NewDB: true}).Model(entity).UpdateColumns(cols).Error; err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	return updated, res.Error
}

func sameURL(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// changedFields оставляет только поля, значения которых отличаются от текущих
func changedFields(db *gorm.DB, entity models.AssetEntity, fields map[string]any) (map[string]any, error) {
	cols := map[string]any{}
	if len(fields) == 0 {
		return cols, nil
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(entity); err != nil {
		return nil, err
	}
	rv := reflect.Indirect(reflect.ValueOf(entity))

	for col, val := range fields {
		field := stmt.Schema.LookUpField(col)
		if field == nil {
			return nil, apperrors.ErrFieldValidation(map[string]string{col: "Unknown field"})
		}
		cur, _ := field.ValueOf(db.Statement.Context, rv)
		if !sameValue(deref(cur), deref(val)) {
			cols[col] = val
		}
	}
	return cols, nil
}

// sameValue сравнивает значения колонок; JSON сравнивается по содержимому,
// т.к. postgres jsonb возвращает его в другом форматировании
func sameValue(cur, val any) bool {
	curJSON, ok1 := cur.(datatypes.JSON)
	valJSON, ok2 := val.(datatypes.JSON)
	if !ok1 || !ok2 {
		return reflect.DeepEqual(cur, val)
	}
	return reflect.DeepEqual(decodeJSON(curJSON), decodeJSON(valJSON))
}

func decodeJSON(raw datatypes.JSON) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

// newLike создает пустой экземпляр того же типа, что и entity
func newLike(entity models.AssetEntity) models.AssetEntity {
	return reflect.New(reflect.TypeOf(entity).Elem()).Interface().(models.AssetEntity)
}

func slotLockKey(entity models.AssetEntity, slot models.SlotName) string {
	return fmt.Sprintf("%s:%s:%s", entity.EntityKind(), entity.GetID(), slot)
}

func lockKeys(entity models.AssetEntity, plan []slotChange, withFields bool) []string {
	keys := make([]string, 0, len(plan)+1)
	for _, ch := range plan {
		keys = append(keys, slotLockKey(entity, ch.spec.Name))
	}
	if withFields {
		keys = append(keys, fmt.Sprintf("%s:%s:fields", entity.EntityKind(), entity.GetID()))
	}
	return keys
}
