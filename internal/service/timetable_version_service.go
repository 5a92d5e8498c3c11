package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type timetableVersionRepository interface {
	DeactivateAll(ctx context.Context, exec sqlx.ExtContext, timetableID string) error
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, version *models.TimetableVersion) error
	ListByTimetable(ctx context.Context, timetableID string) ([]models.TimetableVersion, error)
	FindActive(ctx context.Context, exec sqlx.ExtContext, timetableID string) (*models.TimetableVersion, error)
	FindByID(ctx context.Context, id string) (*models.TimetableVersion, error)
}

type timetableChangeLogRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, log *models.TimetableChangeLog) error
	ListByVersion(ctx context.Context, versionID string) ([]models.TimetableChangeLog, error)
}

type timetableReader interface {
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	LockForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) error
}

// TimetableVersionService keeps the single-active version chain of each
// timetable and its audit log. Change logs never touch entries.
type TimetableVersionService struct {
	timetables timetableReader
	versions   timetableVersionRepository
	changes    timetableChangeLogRepository
	tx         txProvider
	locker     TimetableLocker
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewTimetableVersionService wires dependencies.
func NewTimetableVersionService(
	timetables timetableReader,
	versions timetableVersionRepository,
	changes timetableChangeLogRepository,
	tx txProvider,
	locker TimetableLocker,
	validate *validator.Validate,
	logger *zap.Logger,
) *TimetableVersionService {
	if locker == nil {
		locker = NewKeyedTimetableLocker(0)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableVersionService{
		timetables: timetables,
		versions:   versions,
		changes:    changes,
		tx:         tx,
		locker:     locker,
		validator:  validate,
		logger:     logger,
	}
}

// CreateVersion deactivates every version of the timetable and inserts the
// next number as active, using the caller's transaction.
func (s *TimetableVersionService) CreateVersion(ctx context.Context, exec sqlx.ExtContext, timetableID, description, actor string) (*models.TimetableVersion, error) {
	if err := s.versions.DeactivateAll(ctx, exec, timetableID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate timetable versions")
	}
	version := &models.TimetableVersion{
		TimetableID: timetableID,
		Description: description,
		IsActive:    true,
		CreatedBy:   actor,
	}
	if err := s.versions.CreateVersioned(ctx, exec, version); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable version")
	}
	return version, nil
}

// CreateManualVersion records a version marker outside generation. It holds
// the same timetable lock as generation so version numbers never collide.
func (s *TimetableVersionService) CreateManualVersion(ctx context.Context, actor string, req dto.CreateVersionRequest) (*models.TimetableVersion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid version payload")
	}
	if err := s.ensureTimetable(ctx, req.TimetableID); err != nil {
		return nil, err
	}
	release, err := s.locker.Acquire(ctx, req.TimetableID)
	if err != nil {
		return nil, err
	}
	defer release()

	var version *models.TimetableVersion
	err = runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.timetables.LockForUpdate(ctx, tx, req.TimetableID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock timetable")
		}
		created, err := s.CreateVersion(ctx, tx, req.TimetableID, req.Description, actor)
		if err != nil {
			return err
		}
		version = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("timetable version created", zap.String("timetable_id", req.TimetableID), zap.Int("version", version.VersionNumber), zap.String("actor", actor))
	return version, nil
}

// ListVersions returns the versions of a timetable newest first.
func (s *TimetableVersionService) ListVersions(ctx context.Context, timetableID string) ([]models.TimetableVersion, error) {
	if err := s.ensureTimetable(ctx, timetableID); err != nil {
		return nil, err
	}
	versions, err := s.versions.ListByTimetable(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable versions")
	}
	if versions == nil {
		versions = []models.TimetableVersion{}
	}
	return versions, nil
}

// ActiveVersion returns the active version, or nil when the timetable has none.
func (s *TimetableVersionService) ActiveVersion(ctx context.Context, exec sqlx.ExtContext, timetableID string) (*models.TimetableVersion, error) {
	version, err := s.versions.FindActive(ctx, exec, timetableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active version")
	}
	return version, nil
}

// RecordChange appends an audit record under versionID.
func (s *TimetableVersionService) RecordChange(ctx context.Context, exec sqlx.ExtContext, versionID string, action models.ChangeAction, oldValue, newValue *models.EntrySnapshot, actor string, reason *string) (*models.TimetableChangeLog, error) {
	if !action.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown change action %q", action))
	}
	oldJSON, err := snapshotJSON(oldValue)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode old value")
	}
	newJSON, err := snapshotJSON(newValue)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode new value")
	}
	log := &models.TimetableChangeLog{
		VersionID: versionID,
		Action:    action,
		OldValue:  oldJSON,
		NewValue:  newJSON,
		ChangedBy: actor,
		Reason:    reason,
	}
	if err := s.changes.Create(ctx, exec, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record timetable change")
	}
	return log, nil
}

// AddChange validates an explicit audit request against the version's timetable.
func (s *TimetableVersionService) AddChange(ctx context.Context, timetableID, actor string, req dto.RecordChangeRequest) (*models.TimetableChangeLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change payload")
	}
	if req.OldValue == nil && req.NewValue == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "oldValue or newValue is required")
	}
	if _, err := s.versionOf(ctx, timetableID, req.VersionID); err != nil {
		return nil, err
	}
	return s.RecordChange(ctx, nil, req.VersionID, models.ChangeAction(req.Action), req.OldValue, req.NewValue, actor, req.Reason)
}

// ListChanges returns the audit log of a version.
func (s *TimetableVersionService) ListChanges(ctx context.Context, timetableID, versionID string) ([]models.TimetableChangeLog, error) {
	if _, err := s.versionOf(ctx, timetableID, versionID); err != nil {
		return nil, err
	}
	logs, err := s.changes.ListByVersion(ctx, versionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable changes")
	}
	if logs == nil {
		logs = []models.TimetableChangeLog{}
	}
	return logs, nil
}

func (s *TimetableVersionService) versionOf(ctx context.Context, timetableID, versionID string) (*models.TimetableVersion, error) {
	version, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable version not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable version")
	}
	if version.TimetableID != timetableID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable version not found")
	}
	return version, nil
}

func (s *TimetableVersionService) ensureTimetable(ctx context.Context, id string) error {
	if s.timetables == nil {
		return nil
	}
	if _, err := s.timetables.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return nil
}

func snapshotJSON(snapshot *models.EntrySnapshot) (types.JSONText, error) {
	if snapshot == nil {
		return types.JSONText(`null`), nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	return types.JSONText(raw), nil
}
