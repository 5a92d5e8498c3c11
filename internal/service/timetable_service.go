package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

// AuditJobType identifies post-generation conflict audit jobs.
const AuditJobType = "timetable.conflict_audit"

type timetableRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	LockForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type timetableEntryRepository interface {
	ListByTimetable(ctx context.Context, exec sqlx.ExtContext, timetableID string) ([]models.TimetableEntry, error)
	ListLocked(ctx context.Context, exec sqlx.ExtContext, timetableID string) ([]models.TimetableEntry, error)
	ListBySlot(ctx context.Context, exec sqlx.ExtContext, timetableID, day string, period int) ([]models.TimetableEntry, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, timetableID, id string) (*models.TimetableEntry, error)
	DeleteUnlocked(ctx context.Context, exec sqlx.ExtContext, timetableID string) (int64, error)
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error
	Create(ctx context.Context, exec sqlx.ExtContext, entry *models.TimetableEntry) error
	Update(ctx context.Context, exec sqlx.ExtContext, entry *models.TimetableEntry) error
	Delete(ctx context.Context, exec sqlx.ExtContext, timetableID, id string) error
}

type timetableAssignmentProvider interface {
	Load(ctx context.Context) ([]TimetableAssignment, error)
}

type auditEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// TimetableServiceConfig tunes the orchestrator.
type TimetableServiceConfig struct {
	ConflictCacheTTL time.Duration
	Random           RandomSource
}

// TimetableService runs generation, conflict detection and manual edits. Every
// write holds the per-timetable lock and a row lock inside its transaction.
type TimetableService struct {
	timetables timetableRepository
	entries    timetableEntryRepository
	configs    *TimetableConfigService
	loader     timetableAssignmentProvider
	placer     *TimetablePlacer
	versions   *TimetableVersionService
	locker     TimetableLocker
	tx         txProvider
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        TimetableServiceConfig
	audit      auditEnqueuer
}

// NewTimetableService wires the engine.
func NewTimetableService(
	timetables timetableRepository,
	entries timetableEntryRepository,
	configs *TimetableConfigService,
	loader timetableAssignmentProvider,
	placer *TimetablePlacer,
	versions *TimetableVersionService,
	locker TimetableLocker,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if placer == nil {
		placer = NewTimetablePlacer(logger)
	}
	if locker == nil {
		locker = NewKeyedTimetableLocker(0)
	}
	if cfg.Random == nil {
		cfg.Random = NewRandomSource(0)
	}
	if cfg.ConflictCacheTTL <= 0 {
		cfg.ConflictCacheTTL = 5 * time.Minute
	}
	return &TimetableService{
		timetables: timetables,
		entries:    entries,
		configs:    configs,
		loader:     loader,
		placer:     placer,
		versions:   versions,
		locker:     locker,
		tx:         tx,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// SetAuditQueue attaches the background conflict audit queue.
func (s *TimetableService) SetAuditQueue(queue auditEnqueuer) {
	s.audit = queue
}

// Generate replaces every unlocked entry with a fresh placement and records a
// new active version, all in one transaction.
func (s *TimetableService) Generate(ctx context.Context, actor string, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}
	if err := s.ensureTimetable(ctx, req.TimetableID); err != nil {
		return nil, err
	}
	cfg, err := s.configs.Resolve(ctx, req.ConfigID)
	if err != nil {
		return nil, err
	}
	grid, err := NewTimetableGrid(*cfg)
	if err != nil {
		return nil, err
	}

	var assignments []TimetableAssignment
	if req.Assignments != nil {
		assignments = assignmentsFromRequest(req.Assignments)
	} else {
		if s.loader == nil {
			return nil, appErrors.Clone(appErrors.ErrInternal, "assignment loader unavailable")
		}
		if assignments, err = s.loader.Load(ctx); err != nil {
			return nil, err
		}
	}

	release, err := s.locker.Acquire(ctx, req.TimetableID)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	var (
		result  PlacementResult
		version *models.TimetableVersion
		locked  int
	)
	err = runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.lockRow(ctx, tx, req.TimetableID); err != nil {
			return err
		}
		pinned, err := s.entries.ListLocked(ctx, tx, req.TimetableID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locked entries")
		}
		locked = len(pinned)

		result = s.placer.Place(req.TimetableID, grid, cfg.Preferences, pinned, assignments, s.cfg.Random())

		if _, err := s.entries.DeleteUnlocked(ctx, tx, req.TimetableID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear unlocked entries")
		}
		if err := s.entries.UpsertBatch(ctx, tx, result.Entries); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable entries")
		}
		description := req.Description
		if description == "" {
			description = fmt.Sprintf("generated %d periods, %d skipped", result.Generated, len(result.Skipped))
		}
		version, err = s.versions.CreateVersion(ctx, tx, req.TimetableID, description, actor)
		return err
	})
	if err != nil {
		s.metrics.ObserveGeneration("error", 0, 0, time.Since(start))
		return nil, err
	}
	duration := time.Since(start)
	s.metrics.ObserveGeneration("success", result.Generated, len(result.Skipped), duration)

	s.invalidateConflicts(ctx, req.TimetableID)
	s.enqueueAudit(req.TimetableID)

	s.logger.Info("timetable generated",
		zap.String("timetable_id", req.TimetableID),
		zap.String("config_id", cfg.ID),
		zap.Int("assignments", len(assignments)),
		zap.Int("locked", locked),
		zap.Int("placed", result.Generated),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("version", version.VersionNumber),
		zap.Duration("duration", duration),
	)

	skipped := make([]dto.SkippedPeriodResponse, 0, len(result.Skipped))
	for _, item := range result.Skipped {
		skipped = append(skipped, dto.SkippedPeriodResponse{
			TeacherID: item.TeacherID,
			ClassID:   item.ClassID,
			SubjectID: item.SubjectID,
			Unit:      item.Unit,
		})
	}
	return &dto.GenerateTimetableResponse{
		Entries:       result.Entries,
		SkippedCount:  len(result.Skipped),
		Skipped:       skipped,
		VersionNumber: version.VersionNumber,
	}, nil
}

// DetectConflicts scans every entry of the timetable. Reports are cached until
// the next write to the timetable.
func (s *TimetableService) DetectConflicts(ctx context.Context, timetableID string) (*dto.ConflictReport, error) {
	if err := s.ensureTimetable(ctx, timetableID); err != nil {
		return nil, err
	}
	var cached dto.ConflictReport
	if hit, _ := s.cache.Get(ctx, conflictReportKey(timetableID), &cached); hit {
		return &cached, nil
	}
	return s.refreshConflicts(ctx, timetableID)
}

// AuditConflicts is the background job handler run after each generation.
func (s *TimetableService) AuditConflicts(ctx context.Context, job jobs.Job) error {
	timetableID, ok := job.Payload.(string)
	if !ok || timetableID == "" {
		return fmt.Errorf("audit job %s: unexpected payload %T", job.ID, job.Payload)
	}
	report, err := s.refreshConflicts(ctx, timetableID)
	if err != nil {
		return err
	}
	if n := len(report.Conflicts); n > 0 {
		s.metrics.RecordAuditConflicts(n)
		s.logger.Warn("timetable audit found conflicts", zap.String("timetable_id", timetableID), zap.Int("conflicts", n))
	}
	return nil
}

// PlaceManualEntry creates an entry, or moves/updates EntryID, after checking
// the target slot for a teacher or class already there. Conflicts are
// rejected with ErrSlotConflict carrying the colliding entries.
func (s *TimetableService) PlaceManualEntry(ctx context.Context, actor string, req dto.ManualEntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}
	if err := s.ensureTimetable(ctx, req.TimetableID); err != nil {
		return nil, err
	}
	if err := s.ensureInActiveGrid(ctx, req.Day, req.Period); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, req.TimetableID)
	if err != nil {
		return nil, err
	}
	defer release()

	var saved models.TimetableEntry
	err = runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.lockRow(ctx, tx, req.TimetableID); err != nil {
			return err
		}
		var previous *models.TimetableEntry
		if req.EntryID != "" {
			existing, err := s.loadEntry(ctx, tx, req.TimetableID, req.EntryID)
			if err != nil {
				return err
			}
			previous = existing
		}
		version, err := s.versionForLog(ctx, tx, req.TimetableID, req.LogChange)
		if err != nil {
			return err
		}

		candidate := models.TimetableEntry{
			TimetableID: req.TimetableID,
			Day:         req.Day,
			Period:      req.Period,
			TeacherID:   normalizeID(req.TeacherID),
			ClassID:     normalizeID(req.ClassID),
			SubjectID:   normalizeID(req.SubjectID),
			Room:        normalizeID(req.Room),
		}
		if previous != nil {
			candidate.ID = previous.ID
			candidate.CreatedAt = previous.CreatedAt
			candidate.IsLocked = previous.IsLocked
		}
		if req.IsLocked != nil {
			candidate.IsLocked = *req.IsLocked
		}
		if err := s.checkSlot(ctx, tx, candidate, req.EntryID); err != nil {
			return err
		}

		action := models.ChangeActionCreate
		if previous == nil {
			if err := s.entries.Create(ctx, tx, &candidate); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable entry")
			}
		} else {
			action = models.ChangeActionUpdate
			if previous.Day != candidate.Day || previous.Period != candidate.Period {
				action = models.ChangeActionMove
			}
			if err := s.entries.Update(ctx, tx, &candidate); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
				}
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable entry")
			}
		}
		saved = candidate

		if version != nil {
			var oldValue *models.EntrySnapshot
			if previous != nil {
				snap := previous.Snapshot()
				oldValue = &snap
			}
			newValue := candidate.Snapshot()
			if _, err := s.versions.RecordChange(ctx, tx, version.ID, action, oldValue, &newValue, actor, req.Reason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateConflicts(ctx, req.TimetableID)
	return &saved, nil
}

// DeleteEntry removes one entry, optionally logging it under the active version.
func (s *TimetableService) DeleteEntry(ctx context.Context, actor string, req dto.DeleteEntryRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload")
	}
	release, err := s.locker.Acquire(ctx, req.TimetableID)
	if err != nil {
		return err
	}
	defer release()

	err = runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.lockRow(ctx, tx, req.TimetableID); err != nil {
			return err
		}
		existing, err := s.loadEntry(ctx, tx, req.TimetableID, req.EntryID)
		if err != nil {
			return err
		}
		version, err := s.versionForLog(ctx, tx, req.TimetableID, req.LogChange)
		if err != nil {
			return err
		}
		if err := s.entries.Delete(ctx, tx, req.TimetableID, req.EntryID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable entry")
		}
		if version != nil {
			oldValue := existing.Snapshot()
			if _, err := s.versions.RecordChange(ctx, tx, version.ID, models.ChangeActionDelete, &oldValue, nil, actor, req.Reason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateConflicts(ctx, req.TimetableID)
	return nil
}

// SwapEntries exchanges the slots of two entries of the same timetable.
func (s *TimetableService) SwapEntries(ctx context.Context, actor string, req dto.SwapEntriesRequest) (*dto.SwapEntriesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap payload")
	}
	release, err := s.locker.Acquire(ctx, req.TimetableID)
	if err != nil {
		return nil, err
	}
	defer release()

	var resp dto.SwapEntriesResponse
	err = runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.lockRow(ctx, tx, req.TimetableID); err != nil {
			return err
		}
		first, err := s.loadEntry(ctx, tx, req.TimetableID, req.FirstEntryID)
		if err != nil {
			return err
		}
		second, err := s.loadEntry(ctx, tx, req.TimetableID, req.SecondEntryID)
		if err != nil {
			return err
		}
		version, err := s.versionForLog(ctx, tx, req.TimetableID, req.LogChange)
		if err != nil {
			return err
		}

		movedFirst, movedSecond := *first, *second
		movedFirst.Day, movedFirst.Period = second.Day, second.Period
		movedSecond.Day, movedSecond.Period = first.Day, first.Period

		if err := s.checkSlot(ctx, tx, movedFirst, first.ID, second.ID); err != nil {
			return err
		}
		if err := s.checkSlot(ctx, tx, movedSecond, first.ID, second.ID); err != nil {
			return err
		}
		for _, entry := range []*models.TimetableEntry{&movedFirst, &movedSecond} {
			if err := s.entries.Update(ctx, tx, entry); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to swap timetable entries")
			}
		}
		if version != nil {
			pairs := [][2]models.TimetableEntry{{*first, movedFirst}, {*second, movedSecond}}
			for _, pair := range pairs {
				oldValue, newValue := pair[0].Snapshot(), pair[1].Snapshot()
				if _, err := s.versions.RecordChange(ctx, tx, version.ID, models.ChangeActionSwap, &oldValue, &newValue, actor, req.Reason); err != nil {
					return err
				}
			}
		}
		resp = dto.SwapEntriesResponse{First: movedFirst, Second: movedSecond}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateConflicts(ctx, req.TimetableID)
	return &resp, nil
}

// CreateTimetable stores a timetable with an optional initial batch of entries.
// The batch must be conflict-free and fit the active grid when one exists.
func (s *TimetableService) CreateTimetable(ctx context.Context, req dto.CreateTimetableRequest) (*models.TimetableDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}

	timetable := models.Timetable{
		Name:         req.Name,
		Term:         req.Term,
		AcademicYear: req.AcademicYear,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		IsActive:     req.IsActive,
	}
	entries := make([]models.TimetableEntry, 0, len(req.Entries))
	for _, input := range req.Entries {
		if err := s.ensureInActiveGrid(ctx, input.Day, input.Period); err != nil {
			return nil, err
		}
		entries = append(entries, models.TimetableEntry{
			Day:       input.Day,
			Period:    input.Period,
			TeacherID: normalizeID(input.TeacherID),
			ClassID:   normalizeID(input.ClassID),
			SubjectID: normalizeID(input.SubjectID),
			Room:      normalizeID(input.Room),
			IsLocked:  input.IsLocked,
		})
	}
	if conflicts := DetectEntryConflicts(entries); len(conflicts) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrSlotConflict, "initial entries contain conflicts", conflicts)
	}

	err := runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.timetables.Create(ctx, tx, &timetable); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
		}
		for i := range entries {
			entries[i].TimetableID = timetable.ID
		}
		if err := s.entries.UpsertBatch(ctx, tx, entries); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable entries")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.TimetableDetail{Timetable: timetable, Entries: entries}, nil
}

// GetTimetable returns a timetable with its entries.
func (s *TimetableService) GetTimetable(ctx context.Context, id string) (*models.TimetableDetail, error) {
	timetable, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	entries, err := s.entries.ListByTimetable(ctx, nil, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}
	if entries == nil {
		entries = []models.TimetableEntry{}
	}
	return &models.TimetableDetail{Timetable: *timetable, Entries: entries}, nil
}

// refreshConflicts scans and caches the report under the timetable lock.
// Writes invalidate while still holding it, so a stored report never predates
// a committed edit. When the lock cannot be taken the report is returned
// uncached.
func (s *TimetableService) refreshConflicts(ctx context.Context, timetableID string) (*dto.ConflictReport, error) {
	if !s.cache.Enabled() {
		return s.scanConflicts(ctx, timetableID)
	}
	release, err := s.locker.Acquire(ctx, timetableID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Debug("conflict report served uncached", zap.String("timetable_id", timetableID), zap.Error(err))
		return s.scanConflicts(ctx, timetableID)
	}
	defer release()

	report, err := s.scanConflicts(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, conflictReportKey(timetableID), report, s.cfg.ConflictCacheTTL)
	return report, nil
}

func (s *TimetableService) scanConflicts(ctx context.Context, timetableID string) (*dto.ConflictReport, error) {
	entries, err := s.entries.ListByTimetable(ctx, nil, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}
	return &dto.ConflictReport{
		TimetableID: timetableID,
		Conflicts:   DetectEntryConflicts(entries),
		CheckedAt:   time.Now().UTC(),
	}, nil
}

func (s *TimetableService) checkSlot(ctx context.Context, exec sqlx.ExtContext, candidate models.TimetableEntry, ignoreIDs ...string) error {
	occupants, err := s.entries.ListBySlot(ctx, exec, candidate.TimetableID, candidate.Day, candidate.Period)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot occupants")
	}
	conflicts := CheckSlot(candidate, occupants, ignoreIDs...)
	if len(conflicts) == 0 {
		return nil
	}
	for _, conflict := range conflicts {
		s.metrics.RecordManualConflict(string(conflict.Type))
	}
	return appErrors.WithDetails(appErrors.ErrSlotConflict, fmt.Sprintf("slot %s/%d is already taken", candidate.Day, candidate.Period), conflicts)
}

func (s *TimetableService) ensureInActiveGrid(ctx context.Context, day string, period int) error {
	if s.configs == nil {
		return nil
	}
	grid, err := s.configs.ActiveGrid(ctx)
	if err != nil {
		return err
	}
	if grid != nil && !grid.Contains(day, period) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %s/%d is outside the active timetable grid", day, period))
	}
	return nil
}

func (s *TimetableService) versionForLog(ctx context.Context, exec sqlx.ExtContext, timetableID string, logChange bool) (*models.TimetableVersion, error) {
	if !logChange {
		return nil, nil
	}
	version, err := s.versions.ActiveVersion(ctx, exec, timetableID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "timetable has no active version to log changes against")
	}
	return version, nil
}

func (s *TimetableService) loadEntry(ctx context.Context, exec sqlx.ExtContext, timetableID, entryID string) (*models.TimetableEntry, error) {
	entry, err := s.entries.FindByID(ctx, exec, timetableID, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entry")
	}
	return entry, nil
}

func (s *TimetableService) lockRow(ctx context.Context, exec sqlx.ExtContext, timetableID string) error {
	if err := s.timetables.LockForUpdate(ctx, exec, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock timetable")
	}
	return nil
}

func (s *TimetableService) ensureTimetable(ctx context.Context, id string) error {
	if _, err := s.timetables.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return nil
}

func (s *TimetableService) invalidateConflicts(ctx context.Context, timetableID string) {
	_ = s.cache.Delete(ctx, conflictReportKey(timetableID))
}

func (s *TimetableService) enqueueAudit(timetableID string) {
	if s.audit == nil {
		return
	}
	job := jobs.Job{
		ID:      fmt.Sprintf("audit-%s-%d", timetableID, time.Now().UnixNano()),
		Type:    AuditJobType,
		Key:     timetableID,
		Payload: timetableID,
	}
	if err := s.audit.Enqueue(job); err != nil {
		s.logger.Warn("enqueue timetable audit failed", zap.String("timetable_id", timetableID), zap.Error(err))
	}
}

func normalizeID(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	value := *v
	return &value
}
