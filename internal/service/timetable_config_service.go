package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type timetableConfigRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, cfg *models.TimetableConfig) error
	FindByID(ctx context.Context, id string) (*models.TimetableConfig, error)
	FindActive(ctx context.Context) (*models.TimetableConfig, error)
	DeactivateAll(ctx context.Context, exec sqlx.ExtContext) error
	Activate(ctx context.Context, exec sqlx.ExtContext, id string) error
}

// TimetableConfigDefaults fill in a grid shape omitted at creation time.
type TimetableConfigDefaults struct {
	PeriodsPerDay         int
	Days                  []string
	PeriodDurationMinutes int
}

// TimetableConfigService manages grid configs; at most one is active.
type TimetableConfigService struct {
	repo      timetableConfigRepository
	tx        txProvider
	defaults  TimetableConfigDefaults
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableConfigService wires dependencies.
func NewTimetableConfigService(repo timetableConfigRepository, tx txProvider, defaults TimetableConfigDefaults, validate *validator.Validate, logger *zap.Logger) *TimetableConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.PeriodDurationMinutes <= 0 {
		defaults.PeriodDurationMinutes = 45
	}
	return &TimetableConfigService{repo: repo, tx: tx, defaults: defaults, validator: validate, logger: logger}
}

// CreateConfig validates and stores a config, activating it when requested.
func (s *TimetableConfigService) CreateConfig(ctx context.Context, req dto.CreateTimetableConfigRequest) (*models.TimetableConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable config payload")
	}

	cfg := &models.TimetableConfig{
		Name:                  req.Name,
		PeriodsPerDay:         req.PeriodsPerDay,
		DaysOfWeek:            req.DaysOfWeek,
		BreakPeriods:          models.BreakPeriods(req.BreakPeriods),
		PeriodDurationMinutes: req.PeriodDurationMinutes,
		IsActive:              req.Activate,
	}
	if cfg.PeriodsPerDay == 0 {
		cfg.PeriodsPerDay = s.defaults.PeriodsPerDay
	}
	if len(cfg.DaysOfWeek) == 0 {
		cfg.DaysOfWeek = append([]string(nil), s.defaults.Days...)
	}
	if cfg.PeriodDurationMinutes == 0 {
		cfg.PeriodDurationMinutes = s.defaults.PeriodDurationMinutes
	}
	if req.Preferences != nil {
		cfg.Preferences = models.TimetablePreferences{
			AllowDoublePeriods:           req.Preferences.AllowDoublePeriods,
			MaxConsecutivePeriods:        req.Preferences.MaxConsecutivePeriods,
			PreferredSubjectDistribution: models.SubjectDistribution(req.Preferences.PreferredSubjectDistribution),
		}
	}
	if cfg.Preferences.PreferredSubjectDistribution == "" {
		cfg.Preferences.PreferredSubjectDistribution = models.DistributionBalanced
	}
	if _, err := NewTimetableGrid(*cfg); err != nil {
		return nil, err
	}

	if !cfg.IsActive {
		if err := s.repo.Create(ctx, nil, cfg); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable config")
		}
		return cfg, nil
	}

	err := runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.repo.DeactivateAll(ctx, tx); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate timetable configs")
		}
		if err := s.repo.Create(ctx, tx, cfg); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable config")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("timetable config activated", zap.String("config_id", cfg.ID))
	return cfg, nil
}

// ActiveConfig returns the active config or ErrNotFound.
func (s *TimetableConfigService) ActiveConfig(ctx context.Context) (*models.TimetableConfig, error) {
	cfg, err := s.findActive(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no active timetable config")
	}
	return cfg, nil
}

// ActivateConfig makes id the single active config.
func (s *TimetableConfigService) ActivateConfig(ctx context.Context, id string) (*models.TimetableConfig, error) {
	cfg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable config not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable config")
	}
	err = runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.repo.DeactivateAll(ctx, tx); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate timetable configs")
		}
		if err := s.repo.Activate(ctx, tx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "timetable config not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate timetable config")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cfg.IsActive = true
	s.logger.Info("timetable config activated", zap.String("config_id", id))
	return cfg, nil
}

// Resolve returns the config named by id, or the active config when id is
// empty. No active config is a precondition failure for the engine.
func (s *TimetableConfigService) Resolve(ctx context.Context, id string) (*models.TimetableConfig, error) {
	if id != "" {
		cfg, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable config not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable config")
		}
		return cfg, nil
	}
	cfg, err := s.findActive(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active timetable config; supply configId or activate one")
	}
	return cfg, nil
}

// ActiveGrid returns the grid of the active config, or nil when none is active.
func (s *TimetableConfigService) ActiveGrid(ctx context.Context) (*TimetableGrid, error) {
	cfg, err := s.findActive(ctx)
	if err != nil || cfg == nil {
		return nil, err
	}
	return NewTimetableGrid(*cfg)
}

func (s *TimetableConfigService) findActive(ctx context.Context) (*models.TimetableConfig, error) {
	cfg, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active timetable config")
	}
	return cfg, nil
}

// runInTx commits when fn succeeds and rolls back otherwise.
func runInTx(ctx context.Context, provider txProvider, fn func(tx *sqlx.Tx) error) error {
	if provider == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := provider.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
	}
	return nil
}
