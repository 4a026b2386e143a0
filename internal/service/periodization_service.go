package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/coach-periodization-api/internal/dto"
	"github.com/noah-isme/coach-periodization-api/internal/models"
	"github.com/noah-isme/coach-periodization-api/pkg/calendar"
	appErrors "github.com/noah-isme/coach-periodization-api/pkg/errors"
)

type planReader interface {
	FindByID(ctx context.Context, id string) (*models.TrainingPlan, error)
}

type periodStore interface {
	ListByPlan(ctx context.Context, planID string) ([]models.Period, error)
	Create(ctx context.Context, period *models.Period) error
	Update(ctx context.Context, period *models.Period) error
	Delete(ctx context.Context, planID, id string) error
}

type assignmentStore interface {
	ListByPlan(ctx context.Context, planID string) ([]models.PeriodAssignmentRow, error)
	ReplaceForPeriod(ctx context.Context, periodID string, assignments []models.ExerciseAssignment) error
}

type oneRepMaxSource interface {
	Latest(ctx context.Context, planID, exerciseID string) (*models.OneRepMax, error)
}

type exerciseCatalog interface {
	ListByPlan(ctx context.Context, planID string) ([]models.Exercise, error)
}

// PeriodizationConfig governs session concurrency and persistence behaviour.
type PeriodizationConfig struct {
	QueueMutations bool
	PersistRetries int
	RMConcurrency  int
	LoadCacheTTL   time.Duration
}

// PeriodizationService keeps one committed PlanSession per plan and applies every change as
// clone, persist, then commit. A change the store does not confirm never reaches the
// committed session.
type PeriodizationService struct {
	plans       planReader
	periods     periodStore
	assignments assignmentStore
	oneRepMaxes oneRepMaxSource
	catalog     exerciseCatalog
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         PeriodizationConfig
	sessions    *sessionRegistry
}

// NewPeriodizationService wires the engine to its collaborators.
func NewPeriodizationService(
	plans planReader,
	periods periodStore,
	assignments assignmentStore,
	oneRepMaxes oneRepMaxSource,
	catalog exerciseCatalog,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg PeriodizationConfig,
) *PeriodizationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PersistRetries < 0 {
		cfg.PersistRetries = 0
	}
	if cfg.RMConcurrency <= 0 {
		cfg.RMConcurrency = 4
	}
	return &PeriodizationService{
		plans:       plans,
		periods:     periods,
		assignments: assignments,
		oneRepMaxes: oneRepMaxes,
		catalog:     catalog,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		sessions:    newSessionRegistry(),
	}
}

// GetSession returns the committed state of a plan, hydrating it from the store on first use.
func (s *PeriodizationService) GetSession(ctx context.Context, planID string) (*dto.PlanSessionView, error) {
	session, err := s.session(ctx, planID)
	if err != nil {
		return nil, err
	}
	view := buildSessionView(session)
	return &view, nil
}

// CreatePeriod validates a new range, persists it and returns the stored period.
func (s *PeriodizationService) CreatePeriod(ctx context.Context, planID string, req dto.CreatePeriodRequest) (*dto.PeriodView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	r, err := req.Range()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period range")
	}

	var created models.Period
	session, err := s.mutate(ctx, planID, "create_period", func(ctx context.Context, draft *PlanSession) error {
		period, err := draft.CreateDraft(r, req.Name)
		if err != nil {
			return err
		}
		stored := period
		stored.ID = ""
		if err := s.createWithRetry(ctx, &stored); err != nil {
			_ = draft.Discard(period.ID)
			return err
		}
		created, err = draft.Promote(period.ID, stored)
		if err != nil {
			s.dropOrphan(ctx, stored)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("period created",
		zap.String("plan_id", planID),
		zap.String("period_id", created.ID),
		zap.Int("start", created.Start),
		zap.Int("end", created.End),
	)
	return periodViewFor(session, created.ID)
}

// RenamePeriod changes the name of a period.
func (s *PeriodizationService) RenamePeriod(ctx context.Context, planID, periodID string, req dto.RenamePeriodRequest) (*dto.PeriodView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rename payload")
	}
	session, err := s.mutate(ctx, planID, "rename_period", func(ctx context.Context, draft *PlanSession) error {
		period, err := draft.Rename(periodID, req.Name)
		if err != nil {
			return err
		}
		return s.persistPeriod(ctx, &period)
	})
	if err != nil {
		return nil, err
	}
	return periodViewFor(session, periodID)
}

// ResizePeriod moves one boundary of a period by a single day.
func (s *PeriodizationService) ResizePeriod(ctx context.Context, planID, periodID string, req dto.ResizePeriodRequest) (*dto.PeriodView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resize payload")
	}
	session, err := s.mutate(ctx, planID, "resize_period", func(ctx context.Context, draft *PlanSession) error {
		period, err := draft.Resize(periodID, req.Boundary, req.Direction)
		if err != nil {
			return err
		}
		return s.persistPeriod(ctx, &period)
	})
	if err != nil {
		return nil, err
	}
	return periodViewFor(session, periodID)
}

// DeletePeriod removes a period. Later periods re-anchor their chained weights.
func (s *PeriodizationService) DeletePeriod(ctx context.Context, planID, periodID string) error {
	_, err := s.mutate(ctx, planID, "delete_period", func(ctx context.Context, draft *PlanSession) error {
		if _, err := draft.Delete(periodID); err != nil {
			return err
		}
		if err := s.periods.Delete(ctx, planID, periodID); err != nil {
			return persistenceError(err, "failed to delete period")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("period deleted", zap.String("plan_id", planID), zap.String("period_id", periodID))
	return nil
}

// AssignExercise upserts an exercise assignment and returns the period with every later period
// already re-derived.
func (s *PeriodizationService) AssignExercise(ctx context.Context, planID, periodID string, req dto.AssignExerciseRequest) (*dto.PeriodView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	assignment := req.ToAssignment()
	if assignment.ExerciseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exercise is required")
	}
	if err := s.ensureInCatalog(ctx, planID, assignment.ExerciseID); err != nil {
		return nil, err
	}

	session, err := s.mutate(ctx, planID, "assign_exercise", func(ctx context.Context, draft *PlanSession) error {
		if _, known := draft.OneRepMax(assignment.ExerciseID); !known {
			rm, err := s.lookupOneRepMax(ctx, planID, assignment.ExerciseID)
			if err != nil {
				return err
			}
			if rm != nil {
				if err := draft.SetOneRepMax(assignment.ExerciseID, rm.ValueKg); err != nil {
					return err
				}
			}
		}
		period, err := draft.AssignExercise(periodID, assignment)
		if err != nil {
			return err
		}
		if err := s.assignments.ReplaceForPeriod(ctx, period.ID, period.Assignments); err != nil {
			return persistenceError(err, "failed to save assignments")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("exercise assigned",
		zap.String("plan_id", planID),
		zap.String("period_id", periodID),
		zap.String("exercise_id", assignment.ExerciseID),
		zap.Float64("percentage", assignment.Percentage),
	)
	return periodViewFor(session, periodID)
}

// RemoveAssignment detaches an exercise from a period.
func (s *PeriodizationService) RemoveAssignment(ctx context.Context, planID, periodID, exerciseID string) (*dto.PeriodView, error) {
	session, err := s.mutate(ctx, planID, "remove_assignment", func(ctx context.Context, draft *PlanSession) error {
		period, err := draft.RemoveAssignment(periodID, exerciseID)
		if err != nil {
			return err
		}
		if err := s.assignments.ReplaceForPeriod(ctx, period.ID, period.Assignments); err != nil {
			return persistenceError(err, "failed to save assignments")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return periodViewFor(session, periodID)
}

// RefreshOneRepMax re-reads an exercise's one-rep max and re-derives the plan.
func (s *PeriodizationService) RefreshOneRepMax(ctx context.Context, planID, exerciseID string) (*dto.OneRepMaxRefreshResponse, error) {
	resp := &dto.OneRepMaxRefreshResponse{ExerciseID: exerciseID}
	_, err := s.mutate(ctx, planID, "refresh_one_rep_max", func(ctx context.Context, draft *PlanSession) error {
		rm, err := s.lookupOneRepMax(ctx, planID, exerciseID)
		if err != nil {
			return err
		}
		if rm == nil {
			return draft.ClearOneRepMax(exerciseID)
		}
		value := rm.ValueKg
		recorded := rm.RecordedAt
		resp.ValueKg = &value
		resp.RecordedAt = &recorded
		return draft.SetOneRepMax(exerciseID, rm.ValueKg)
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Refresh drops the committed session and rebuilds it from the store.
func (s *PeriodizationService) Refresh(ctx context.Context, planID string) (*dto.PlanSessionView, error) {
	entry := s.sessions.entry(planID)
	ok, err := entry.acquire(ctx, s.cfg.QueueMutations)
	if err != nil {
		return nil, persistenceError(err, "refresh cancelled")
	}
	if !ok {
		s.metrics.RecordMutation("refresh", OutcomeBusy)
		return nil, appErrors.ErrMutationInFlight
	}
	defer entry.release()

	session, err := s.hydrate(ctx, planID)
	if err != nil {
		return nil, err
	}
	entry.commit(session)
	s.metrics.SetActiveSessions(s.sessions.hydrated())
	s.invalidate(ctx, planID)
	view := buildSessionView(session)
	return &view, nil
}

// Loads returns the derived load table, served from cache when possible.
func (s *PeriodizationService) Loads(ctx context.Context, planID string) (*dto.LoadTable, bool, error) {
	session, version, err := s.snapshot(ctx, planID)
	if err != nil {
		return nil, false, err
	}

	key := PlanLoadsKey(planID)
	var cached dto.LoadTable
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		if cached.Version == version {
			return &cached, true, nil
		}
		s.logger.Debug("discarding load table from an older session",
			zap.String("plan_id", planID),
			zap.String("cached_version", cached.Version),
		)
	}

	table := &dto.LoadTable{PlanID: planID, Version: version, Loads: session.Loads(), GeneratedAt: time.Now().UTC()}
	_ = s.cache.Set(ctx, key, table, s.cfg.LoadCacheTTL)
	return table, false, nil
}

// WorkingWeight returns the derived weight of one assignment. It fails with NO_BASIS when
// neither a one-rep max nor an earlier period anchors it.
func (s *PeriodizationService) WorkingWeight(ctx context.Context, planID, periodID, exerciseID string) (*dto.WorkingWeightResponse, error) {
	session, err := s.session(ctx, planID)
	if err != nil {
		return nil, err
	}
	weight, err := session.WorkingWeight(periodID, exerciseID)
	if err != nil {
		return nil, err
	}
	load, err := session.Load(periodID, exerciseID)
	if err != nil {
		return nil, err
	}
	return &dto.WorkingWeightResponse{
		PeriodID:        periodID,
		ExerciseID:      exerciseID,
		WorkingWeight:   weight,
		ReferenceWeight: *load.ReferenceWeight,
		Basis:           load.Basis,
		SourcePeriodID:  load.SourcePeriodID,
	}, nil
}

// ListExercises returns the exercises eligible for assignment in a plan.
func (s *PeriodizationService) ListExercises(ctx context.Context, planID string) ([]models.Exercise, error) {
	exercises, err := s.catalog.ListByPlan(ctx, planID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exercises")
	}
	return exercises, nil
}

// mutate runs fn against a clone of the committed session and commits the clone only when fn,
// including its store calls, succeeds.
func (s *PeriodizationService) mutate(ctx context.Context, planID, operation string, fn func(ctx context.Context, draft *PlanSession) error) (*PlanSession, error) {
	entry := s.sessions.entry(planID)
	ok, err := entry.acquire(ctx, s.cfg.QueueMutations)
	if err != nil {
		s.metrics.RecordMutation(operation, OutcomeBusy)
		return nil, persistenceError(err, "gave up waiting for the plan")
	}
	if !ok {
		s.metrics.RecordMutation(operation, OutcomeBusy)
		return nil, appErrors.ErrMutationInFlight
	}
	defer entry.release()

	current := entry.current()
	if current == nil {
		current, err = s.hydrate(ctx, planID)
		if err != nil {
			return nil, err
		}
		entry.commit(current)
		s.metrics.SetActiveSessions(s.sessions.hydrated())
	}

	start := time.Now()
	draft := current.Clone()
	if err := fn(ctx, draft); err != nil {
		outcome := OutcomeRejected
		if errors.Is(err, appErrors.ErrPersistence) {
			outcome = OutcomeRolledBack
			s.logger.Warn("mutation rolled back",
				zap.String("plan_id", planID),
				zap.String("operation", operation),
				zap.Error(err),
			)
		}
		s.metrics.RecordMutation(operation, outcome)
		return nil, err
	}
	s.metrics.ObserveRederive(time.Since(start))

	entry.commit(draft)
	s.metrics.RecordMutation(operation, OutcomeCommitted)
	s.invalidate(ctx, planID)
	return draft, nil
}

// session returns the committed session, hydrating it under the plan's writer slot.
func (s *PeriodizationService) session(ctx context.Context, planID string) (*PlanSession, error) {
	session, _, err := s.snapshot(ctx, planID)
	return session, err
}

func (s *PeriodizationService) snapshot(ctx context.Context, planID string) (*PlanSession, string, error) {
	entry := s.sessions.entry(planID)
	if current, version := entry.snapshot(); current != nil {
		return current, version, nil
	}
	if _, err := entry.acquire(ctx, true); err != nil {
		return nil, "", persistenceError(err, "gave up waiting for the plan")
	}
	defer entry.release()
	if current, version := entry.snapshot(); current != nil {
		return current, version, nil
	}
	session, err := s.hydrate(ctx, planID)
	if err != nil {
		return nil, "", err
	}
	entry.commit(session)
	s.metrics.SetActiveSessions(s.sessions.hydrated())
	current, version := entry.snapshot()
	return current, version, nil
}

// hydrate loads a plan, its periods and assignments, then fetches one-rep maxes concurrently.
func (s *PeriodizationService) hydrate(ctx context.Context, planID string) (*PlanSession, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveDBQuery("periodization_hydrate", time.Since(start))
	}()
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "training plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training plan")
	}
	periods, err := s.periods.ListByPlan(ctx, planID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
	}
	rows, err := s.assignments.ListByPlan(ctx, planID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}

	byPeriod := make(map[string][]models.ExerciseAssignment)
	exerciseIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, row := range rows {
		byPeriod[row.PeriodID] = append(byPeriod[row.PeriodID], row.ToAssignment())
		if _, ok := seen[row.ExerciseID]; !ok {
			seen[row.ExerciseID] = struct{}{}
			exerciseIDs = append(exerciseIDs, row.ExerciseID)
		}
	}
	for i := range periods {
		periods[i].Assignments = byPeriod[periods[i].ID]
	}

	rms, err := s.fetchOneRepMaxes(ctx, planID, exerciseIDs)
	if err != nil {
		return nil, err
	}
	session, err := RestorePlanSession(planID, calendar.Horizon(plan.NumberOfWeeks), periods, rms)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("plan session hydrated",
		zap.String("plan_id", planID),
		zap.Int("periods", len(periods)),
		zap.Int("one_rep_maxes", len(rms)),
	)
	return session, nil
}

func (s *PeriodizationService) fetchOneRepMaxes(ctx context.Context, planID string, exerciseIDs []string) (map[string]float64, error) {
	var mu sync.Mutex
	out := make(map[string]float64, len(exerciseIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.RMConcurrency)
	for _, id := range exerciseIDs {
		id := id
		g.Go(func() error {
			rm, err := s.lookupOneRepMax(gctx, planID, id)
			if err != nil {
				return err
			}
			if rm == nil {
				return nil
			}
			mu.Lock()
			out[id] = rm.ValueKg
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// lookupOneRepMax returns nil without error when no max has been recorded.
func (s *PeriodizationService) lookupOneRepMax(ctx context.Context, planID, exerciseID string) (*models.OneRepMax, error) {
	rm, err := s.oneRepMaxes.Latest(ctx, planID, exerciseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load one-rep max for %s", exerciseID))
	}
	return rm, nil
}

func (s *PeriodizationService) ensureInCatalog(ctx context.Context, planID, exerciseID string) error {
	exercises, err := s.catalog.ListByPlan(ctx, planID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exercise catalog")
	}
	for _, e := range exercises {
		if e.ID == exerciseID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("exercise %s is not available in this plan", exerciseID))
}

// createWithRetry re-sends the same client reference so a retried insert cannot duplicate.
func (s *PeriodizationService) createWithRetry(ctx context.Context, period *models.Period) error {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.PersistRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return persistenceError(err, "failed to create period")
		}
		lastErr = s.periods.Create(ctx, period)
		if lastErr == nil {
			return nil
		}
		s.logger.Warn("period create attempt failed",
			zap.String("plan_id", period.PlanID),
			zap.String("client_ref", period.ClientRef),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}
	return persistenceError(lastErr, "failed to create period")
}

// dropOrphan removes a row the session refused to adopt. A failed delete leaves it for Refresh.
func (s *PeriodizationService) dropOrphan(ctx context.Context, stored models.Period) {
	if stored.ID == "" {
		return
	}
	if err := s.periods.Delete(ctx, stored.PlanID, stored.ID); err != nil {
		s.logger.Warn("orphaned period left in store",
			zap.String("plan_id", stored.PlanID),
			zap.String("period_id", stored.ID),
			zap.String("client_ref", stored.ClientRef),
			zap.Error(err),
		)
	}
}

func (s *PeriodizationService) persistPeriod(ctx context.Context, period *models.Period) error {
	if err := s.periods.Update(ctx, period); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return persistenceError(err, "failed to update period")
	}
	return nil
}

func (s *PeriodizationService) invalidate(ctx context.Context, planID string) {
	if err := s.cache.InvalidatePlan(ctx, planID); err != nil {
		s.logger.Warn("load cache invalidation failed", zap.String("plan_id", planID), zap.Error(err))
	}
}

func persistenceError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, message)
}

func buildSessionView(session *PlanSession) dto.PlanSessionView {
	loads := session.Loads()
	periods := session.Periods()
	views := make([]dto.PeriodView, 0, len(periods))
	for _, p := range periods {
		views = append(views, buildPeriodView(p, loads))
	}
	rms := make(map[string]float64)
	for _, id := range session.AssignedExercises() {
		if v, ok := session.OneRepMax(id); ok {
			rms[id] = v
		}
	}
	return dto.PlanSessionView{
		PlanID:        session.PlanID(),
		Horizon:       session.Horizon(),
		NumberOfWeeks: session.Horizon() / calendar.DaysPerWeek,
		Periods:       views,
		OneRepMaxes:   rms,
	}
}

func buildPeriodView(p models.Period, loads []models.DerivedLoad) dto.PeriodView {
	view := dto.PeriodView{
		ID:          p.ID,
		Name:        p.Name,
		Status:      p.Status,
		Start:       dto.NewDayCoordinate(p.Start),
		End:         dto.NewDayCoordinate(p.End),
		Days:        p.End - p.Start + 1,
		Assignments: make([]dto.AssignmentView, 0, len(p.Assignments)),
	}
	if !p.UpdatedAt.IsZero() {
		updated := p.UpdatedAt
		view.UpdatedAt = &updated
	}
	for _, a := range p.Assignments {
		av := dto.AssignmentView{
			ExerciseID: a.ExerciseID,
			Percentage: a.Percentage,
			Adjustment: a.Adjustment,
			Basis:      models.BasisNone,
		}
		for _, l := range loads {
			if l.PeriodID == p.ID && l.ExerciseID == a.ExerciseID {
				av.Basis = l.Basis
				av.SourcePeriodID = l.SourcePeriodID
				av.ReferenceWeight = l.ReferenceWeight
				av.WorkingWeight = l.WorkingWeight
				break
			}
		}
		view.Assignments = append(view.Assignments, av)
	}
	return view
}

func periodViewFor(session *PlanSession, periodID string) (*dto.PeriodView, error) {
	period, err := session.Period(strings.TrimSpace(periodID))
	if err != nil {
		return nil, err
	}
	view := buildPeriodView(period, session.Loads())
	return &view, nil
}
