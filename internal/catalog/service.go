package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/bakery-backend/internal/catalog/editor"
	"github.com/angelmondragon/bakery-backend/pkg/db"
	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
	"github.com/angelmondragon/bakery-backend/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	msgNotLoggedIn    = "לא מחובר"
	msgNotAdmin       = "אין הרשאות מנהל"
	msgSaveFailed     = "שגיאה בשמירת הקטלוג"
	msgLoadFailed     = "שגיאה בטעינת הקטלוג"
	msgHistoryFailed  = "שגיאה בטעינת היסטוריית קטלוגים"
	msgInvalidCatalog = "הקטלוג אינו תקין"
	msgInvalidEdit    = "פעולת עריכה לא תקינה"
	msgStaleRevision  = "הקטלוג עודכן בינתיים. יש לרענן ולנסות שוב"
	msgConcurrentSave = "הקטלוג נשמר במקביל. יש לרענן ולנסות שוב"

	activeIndex   = "idx_product_catalog_single_active"
	revisionIndex = "idx_product_catalog_revision"
)

// Service manages the product catalog. Every write re-reads the caller's
// role from profiles.
type Service interface {
	Active(ctx context.Context) (*CatalogDTO, error)
	Save(ctx context.Context, input SaveInput) (*CatalogDTO, error)
	Revisions(ctx context.Context, actorUserID uuid.UUID) ([]RevisionDTO, error)
	ApplyEdits(ctx context.Context, input EditInput) (*CatalogDTO, error)
	// Seed publishes DefaultCategories when no revision exists. It reports
	// whether a revision was written.
	Seed(ctx context.Context) (*CatalogDTO, bool, error)
}

type roleReader interface {
	RoleOf(ctx context.Context, id uuid.UUID) (enums.ProfileRole, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Tx     txRunner
	Repo   Repository
	Roles  roleReader
	Logger *logger.Logger
}

type service struct {
	tx    txRunner
	repo  Repository
	roles roleReader
	logg  *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if params.Roles == nil {
		return nil, fmt.Errorf("role reader is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		tx:    params.Tx,
		repo:  params.Repo,
		roles: params.Roles,
		logg:  params.Logger,
	}, nil
}

func (s *service) Active(ctx context.Context) (*CatalogDTO, error) {
	rev, err := s.repo.Active(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CatalogDTO{Revision: 0, Categories: types.Catalog{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgLoadFailed)
	}
	dto := fromModel(rev)
	return &dto, nil
}

func (s *service) Save(ctx context.Context, input SaveInput) (*CatalogDTO, error) {
	ctx = s.logg.WithAction(ctx, "catalog.save")
	if err := s.requireAdmin(ctx, input.ActorUserID); err != nil {
		return nil, err
	}
	actor := input.ActorUserID
	return s.publish(ctx, input.Categories, &actor)
}

func (s *service) Revisions(ctx context.Context, actorUserID uuid.UUID) ([]RevisionDTO, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}
	revs, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgHistoryFailed)
	}
	out := make([]RevisionDTO, 0, len(revs))
	for _, rev := range revs {
		out = append(out, revisionFromModel(rev))
	}
	return out, nil
}

// ApplyEdits replays editor operations on top of the active revision and
// saves the result when anything changed. BaseRevision must match the
// active revision.
func (s *service) ApplyEdits(ctx context.Context, input EditInput) (*CatalogDTO, error) {
	ctx = s.logg.WithAction(ctx, "catalog.edit")
	if err := s.requireAdmin(ctx, input.ActorUserID); err != nil {
		return nil, err
	}

	current, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	if input.BaseRevision != current.Revision {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, msgStaleRevision).
			WithDetails(map[string]any{"active_revision": current.Revision})
	}

	session := editor.NewSession(current.Categories)
	session.BeginEdit()
	if err := editor.ApplyAll(session, input.Ops); err != nil {
		details := map[string]any{"reason": err.Error()}
		var opErr *editor.OpError
		if errors.As(err, &opErr) {
			details["index"] = opErr.Index
			details["op"] = opErr.Op
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgInvalidEdit).WithDetails(details)
	}
	if !session.Dirty() {
		return current, nil
	}

	var saved *CatalogDTO
	actor := input.ActorUserID
	err = session.Commit(ctx, editor.SaverFunc(func(ctx context.Context, c types.Catalog) error {
		dto, err := s.publish(ctx, c, &actor)
		if err != nil {
			return err
		}
		saved = dto
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *service) Seed(ctx context.Context) (*CatalogDTO, bool, error) {
	max, err := s.repo.MaxRevision(ctx)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgLoadFailed)
	}
	if max > 0 {
		current, err := s.Active(ctx)
		return current, false, err
	}
	dto, err := s.publish(s.logg.WithAction(ctx, "catalog.seed"), DefaultCategories(), nil)
	if err != nil {
		return nil, false, err
	}
	return dto, true, nil
}

// publish writes categories as the next active revision in one transaction.
func (s *service) publish(ctx context.Context, categories types.Catalog, createdBy *uuid.UUID) (*CatalogDTO, error) {
	if err := Validate(categories); err != nil {
		problems := make([]string, 0)
		for _, e := range multierr.Errors(err) {
			problems = append(problems, e.Error())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgInvalidCatalog).
			WithDetails(map[string]any{"problems": problems})
	}

	rev := &models.ProductCatalog{
		CatalogData: categories.Clone(),
		IsActive:    true,
		CreatedBy:   createdBy,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		max, err := repo.MaxRevision(ctx)
		if err != nil {
			return err
		}
		if err := repo.DeactivateAll(ctx); err != nil {
			return err
		}
		rev.Revision = max + 1
		return repo.Create(ctx, rev)
	})
	if err != nil {
		if db.IsUniqueViolation(err, activeIndex) || db.IsUniqueViolation(err, revisionIndex) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, msgConcurrentSave)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgSaveFailed)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"revision":   rev.Revision,
		"categories": len(categories),
		"items":      categories.ItemCount(),
	}), "catalog.saved")
	dto := fromModel(rev)
	return &dto, nil
}

func (s *service) requireAdmin(ctx context.Context, actor uuid.UUID) error {
	if actor == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, msgNotLoggedIn)
	}
	role, err := s.roles.RoleOf(ctx, actor)
	if err != nil {
		// A caller without a profile row is not an admin.
		if errors.Is(err, gorm.ErrRecordNotFound) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, msgNotAdmin)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read profile role")
	}
	if !role.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, msgNotAdmin)
	}
	return nil
}

// Validate checks a full catalog and returns every problem found, combined
// with multierr.
func Validate(categories types.Catalog) error {
	if len(categories) == 0 {
		return errors.New("catalog must contain at least one category")
	}
	var errs error
	seen := make(map[int]string)
	for ci, cat := range categories {
		if strings.TrimSpace(cat.Title) == "" {
			errs = multierr.Append(errs, fmt.Errorf("category %d: title is required", ci))
		}
		if cat.Price < 0 {
			errs = multierr.Append(errs, fmt.Errorf("category %d: price must not be negative", ci))
		}
		if len(cat.Items) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("category %d: at least one item is required", ci))
		}
		for ii, item := range cat.Items {
			where := fmt.Sprintf("category %d item %d", ci, ii)
			if strings.TrimSpace(item.Name) == "" {
				errs = multierr.Append(errs, fmt.Errorf("%s: name is required", where))
			}
			if item.ID <= 0 {
				errs = multierr.Append(errs, fmt.Errorf("%s: id must be positive", where))
				continue
			}
			if prev, dup := seen[item.ID]; dup {
				errs = multierr.Append(errs, fmt.Errorf("%s: id %d already used by %s", where, item.ID, prev))
				continue
			}
			seen[item.ID] = where
		}
	}
	return errs
}
