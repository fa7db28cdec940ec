package service

import (
	"context"
	"errors"
	"fmt"

	"familytree/internal/domain"
	"familytree/internal/repository"

	"go.uber.org/zap"
)

// PersonService orchestrates the CRUD operations of the person register.
// Stateless across requests; every operation is a single store round trip
// (plus the children lookup on detail).
type PersonService struct {
	repo   repository.PersonsRepository
	logger *zap.Logger
}

func NewPersonService(repo repository.PersonsRepository, logger *zap.Logger) *PersonService {
	return &PersonService{repo: repo, logger: logger}
}

// FormPayload is what the create/edit/delete forms render from: the person
// (submitted or loaded), the selectable options, and any field errors.
type FormPayload struct {
	Person  *domain.Person    `json:"person,omitempty"`
	Options FormOptions       `json:"options"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// List returns every person with parents resolved.
func (s *PersonService) List(ctx context.Context) ([]domain.Person, error) {
	return s.repo.ListAll(ctx)
}

// Detail returns the person (parents resolved) together with all persons
// recording them as father or mother.
func (s *PersonService) Detail(ctx context.Context, id int64) (*domain.PersonDetail, error) {
	person, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	children, err := s.repo.FindChildren(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load children of person %d: %w", id, err)
	}
	return &domain.PersonDetail{Person: person, Children: children}, nil
}

// FormOptions builds the form choice lists, pre-selected from selected.
func (s *PersonService) FormOptions(ctx context.Context, selected *domain.Person) (FormOptions, error) {
	persons, err := s.repo.ListAll(ctx)
	if err != nil {
		return FormOptions{}, fmt.Errorf("failed to load parent candidates: %w", err)
	}
	return BuildFormOptions(persons, selected), nil
}

// Create inserts a new person; the identifier on p is ignored and replaced
// by the store-assigned one.
func (s *PersonService) Create(ctx context.Context, p *domain.Person) (int64, error) {
	id, err := s.repo.Insert(ctx, p)
	if err != nil {
		return 0, err
	}
	s.logger.Info("person created", zap.Int64("person_id", id))
	return id, nil
}

// Update replaces the person's mutable fields. A vanished row maps to
// ErrNotFound; a genuine concurrent modification stays ErrConflict, never
// silently merged or retried.
func (s *PersonService) Update(ctx context.Context, p *domain.Person) error {
	err := s.repo.Update(ctx, p)
	if err == nil {
		s.logger.Info("person updated", zap.Int64("person_id", p.ID))
		return nil
	}
	if errors.Is(err, repository.ErrConflict) {
		exists, exErr := s.repo.Exists(ctx, p.ID)
		if exErr != nil {
			return fmt.Errorf("failed to disambiguate update conflict: %w", exErr)
		}
		if !exists {
			return repository.ErrNotFound
		}
		s.logger.Warn("concurrent modification detected", zap.Int64("person_id", p.ID))
	}
	return err
}

// Delete removes the person. A row that disappeared between the confirmation
// page and the confirmed POST surfaces as ErrNotFound.
func (s *PersonService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("person deleted", zap.Int64("person_id", id))
	return nil
}

// Get loads a single person with parents resolved (edit and delete forms).
func (s *PersonService) Get(ctx context.Context, id int64) (*domain.Person, error) {
	return s.repo.GetByID(ctx, id)
}
