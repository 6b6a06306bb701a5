package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/repository"
	"github.com/google/uuid"
)

type directoryService struct {
	employees repository.EmployeeRepo
	shifts    repository.ShiftRepo
	now       func() time.Time
}

func NewDirectoryService(employees repository.EmployeeRepo, shifts repository.ShiftRepo) DirectoryService {
	return &directoryService{employees: employees, shifts: shifts, now: time.Now}
}

func (s *directoryService) AddEmployee(ctx context.Context, id, name string) (*domain.Employee, error) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if id == "" || name == "" {
		return nil, fmt.Errorf("employee id and name are required: %w", domain.ErrValidation)
	}
	e := &domain.Employee{ID: id, Name: name, Active: true, CreatedAt: s.now().UTC()}
	if err := s.employees.Create(ctx, e); err != nil {
		return nil, classify("adding employee", err)
	}
	return e, nil
}

func (s *directoryService) ListEmployees(ctx context.Context, includeInactive bool) ([]*domain.Employee, error) {
	list, err := s.employees.List(ctx, includeInactive)
	return list, classify("listing employees", err)
}

func (s *directoryService) DeactivateEmployee(ctx context.Context, id string) error {
	err := s.employees.SetActive(ctx, id, false)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("unknown employee %s: %w", id, domain.ErrValidation)
	}
	return classify("deactivating employee", err)
}

func (s *directoryService) AddPattern(ctx context.Context, in PatternInput) (*domain.ShiftPattern, error) {
	start, err := domain.ParseTimeOfDay(in.Start)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseTimeOfDay(in.End)
	if err != nil {
		return nil, err
	}
	p := &domain.ShiftPattern{
		ID:                       uuid.New().String(),
		Name:                     strings.TrimSpace(in.Name),
		Start:                    start,
		End:                      end,
		GracePeriodMinutes:       in.GracePeriodMinutes,
		OvertimeThresholdMinutes: in.OvertimeThresholdMinutes,
		CreatedAt:                s.now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.shifts.CreatePattern(ctx, p); err != nil {
		return nil, classify("adding shift pattern", err)
	}
	return p, nil
}

func (s *directoryService) ListPatterns(ctx context.Context) ([]*domain.ShiftPattern, error) {
	list, err := s.shifts.ListPatterns(ctx)
	return list, classify("listing shift patterns", err)
}

func (s *directoryService) AssignPattern(ctx context.Context, employeeID, patternName string, days []time.Weekday) error {
	if len(days) == 0 {
		return fmt.Errorf("at least one weekday is required: %w", domain.ErrValidation)
	}
	if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("unknown employee %s: %w", employeeID, domain.ErrValidation)
		}
		return classify("loading employee", err)
	}
	p, err := s.shifts.GetPatternByName(ctx, patternName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("unknown shift pattern %q: %w", patternName, domain.ErrValidation)
		}
		return classify("loading shift pattern", err)
	}
	for _, wd := range days {
		a := domain.ShiftAssignment{EmployeeID: employeeID, Weekday: wd, ShiftPatternID: p.ID}
		if err := s.shifts.Assign(ctx, a); err != nil {
			return classify("assigning shift pattern", err)
		}
	}
	return nil
}

func (s *directoryService) UnassignPattern(ctx context.Context, employeeID string, days []time.Weekday) error {
	for _, wd := range days {
		if err := s.shifts.Unassign(ctx, employeeID, wd); err != nil {
			return classify("removing shift assignment", err)
		}
	}
	return nil
}

func (s *directoryService) ListAssignments(ctx context.Context, employeeID string) ([]domain.ShiftAssignment, error) {
	list, err := s.shifts.ListAssignments(ctx, employeeID)
	return list, classify("listing shift assignments", err)
}
