package projects

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/internal/rbac"
	"github.com/meridian-hq/meridian/internal/shared"
)

// RepositoryPort is the persistence contract consumed by the service.
type RepositoryPort interface {
	InsertProject(ctx context.Context, p Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjectsForUser(ctx context.Context, userID string) ([]Project, error)
	ListAllProjects(ctx context.Context) ([]Project, error)
	UpdateProject(ctx context.Context, p Project) (int64, error)
	InsertTask(ctx context.Context, t Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasks(ctx context.Context, projectID string) ([]Task, error)
	UpdateTask(ctx context.Context, t Task) (int64, error)
	PortfolioAggregate(ctx context.Context, asOf time.Time) (active, completed int, tasks map[TaskStatus]int, overdue int, err error)
}

// Service implements project and task management.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateInput carries the fields for a new project.
type CreateInput struct {
	Name        string
	Description string
	ManagerID   string
	MemberIDs   []string
	Deadline    *time.Time
}

// Create registers a new active project managed by the given user.
// Only roles that can run teams may create projects.
func (s *Service) Create(ctx context.Context, in CreateInput, callerID, callerRole string) (*Project, error) {
	if !rbac.Has(callerRole, shared.PermProjectsManage) {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrValidation
	}
	managerID := in.ManagerID
	if managerID == "" {
		managerID = callerID
	}
	if managerID != callerID && !rbac.IsAdmin(callerRole) {
		return nil, ErrForbidden
	}

	now := s.now().UTC()
	p := Project{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Status:      StatusActive,
		ManagerID:   managerID,
		MemberIDs:   dedupe(in.MemberIDs),
		Deadline:    in.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertProject(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Get returns one project visible to the caller.
func (s *Service) Get(ctx context.Context, id, callerID, callerRole string) (*Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(p, callerID, callerRole) {
		return nil, ErrForbidden
	}
	return p, nil
}

// List returns the projects visible to the caller. Admins see the whole
// portfolio, everyone else sees projects they manage or belong to.
func (s *Service) List(ctx context.Context, callerID, callerRole string) ([]Project, error) {
	if rbac.IsAdmin(callerRole) {
		return s.repo.ListAllProjects(ctx)
	}
	return s.repo.ListProjectsForUser(ctx, callerID)
}

// UpdateInput is a partial patch for a project. Nil fields keep their
// stored values.
type UpdateInput struct {
	Name        *string
	Description *string
	Status      *string
	MemberIDs   *[]string
	Deadline    *time.Time
}

// Update patches a project. Only the managing user or an admin may
// change it, and completed or cancelled projects are frozen.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, callerID, callerRole string) (*Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.ManagerID != callerID && !rbac.IsAdmin(callerRole) {
		return nil, ErrForbidden
	}
	if p.Status.Closed() {
		return nil, ErrInvalidState
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, ErrValidation
		}
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Status != nil {
		next := Status(*in.Status)
		if !KnownStatus(next) {
			return nil, ErrValidation
		}
		p.Status = next
	}
	if in.MemberIDs != nil {
		p.MemberIDs = dedupe(*in.MemberIDs)
	}
	if in.Deadline != nil {
		p.Deadline = in.Deadline
	}
	p.UpdatedAt = s.now().UTC()

	rows, err := s.repo.UpdateProject(ctx, *p)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return p, nil
}

// TaskInput carries the fields for a new task.
type TaskInput struct {
	Title      string
	Details    string
	AssigneeID string
	DueDate    *time.Time
}

// AddTask creates a task on a project. The project manager, an admin,
// or any member may add tasks; closed projects reject new work.
func (s *Service) AddTask(ctx context.Context, projectID string, in TaskInput, callerID, callerRole string) (*Task, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !canSee(p, callerID, callerRole) {
		return nil, ErrForbidden
	}
	if p.Status.Closed() {
		return nil, ErrInvalidState
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrValidation
	}

	now := s.now().UTC()
	t := Task{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		Title:      strings.TrimSpace(in.Title),
		Details:    in.Details,
		Status:     TaskTodo,
		AssigneeID: in.AssigneeID,
		DueDate:    in.DueDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.InsertTask(ctx, t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Tasks returns a project's tasks for a caller who can see the project.
func (s *Service) Tasks(ctx context.Context, projectID, callerID, callerRole string) ([]Task, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !canSee(p, callerID, callerRole) {
		return nil, ErrForbidden
	}
	return s.repo.ListTasks(ctx, projectID)
}

// UpdateTaskStatus moves a task along the todo/in_progress/review/
// completed board. The assignee, the project manager, or an admin may
// move it.
func (s *Service) UpdateTaskStatus(ctx context.Context, taskID, status, callerID, callerRole string) (*Task, error) {
	next := TaskStatus(status)
	if !KnownTaskStatus(next) {
		return nil, ErrValidation
	}
	t, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetProject(ctx, t.ProjectID)
	if err != nil {
		return nil, err
	}
	if t.AssigneeID != callerID && p.ManagerID != callerID && !rbac.IsAdmin(callerRole) {
		return nil, ErrForbidden
	}
	if p.Status.Closed() {
		return nil, ErrInvalidState
	}

	t.Status = next
	t.UpdatedAt = s.now().UTC()
	rows, err := s.repo.UpdateTask(ctx, *t)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return t, nil
}

// PortfolioStats summarizes all projects and tasks as of now.
func (s *Service) PortfolioStats(ctx context.Context) (*Stats, error) {
	active, completed, tasks, overdue, err := s.repo.PortfolioAggregate(ctx, s.now().UTC())
	if err != nil {
		return nil, err
	}
	return &Stats{
		ActiveProjects:    active,
		CompletedProjects: completed,
		TasksByStatus:     tasks,
		OverdueTasks:      overdue,
	}, nil
}

func canSee(p *Project, callerID, callerRole string) bool {
	if rbac.IsAdmin(callerRole) || p.ManagerID == callerID {
		return true
	}
	for _, id := range p.MemberIDs {
		if id == callerID {
			return true
		}
	}
	return false
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
