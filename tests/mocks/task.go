package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	sharedDomain "github.com/davicafu/hrlab/internal/shared/domain"
	sharedQuery "github.com/davicafu/hrlab/internal/shared/infra/platform/query"
	taskDomain "github.com/davicafu/hrlab/internal/task/domain"
	"github.com/google/uuid"
)

// InMemoryTaskRepo simula TaskRepository con outbox incluido.
type InMemoryTaskRepo struct {
	Tasks  map[uuid.UUID]*taskDomain.Task
	Outbox []sharedDomain.OutboxEvent
	mu     sync.Mutex
}

var _ taskDomain.TaskRepository = (*InMemoryTaskRepo)(nil)

func NewInMemoryTaskRepo() *InMemoryTaskRepo {
	return &InMemoryTaskRepo{
		Tasks:  make(map[uuid.UUID]*taskDomain.Task),
		Outbox: []sharedDomain.OutboxEvent{},
	}
}

// Create con outbox
func (r *InMemoryTaskRepo) Create(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Tasks[t.ID]; ok {
		return taskDomain.ErrTaskAlreadyExists
	}
	copied := *t
	r.Tasks[t.ID] = &copied
	r.Outbox = append(r.Outbox, evt)
	return nil
}

// Update con outbox
func (r *InMemoryTaskRepo) Update(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Tasks[t.ID]; !ok {
		return taskDomain.ErrTaskNotFound
	}
	copied := *t
	r.Tasks[t.ID] = &copied
	r.Outbox = append(r.Outbox, evt)
	return nil
}

// GetByID
func (r *InMemoryTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.Tasks[id]
	if !ok {
		return nil, taskDomain.ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

// ListByCriteria en el mock
func (r *InMemoryTaskRepo) ListByCriteria(
	ctx context.Context,
	criteria sharedDomain.Criteria,
	pagination sharedQuery.Pagination,
	s sharedQuery.Sort, // renombrado para no colisionar con package sort
) ([]*taskDomain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var list []*taskDomain.Task
	for _, t := range r.Tasks {
		// Si no hay criterio, consideramos que coincide todo
		if criteria == nil {
			list = append(list, t)
			continue
		}

		matchesAll := true
		for _, cond := range criteria.ToConditions() {
			if !matchTaskCriterion(t, cond) {
				matchesAll = false
				break
			}
		}
		if matchesAll {
			list = append(list, t)
		}
	}

	if s.Field != "" {
		switch s.Field {
		case "title":
			sort.Slice(list, func(i, j int) bool {
				if s.Desc {
					return list[i].Title > list[j].Title
				}
				return list[i].Title < list[j].Title
			})
		case "created_at":
			sort.Slice(list, func(i, j int) bool {
				if s.Desc {
					return list[i].CreatedAt.After(list[j].CreatedAt)
				}
				return list[i].CreatedAt.Before(list[j].CreatedAt)
			})
		}
	}

	switch p := pagination.(type) {
	case sharedQuery.OffsetPagination:
		start := p.Offset
		if start > len(list) {
			return []*taskDomain.Task{}, nil
		}
		end := start + p.Limit
		if end > len(list) {
			end = len(list)
		}
		return list[start:end], nil
	default:
		// si no se reconoce, devolvemos todo (sin paginar)
		return list, nil
	}
}

// matchTaskCriterion evalúa un domain.Criterion contra una tarea en memoria.
func matchTaskCriterion(t *taskDomain.Task, crit sharedDomain.Criterion) bool {
	op := strings.ToUpper(strings.TrimSpace(string(crit.Op)))

	switch crit.Field {
	case "id":
		switch v := crit.Value.(type) {
		case uuid.UUID:
			return t.ID == v
		case string:
			return t.ID.String() == v
		default:
			return t.ID.String() == fmt.Sprintf("%v", crit.Value)
		}

	case "status":
		return string(t.Status) == fmt.Sprintf("%v", crit.Value)

	case "priority":
		return string(t.Priority) == fmt.Sprintf("%v", crit.Value)

	case "task_type":
		return string(t.Type) == fmt.Sprintf("%v", crit.Value)

	case "assignee_id":
		if t.AssigneeID == nil {
			return false
		}
		return t.AssigneeID.String() == fmt.Sprintf("%v", crit.Value)

	case "assigner_id":
		return t.AssignerID.String() == fmt.Sprintf("%v", crit.Value)

	case "title":
		val := fmt.Sprintf("%v", crit.Value)
		if op == "ILIKE" || op == "LIKE" {
			p := strings.Trim(val, "%")
			if op == "ILIKE" {
				return strings.Contains(strings.ToLower(t.Title), strings.ToLower(p))
			}
			return strings.Contains(t.Title, p)
		}
		return t.Title == val

	case "created_at":
		valTime, ok := crit.Value.(time.Time)
		if !ok {
			return true
		}
		switch op {
		case "<", "<=":
			return t.CreatedAt.Before(valTime) || t.CreatedAt.Equal(valTime)
		case ">", ">=":
			return t.CreatedAt.After(valTime) || t.CreatedAt.Equal(valTime)
		case "=":
			return t.CreatedAt.Equal(valTime)
		default:
			return true
		}

	default:
		// criterio desconocido: no filtrar (mejor ser permisivo en mock)
		return true
	}
}

// ------------------- Outbox -------------------

func (r *InMemoryTaskRepo) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.Outbox) {
		limit = len(r.Outbox)
	}
	pending := r.Outbox[:limit]
	return append([]sharedDomain.OutboxEvent(nil), pending...), nil
}

func (r *InMemoryTaskRepo) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, evt := range r.Outbox {
		if evt.ID == id {
			// eliminar de outbox para simular que se procesó
			r.Outbox = append(r.Outbox[:i], r.Outbox[i+1:]...)
			return nil
		}
	}
	return taskDomain.ErrTaskNotFound
}

// LastOutboxEventType devuelve el tipo del último evento encolado.
func (r *InMemoryTaskRepo) LastOutboxEventType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Outbox) == 0 {
		return ""
	}
	return r.Outbox[len(r.Outbox)-1].EventType
}

// ------------------- Actividad -------------------

// InMemoryActivityRepo simula el log de actividad append-only.
type InMemoryActivityRepo struct {
	Activities []*taskDomain.TaskActivity
	FailAppend bool // fuerza el fallo de Append para probar warn-and-continue
	mu         sync.Mutex
}

var _ taskDomain.TaskActivityRepository = (*InMemoryActivityRepo)(nil)

func NewInMemoryActivityRepo() *InMemoryActivityRepo {
	return &InMemoryActivityRepo{Activities: []*taskDomain.TaskActivity{}}
}

func (r *InMemoryActivityRepo) Append(ctx context.Context, a *taskDomain.TaskActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAppend {
		return fmt.Errorf("activity store unavailable")
	}
	r.Activities = append(r.Activities, a)
	return nil
}

func (r *InMemoryActivityRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*taskDomain.TaskActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*taskDomain.TaskActivity
	for _, a := range r.Activities {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Actions devuelve la secuencia de acciones registradas, en orden.
func (r *InMemoryActivityRepo) Actions() []taskDomain.ActivityAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]taskDomain.ActivityAction, 0, len(r.Activities))
	for _, a := range r.Activities {
		out = append(out, a.Action)
	}
	return out
}

// ------------------- Comentarios -------------------

type InMemoryCommentRepo struct {
	Comments map[uuid.UUID]*taskDomain.TaskComment
	mu       sync.Mutex
}

var _ taskDomain.TaskCommentRepository = (*InMemoryCommentRepo)(nil)

func NewInMemoryCommentRepo() *InMemoryCommentRepo {
	return &InMemoryCommentRepo{Comments: make(map[uuid.UUID]*taskDomain.TaskComment)}
}

func (r *InMemoryCommentRepo) Create(ctx context.Context, c *taskDomain.TaskComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *c
	r.Comments[c.ID] = &copied
	return nil
}

func (r *InMemoryCommentRepo) GetByID(ctx context.Context, id uuid.UUID) (*taskDomain.TaskComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.Comments[id]
	if !ok {
		return nil, taskDomain.ErrCommentNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *InMemoryCommentRepo) Update(ctx context.Context, c *taskDomain.TaskComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Comments[c.ID]; !ok {
		return taskDomain.ErrCommentNotFound
	}
	copied := *c
	r.Comments[c.ID] = &copied
	return nil
}

func (r *InMemoryCommentRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Comments[id]; !ok {
		return taskDomain.ErrCommentNotFound
	}
	delete(r.Comments, id)
	return nil
}

func (r *InMemoryCommentRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*taskDomain.TaskComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*taskDomain.TaskComment
	for _, c := range r.Comments {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ------------------- Resolución de actores -------------------

// ActorDirectory simula la resolución user_id → employee_id.
type ActorDirectory struct {
	ByUserID map[uuid.UUID]uuid.UUID
	mu       sync.Mutex
}

func NewActorDirectory() *ActorDirectory {
	return &ActorDirectory{ByUserID: make(map[uuid.UUID]uuid.UUID)}
}

// RegisterSelf da de alta un actor cuyo user_id y employee_id coinciden,
// lo habitual en los tests donde la identidad cruzada no importa.
func (d *ActorDirectory) RegisterSelf(id uuid.UUID) uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ByUserID[id] = id
	return id
}

func (d *ActorDirectory) Register(userID, employeeID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ByUserID[userID] = employeeID
}

func (d *ActorDirectory) ResolveEmployeeID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.ByUserID[userID]
	if !ok {
		return uuid.Nil, fmt.Errorf("unknown actor %s", userID)
	}
	return id, nil
}
