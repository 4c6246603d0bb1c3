package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, id string) (*Task, error)
	// FindVisible lists tasks without a workspace plus tasks in workspaces the
	// user created or belongs to. includeAll skips the workspace filter.
	FindVisible(ctx context.Context, userID string, includeAll bool) ([]*Task, error)
	FindByWorkspace(ctx context.Context, workspaceID string) ([]*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) (bool, error)
}

type pgTaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &pgTaskRepository{pool: pool}
}

// Assignee is populated with a LEFT JOIN on users.
const taskSelect = `
	SELECT t.id, t.title, t.description, t.priority, t.status, t.assignee_id, t.assignee_name,
	       t.assignee_email, t.due_date, t.workspace_id, t.created_by, t.created_at, t.updated_at,
	       u.id, u.first_name, u.last_name, u.email
	FROM tasks t
	LEFT JOIN users u ON u.id = t.assignee_id
`

func scanTask(row pgx.Row) (*Task, error) {
	t := &Task{}
	var (
		uID, uFirst, uLast, uEmail *string
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.AssigneeID, &t.AssigneeName,
		&t.AssigneeEmail, &t.DueDate, &t.WorkspaceID, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
		&uID, &uFirst, &uLast, &uEmail,
	)
	if err != nil {
		return nil, err
	}
	if uID != nil {
		u := User{ID: *uID, FirstName: deref(uFirst), LastName: deref(uLast), Email: deref(uEmail)}
		t.Assignee = &UserSummary{ID: u.ID, Name: u.FullName(), Email: u.Email}
	}
	return t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *pgTaskRepository) Create(ctx context.Context, task *Task) error {
	query := `
		INSERT INTO tasks (title, description, priority, status, assignee_id, assignee_name,
		                   assignee_email, due_date, workspace_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, LOWER($7), $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		task.Title, task.Description, task.Priority, task.Status, task.AssigneeID, task.AssigneeName,
		task.AssigneeEmail, task.DueDate, task.WorkspaceID, task.CreatedBy,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *pgTaskRepository) FindByID(ctx context.Context, id string) (*Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *pgTaskRepository) FindVisible(ctx context.Context, userID string, includeAll bool) ([]*Task, error) {
	if includeAll {
		return r.queryTasks(ctx, taskSelect+` ORDER BY t.created_at DESC`)
	}
	query := taskSelect + `
		LEFT JOIN workspaces w ON w.id = t.workspace_id
		WHERE t.workspace_id IS NULL OR w.created_by = $1 OR $1 = ANY(w.members)
		ORDER BY t.created_at DESC
	`
	return r.queryTasks(ctx, query, userID)
}

func (r *pgTaskRepository) FindByWorkspace(ctx context.Context, workspaceID string) ([]*Task, error) {
	return r.queryTasks(ctx, taskSelect+` WHERE t.workspace_id = $1 ORDER BY t.created_at DESC`, workspaceID)
}

func (r *pgTaskRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *pgTaskRepository) Update(ctx context.Context, task *Task) error {
	query := `
		UPDATE tasks SET
			title = $2, description = $3, priority = $4, status = $5, assignee_id = $6,
			assignee_name = $7, assignee_email = LOWER($8), due_date = $9, workspace_id = $10,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query,
		task.ID, task.Title, task.Description, task.Priority, task.Status, task.AssigneeID,
		task.AssigneeName, task.AssigneeEmail, task.DueDate, task.WorkspaceID,
	).Scan(&task.UpdatedAt)
}

func (r *pgTaskRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
