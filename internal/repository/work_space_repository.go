package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WorkspaceRepository interface {
	Create(ctx context.Context, workspace *Workspace) error
	FindByID(ctx context.Context, id string) (*Workspace, error)
	FindByUserID(ctx context.Context, userID string) ([]*Workspace, error)
	Update(ctx context.Context, workspace *Workspace) error
	Delete(ctx context.Context, id string) (bool, error)
	AddMembers(ctx context.Context, workspaceID string, userIDs []string) (*Workspace, error)
	RemoveMember(ctx context.Context, workspaceID, userID string) (*Workspace, error)
}

type pgWorkspaceRepository struct {
	pool *pgxpool.Pool
}

func NewWorkspaceRepository(pool *pgxpool.Pool) WorkspaceRepository {
	return &pgWorkspaceRepository{pool: pool}
}

const workspaceColumns = `id, name, created_by, members, created_at, updated_at`

func scanWorkspace(row pgx.Row) (*Workspace, error) {
	ws := &Workspace{}
	if err := row.Scan(&ws.ID, &ws.Name, &ws.CreatedBy, &ws.Members, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return nil, err
	}
	return ws, nil
}

func (r *pgWorkspaceRepository) Create(ctx context.Context, workspace *Workspace) error {
	query := `
		INSERT INTO workspaces (name, created_by, members)
		VALUES ($1, $2, $3::text[]::uuid[])
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		workspace.Name, workspace.CreatedBy, workspace.Members,
	).Scan(&workspace.ID, &workspace.CreatedAt, &workspace.UpdatedAt)
}

func (r *pgWorkspaceRepository) FindByID(ctx context.Context, id string) (*Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = $1`
	ws, err := scanWorkspace(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ws, err
}

// FindByUserID returns workspaces the user created or belongs to.
func (r *pgWorkspaceRepository) FindByUserID(ctx context.Context, userID string) ([]*Workspace, error) {
	query := `
		SELECT ` + workspaceColumns + `
		FROM workspaces
		WHERE created_by = $1 OR $1 = ANY(members)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []*Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}
	return workspaces, rows.Err()
}

func (r *pgWorkspaceRepository) Update(ctx context.Context, workspace *Workspace) error {
	query := `
		UPDATE workspaces SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query, workspace.ID, workspace.Name).Scan(&workspace.UpdatedAt)
}

func (r *pgWorkspaceRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// AddMembers merges userIDs into the member set in one statement so concurrent
// additions cannot drop each other's writes.
func (r *pgWorkspaceRepository) AddMembers(ctx context.Context, workspaceID string, userIDs []string) (*Workspace, error) {
	query := `
		UPDATE workspaces
		SET members = ARRAY(SELECT DISTINCT m FROM unnest(members || $2::text[]::uuid[]) AS m),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + workspaceColumns
	ws, err := scanWorkspace(r.pool.QueryRow(ctx, query, workspaceID, userIDs))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ws, err
}

func (r *pgWorkspaceRepository) RemoveMember(ctx context.Context, workspaceID, userID string) (*Workspace, error) {
	query := `
		UPDATE workspaces
		SET members = array_remove(members, $2::uuid), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + workspaceColumns
	ws, err := scanWorkspace(r.pool.QueryRow(ctx, query, workspaceID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ws, err
}
