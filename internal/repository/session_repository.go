package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Marga-Ghale/teamhub-backend/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// SessionRepository stores refresh tokens.
type SessionRepository interface {
	Save(ctx context.Context, token *RefreshToken) error
	Find(ctx context.Context, token string) (*RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

// ============================================
// Postgres implementation
// ============================================

type pgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) SessionRepository {
	return &pgSessionRepository{pool: pool}
}

func (r *pgSessionRepository) Save(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	return r.pool.QueryRow(ctx, query, token.Token, token.UserID, token.ExpiresAt).Scan(&token.CreatedAt)
}

func (r *pgSessionRepository) Find(ctx context.Context, token string) (*RefreshToken, error) {
	query := `SELECT token, user_id, expires_at, created_at FROM refresh_tokens WHERE token = $1`
	rt := &RefreshToken{}
	err := r.pool.QueryRow(ctx, query, token).Scan(&rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *pgSessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	return err
}

func (r *pgSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

// ============================================
// Redis implementation
// ============================================

type redisSessionRepository struct {
	redis *db.RedisDB
}

func NewRedisSessionRepository(redisDB *db.RedisDB) SessionRepository {
	return &redisSessionRepository{redis: redisDB}
}

func (r *redisSessionRepository) Save(ctx context.Context, token *RefreshToken) error {
	token.CreatedAt = time.Now()
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.redis.SetSession(ctx, token.Token, token, ttl)
}

func (r *redisSessionRepository) Find(ctx context.Context, token string) (*RefreshToken, error) {
	rt := &RefreshToken{}
	err := r.redis.GetSession(ctx, token, rt)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, token string) error {
	return r.redis.DeleteSession(ctx, token)
}

// DeleteExpired is a no-op: keys carry their own TTL.
func (r *redisSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}
