package postgres

/*
Файл guardian_repo.go — долговременное хранилище множества опекунов.
Слой отделяет хранение имен в PostgreSQL от их мгновенной проверки
в оперативной памяти шлюза (L1-кэш в internal/guardians).
*/

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xela07ax/vaultgate-prototype/internal/domain"
)

type GuardianRepo struct {
	pool *pgxpool.Pool
}

func NewGuardianRepo(pool *pgxpool.Pool) *GuardianRepo {
	return &GuardianRepo{pool: pool}
}

func (r *GuardianRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// ListGuardianNames выполняет "холодную загрузку" всех имен при старте
// и при пересинхронизации после разрыва Pub/Sub.
func (r *GuardianRepo) ListGuardianNames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM guardians`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list guardians: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// ListGuardians возвращает полные записи для админки.
func (r *GuardianRepo) ListGuardians(ctx context.Context) ([]domain.Guardian, error) {
	query := `SELECT id, name, created_at, updated_at FROM guardians ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list guardians: %w", err)
	}
	defer rows.Close()

	var results []domain.Guardian
	for rows.Next() {
		var g domain.Guardian
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, g)
	}
	return results, rows.Err()
}

func (r *GuardianRepo) GetGuardianByName(ctx context.Context, name string) (*domain.Guardian, error) {
	query := `SELECT id, name, created_at, updated_at FROM guardians WHERE name = $1`

	g := &domain.Guardian{}
	err := r.pool.QueryRow(ctx, query, name).Scan(&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // 404 решает хендлер
		}
		return nil, err
	}
	return g, nil
}

// CreateGuardian добавляет имя в множество опекунов.
func (r *GuardianRepo) CreateGuardian(ctx context.Context, name string) error {
	query := `
		INSERT INTO guardians (id, name)
		VALUES (gen_random_uuid(), $1)
		ON CONFLICT (name) DO NOTHING`

	_, err := r.pool.Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("postgres: failed to create guardian: %w", err)
	}
	return nil
}

// DeleteGuardian исключает имя из множества опекунов.
func (r *GuardianRepo) DeleteGuardian(ctx context.Context, name string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM guardians WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete guardian: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return fmt.Errorf("postgres: guardian not found")
	}
	return nil
}
