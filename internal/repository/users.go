package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/doug-martin/goqu/v9"

	"github.com/yuchen-hong/labcase-tracker/internal/common"
	"github.com/yuchen-hong/labcase-tracker/internal/entity"
)

const userTable = "user"

var userColumns = []any{"id", "identity", "name", "sex", "phone"}

type UserRepository interface {
	// GetByName looks a patient up by exact name match; the natural (but
	// unenforced) dedup key. Returns common.ErrNotFound on a miss.
	GetByName(ctx context.Context, name string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	List(ctx context.Context) ([]*entity.User, error)
	// Update overwrites identity, name, sex and phone by id. Direct overwrite,
	// no optimistic-concurrency check.
	Update(ctx context.Context, user *entity.User) error
}

type userRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewUserRepository(db *DB, logger *slog.Logger) UserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) GetByName(ctx context.Context, name string) (*entity.User, error) {
	query, args, err := r.db.Builder().
		Select(userColumns...).
		From(userTable).
		Where(goqu.Ex{"name": name}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}

	u := &entity.User{}
	err = r.db.SQL().QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.Identity, &u.Name, &u.Sex, &u.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user by name", "name", name, "error", err)
		return nil, err
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	query, args, err := r.db.Builder().
		Insert(userTable).
		Rows(goqu.Record{
			"id":       user.ID,
			"identity": user.Identity,
			"name":     user.Name,
			"sex":      user.Sex,
			"phone":    user.Phone,
		}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build user insert: %w", err)
	}
	if _, err := r.db.SQL().ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to create user", "name", user.Name, "error", err)
		return err
	}
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]*entity.User, error) {
	query, args, err := r.db.Builder().
		Select(userColumns...).
		From(userTable).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build user list: %w", err)
	}

	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list users", "error", err)
		return nil, err
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		u := &entity.User{}
		if err := rows.Scan(&u.ID, &u.Identity, &u.Name, &u.Sex, &u.Phone); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	query, args, err := r.db.Builder().
		Update(userTable).
		Set(goqu.Record{
			"identity": user.Identity,
			"name":     user.Name,
			"sex":      user.Sex,
			"phone":    user.Phone,
		}).
		Where(goqu.Ex{"id": user.ID}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build user update: %w", err)
	}
	if _, err := r.db.SQL().ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to update user", "user_id", user.ID, "error", err)
		return err
	}
	return nil
}
