package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/plotline/internal/model"
	"github.com/xxxsen/plotline/internal/pkg/dbutil"
	appErr "github.com/xxxsen/plotline/internal/pkg/errors"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	data := map[string]interface{}{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"avatar_url":   user.AvatarURL,
		"ctime":        user.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("users", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err = r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsUniqueViolation(err) {
			return appErr.ErrInvalid
		}
		return err
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	where := map[string]interface{}{
		"id": userID,
	}
	sqlStr, args, err := builder.BuildSelect("users", where, []string{"id", "email", "display_name", "avatar_url", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var u model.User
	if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.AvatarURL, &u.Ctime); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ListByIDs(ctx context.Context, userIDs []string) ([]model.User, error) {
	if len(userIDs) == 0 {
		return []model.User{}, nil
	}
	where := map[string]interface{}{
		"id in": userIDs,
	}
	sqlStr, args, err := builder.BuildSelect("users", where, []string{"id", "email", "display_name", "avatar_url", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.AvatarURL, &u.Ctime); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
