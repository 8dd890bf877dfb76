package postgres

import (
	"context"
	"time"

	"github.com/itsatony/sensorhub/internal/database"
	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const userColumns = `id, username, email, password_hash, created_at`

type UserRepo struct {
	PostgresBaseRepo
}

func NewUserRepository(db database.DB) *UserRepo {
	return &UserRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	err := r.db.GetDB().QueryRowxContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			if pqConstraint(err) == "users_email_key" {
				return errors.NewConflictError("email already registered", err)
			}
			return errors.NewConflictError("username already exists", err)
		}
		return errors.NewDatabaseError("failed to create user", err)
	}

	nuts.L.Infof("[UserRepo] Created user %d (%s)", user.ID, user.Username)
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepo) First(ctx context.Context) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT 1`)
}

func (r *UserRepo) getOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.GetDB().GetContext(ctx, user, query, args...)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.NewNotFoundError("user not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get user", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}
