package memory

import (
	"context"
	"time"

	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/models"
)

type UserRepo struct {
	s *Store
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.data.users {
		if u.Username == user.Username {
			return errors.NewConflictError("username already exists", nil)
		}
		if u.Email == user.Email {
			return errors.NewConflictError("email already registered", nil)
		}
	}

	r.s.data.nextUser++
	user.ID = r.s.data.nextUser
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.s.data.users[user.ID] = *user
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *UserRepo) First(ctx context.Context) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var first *models.User
	for _, u := range r.s.data.users {
		if first == nil || u.ID < first.ID {
			u := u
			first = &u
		}
	}
	if first == nil {
		return nil, errors.NewNotFoundError("user not found", nil)
	}
	return first, nil
}

func (r *UserRepo) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.data.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, errors.NewNotFoundError("user not found", nil)
}
