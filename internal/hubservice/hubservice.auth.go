package hubservice

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/models"
	"github.com/itsatony/struccy"
	nuts "github.com/vaudience/go-nuts"
)

const (
	maxUsernameLength = 150
	maxEmailLength    = 254
)

// roleOwner is the struccy read role of a user viewing their own profile
var roleOwner = []string{"owner"}

// RegisterInput is the body of a registration request
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput is the body of a token request
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in RegisterInput) validate() error {
	if strings.TrimSpace(in.Username) == "" {
		return errors.NewValidationError("username is required", nil)
	}
	if len(in.Username) > maxUsernameLength {
		return errors.NewValidationError("username is too long", nil)
	}
	if in.Email == "" {
		return errors.NewValidationError("email is required", nil)
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email || len(in.Email) > maxEmailLength {
		return errors.NewValidationError("email is not a valid address", err)
	}
	if in.Password == "" {
		return errors.NewValidationError("password is required", nil)
	}
	return nil
}

// Register creates an account and opens a session for it
func (s *HubService) Register(ctx context.Context, in RegisterInput) (*models.Session, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if _, err := s.Users.GetByUsername(ctx, in.Username); err == nil {
		return nil, errors.NewConflictError("username already exists", nil)
	} else if !errors.IsNotFound(err) {
		return nil, err
	}
	if _, err := s.Users.GetByEmail(ctx, in.Email); err == nil {
		return nil, errors.NewConflictError("email already registered", nil)
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	hash, err := s.Passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	// The unique constraints still decide a race between two registrations
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := s.Tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}

	nuts.L.Infof("[AuthService] Registered user %s (%d)", user.Username, user.ID)
	s.Emit(EventUserRegistered, strconv.FormatInt(user.ID, 10))
	return models.NewSession(tokens, user), nil
}

// Login verifies credentials by email. Unknown email and wrong password fail
// with the same error.
func (s *HubService) Login(ctx context.Context, in LoginInput) (*models.Session, error) {
	if in.Email == "" || in.Password == "" {
		return nil, errors.NewValidationError("email and password are required", nil)
	}

	user, err := s.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewAuthError("invalid credentials", nil)
		}
		return nil, err
	}
	if !s.Passwords.Verify(user.PasswordHash, in.Password) {
		return nil, errors.NewAuthError("invalid credentials", nil)
	}

	tokens, err := s.Tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}
	return models.NewSession(tokens, user), nil
}

// Refresh exchanges a refresh token for a new access token
func (s *HubService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	return s.Tokens.IssueAccess(userID)
}

// Authenticate resolves the user behind an access token
func (s *HubService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	userID, err := s.Tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, err
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewAuthError("user not found", err)
		}
		return nil, err
	}
	return user, nil
}

// CurrentUser returns the caller's profile restricted to the fields the
// owner role may read
func (s *HubService) CurrentUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.NewAuthError("authentication credentials were not provided", nil)
	}

	filtered, err := filterUser(user, roleOwner)
	if err != nil {
		nuts.L.Warnf("[AuthService] Field filtering failed for user %d: %v", user.ID, err)
		filtered = &models.User{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		}
	}
	return filtered, nil
}

// filterUser copies the fields of user readable by roles
func filterUser(user *models.User, roles []string) (*models.User, error) {
	filteredMap, err := struccy.StructToMapFieldsWithReadXS(user, roles)
	if err != nil {
		return nil, err
	}
	filtered := &models.User{}
	if _, err := struccy.MergeMapStringFieldsToStruct(filtered, filteredMap, roles); err != nil {
		return nil, err
	}
	if filtered.ID != user.ID {
		return nil, fmt.Errorf("identity field not readable")
	}
	return filtered, nil
}
