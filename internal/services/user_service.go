package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/isdelr/inkwell-be/internal/auth"
	"github.com/isdelr/inkwell-be/internal/models"
)

// TokenAuthority issues and revokes identity tokens.
type TokenAuthority interface {
	Issue(userID, username string) (string, time.Time, error)
	Revoke(ctx context.Context, token string) error
}

// FileRemover deletes stored upload files by the path recorded on an image.
type FileRemover interface {
	Remove(path string) error
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=10"`
}

// LoginInput is the payload for exchanging credentials for a token.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=10"`
}

// UpdateProfileInput changes the caller's own account. Absent fields are left untouched.
type UpdateProfileInput struct {
	Username    *string `json:"username" validate:"omitnil,min=1,max=64"`
	Email       *string `json:"email" validate:"omitnil,email,max=254"`
	OldPassword *string `json:"oldPassword" validate:"omitnil,min=1"`
	NewPassword *string `json:"newPassword" validate:"omitnil,min=6,max=10"`
}

// LoginResult carries the issued token.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, input RegisterInput) (models.User, error)
	Login(ctx context.Context, input LoginInput) (LoginResult, error)
	Logout(ctx context.Context, token string) error
	ListAll(ctx context.Context, p auth.Principal, req PageRequest) (Page[models.User], error)
	GetByID(ctx context.Context, p auth.Principal, id string) (models.User, error)
	DeleteByID(ctx context.Context, p auth.Principal, id string) error
	Profile(ctx context.Context, p auth.Principal) (models.User, error)
	UpdateProfile(ctx context.Context, p auth.Principal, input UpdateProfileInput) (models.User, error)
	EnsureSuperAdmin(ctx context.Context, username, email, password string) (bool, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db     *gorm.DB
	tokens TokenAuthority
	files  FileRemover
	events EventServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *gorm.DB, tokens TokenAuthority, files FileRemover, events EventServiceProvider) *UserService {
	return &UserService{db: db, tokens: tokens, files: files, events: events}
}

// Register creates a new USER account, hashing the password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateInput(&input); err != nil {
		return models.User{}, err
	}

	db := s.db.WithContext(ctx)
	if taken, err := exists(db, &models.User{}, "username = ?", input.Username); err != nil {
		return models.User{}, internal("users.register", err)
	} else if taken {
		return models.User{}, conflict("Username already exists.")
	}
	if taken, err := exists(db, &models.User{}, "email = ?", input.Email); err != nil {
		return models.User{}, internal("users.register", err)
	} else if taken {
		return models.User{}, conflict("Email already exists.")
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		return models.User{}, internal("users.register", err)
	}

	user := models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: hashed,
		Role:     models.RoleUser,
	}
	// A concurrent registration can still win the race; the unique index rejects the second writer.
	if err := db.Create(&user).Error; err != nil {
		return models.User{}, storeError("users.register", "User", err)
	}

	s.events.Record(ctx, EventUserRegister, "info", fmt.Sprintf("User '%s' registered.", user.Username), strPtr(user.ID), nil)
	return user, nil
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := validateInput(&input); err != nil {
		return LoginResult{}, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", input.Username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoginResult{}, NewError(KindNotFound, "Username is incorrect.")
		}
		return LoginResult{}, internal("users.login", err)
	}

	ok, err := auth.CheckPassword(user.Password, input.Password)
	if err != nil {
		return LoginResult{}, internal("users.login", err)
	}
	if !ok {
		log.Warn().Str("username", user.Username).Msg("Failed authentication attempt")
		return LoginResult{}, NewError(KindAuthentication, "Password is incorrect.")
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return LoginResult{}, internal("users.login", err)
	}
	return LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

// Logout revokes the given token.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return &Error{Kind: KindAuthentication, Message: "Invalid or expired token.", Err: err}
		}
		return internal("users.logout", err)
	}
	return nil
}

// ListAll returns a page of users. Admin only.
func (s *UserService) ListAll(ctx context.Context, p auth.Principal, req PageRequest) (Page[models.User], error) {
	if err := auth.RequireRole(p, models.RoleAdmin); err != nil {
		return Page[models.User]{}, forbidden("Admin access required.")
	}

	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return Page[models.User]{}, internal("users.list", err)
	}

	q, page := paginate[models.User](db.Model(&models.User{}).Order("created_at ASC").Order("id ASC"), req, total)
	page.Items = []models.User{}
	if err := q.Find(&page.Items).Error; err != nil {
		return Page[models.User]{}, internal("users.list", err)
	}
	return page, nil
}

// GetByID retrieves a single user. Admin only.
func (s *UserService) GetByID(ctx context.Context, p auth.Principal, id string) (models.User, error) {
	if err := auth.RequireRole(p, models.RoleAdmin); err != nil {
		return models.User{}, forbidden("Admin access required.")
	}
	return s.find(ctx, id)
}

// DeleteByID removes a user with everything they own. Admin only.
func (s *UserService) DeleteByID(ctx context.Context, p auth.Principal, id string) error {
	if err := auth.RequireRole(p, models.RoleAdmin); err != nil {
		return forbidden("Admin access required.")
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	var imagePaths []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postIDs []string
		if err := tx.Model(&models.Post{}).Where("author_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Model(&models.Image{}).Where("post_id IN ?", postIDs).Pluck("image_url", &imagePaths).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Image{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return storeError("users.delete", "User", err)
	}

	removeFiles(s.files, imagePaths)
	s.events.Record(ctx, EventUserDelete, "warn", fmt.Sprintf("User '%s' was deleted.", user.Username), strPtr(p.ID), nil)
	return nil
}

// Profile returns the caller's own account.
func (s *UserService) Profile(ctx context.Context, p auth.Principal) (models.User, error) {
	if p.ID == "" {
		return models.User{}, NewError(KindAuthentication, "Authentication required.")
	}
	return s.find(ctx, p.ID)
}

// UpdateProfile changes the caller's username, email and/or password.
func (s *UserService) UpdateProfile(ctx context.Context, p auth.Principal, input UpdateProfileInput) (models.User, error) {
	if p.ID == "" {
		return models.User{}, NewError(KindAuthentication, "Authentication required.")
	}
	trimPtr(input.Username)
	trimPtr(input.Email)
	if err := validateInput(&input); err != nil {
		return models.User{}, err
	}

	user, err := s.find(ctx, p.ID)
	if err != nil {
		return models.User{}, err
	}

	db := s.db.WithContext(ctx)
	updates := map[string]interface{}{}

	if input.Username != nil && *input.Username != user.Username {
		if taken, err := exists(db, &models.User{}, "username = ? AND id <> ?", *input.Username, user.ID); err != nil {
			return models.User{}, internal("users.profile", err)
		} else if taken {
			return models.User{}, conflict("Username already exists.")
		}
		updates["username"] = *input.Username
	}

	if input.Email != nil && *input.Email != user.Email {
		if taken, err := exists(db, &models.User{}, "email = ? AND id <> ?", *input.Email, user.ID); err != nil {
			return models.User{}, internal("users.profile", err)
		} else if taken {
			return models.User{}, conflict("Email already exists.")
		}
		updates["email"] = *input.Email
	}

	if input.NewPassword != nil {
		if input.OldPassword == nil {
			return models.User{}, validationError("Old password is required to update password.")
		}
		ok, err := auth.CheckPassword(user.Password, *input.OldPassword)
		if err != nil {
			return models.User{}, internal("users.profile", err)
		}
		if !ok {
			return models.User{}, NewError(KindAuthentication, "Old password is incorrect.")
		}
		hashed, err := auth.HashPassword(*input.NewPassword)
		if err != nil {
			return models.User{}, internal("users.profile", err)
		}
		updates["password"] = hashed
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return models.User{}, storeError("users.profile", "User", err)
		}
	}
	return s.find(ctx, user.ID)
}

// EnsureSuperAdmin creates an ADMIN account unless one already exists.
// It reports whether a new account was created.
func (s *UserService) EnsureSuperAdmin(ctx context.Context, username, email, password string) (bool, error) {
	db := s.db.WithContext(ctx)
	if found, err := exists(db, &models.User{}, "role = ?", models.RoleAdmin); err != nil {
		return false, internal("users.seed", err)
	} else if found {
		return false, nil
	}

	input := RegisterInput{Username: strings.TrimSpace(username), Email: strings.TrimSpace(email), Password: password}
	if err := validateInput(&input); err != nil {
		return false, err
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		return false, internal("users.seed", err)
	}
	admin := models.User{Username: input.Username, Email: input.Email, Password: hashed, Role: models.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		return false, storeError("users.seed", "User", err)
	}
	return true, nil
}

func (s *UserService) find(ctx context.Context, id string) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return models.User{}, storeError("users.get", "User", err)
	}
	return user, nil
}

// exists reports whether any row of model matches the condition.
func exists(db *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := db.Model(model).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// removeFiles deletes stored files after their rows are gone. Leftovers are swept by the janitor.
func removeFiles(files FileRemover, paths []string) {
	if files == nil {
		return
	}
	for _, p := range paths {
		if err := files.Remove(p); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("Failed to remove stored file")
		}
	}
}
