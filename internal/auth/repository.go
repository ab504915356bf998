package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/apperr"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository { return &Repository{db: db} }

// CreateUser inserts a new user. Returns Conflict if the email is taken.
func (r *Repository) CreateUser(ctx context.Context, u User) (User, error) {
	if err := r.db.WithContext(ctx).Create(&u).Error; err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return User{}, apperr.E(apperr.Conflict, "email already in use")
		}
		return User{}, apperr.Wrap(apperr.Internal, "create user", err)
	}
	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, apperr.E(apperr.NotFound, "user not found")
	}
	if err != nil {
		return User{}, apperr.Wrap(apperr.Internal, "get user", err)
	}
	return u, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uint) (User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, apperr.E(apperr.NotFound, "user not found")
	}
	if err != nil {
		return User{}, apperr.Wrap(apperr.Internal, "get user", err)
	}
	return u, nil
}

type ProfileUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Nickname  *string `json:"nickname"`
}

func (r *Repository) UpdateProfile(ctx context.Context, userID uint, p ProfileUpdate) (User, error) {
	updates := map[string]any{}
	if p.FirstName != nil {
		updates["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		updates["last_name"] = *p.LastName
	}
	if p.Nickname != nil {
		updates["nickname"] = *p.Nickname
	}
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return User{}, apperr.Wrap(apperr.Internal, "update profile", err)
		}
	}
	return r.GetUserByID(ctx, userID)
}

// NewToken returns a cryptographically secure random token (hex-64)
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (r *Repository) CreateSession(ctx context.Context, userID uint, ttl time.Duration) (Session, error) {
	tok, err := NewToken()
	if err != nil {
		return Session{}, apperr.Wrap(apperr.Internal, "token", err)
	}
	s := Session{Token: tok, UserID: userID, ExpiresAt: time.Now().Add(ttl).UTC()}
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return Session{}, apperr.Wrap(apperr.Internal, "create session", err)
	}
	// best effort; a stale last_login must not fail the login
	now := time.Now().UTC()
	if err := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("last_login", now).Error; err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("update last_login")
	}
	return s, nil
}

func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Delete(&Session{}, "token = ?", token).Error
}

func (r *Repository) GetUserBySession(ctx context.Context, token string) (User, error) {
	// Clean up expired while checking
	_ = r.db.WithContext(ctx).Where("expires_at < ?", time.Now().UTC()).Delete(&Session{}).Error

	var s Session
	err := r.db.WithContext(ctx).Preload("User").
		Where("token = ? AND expires_at > ?", token, time.Now().UTC()).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, apperr.E(apperr.Unauthorized, "unauthorized")
	}
	if err != nil {
		return User{}, apperr.Wrap(apperr.Internal, "get session", err)
	}
	return s.User, nil
}
