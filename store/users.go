package store

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/etnz/psw"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown user, a
// disabled account or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// DefaultPasswordMinLength is the minimum password length when none is configured.
const DefaultPasswordMinLength = 8

// UserRequest describes an account to create.
type UserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	RoleID   int    `json:"role_id"`
}

func (s *Store) checkPassword(errs psw.ValidationError, field, password string) {
	min := s.PasswordMinLength
	if min <= 0 {
		min = DefaultPasswordMinLength
	}
	if len(password) < min {
		errs.Add(field, "password must be at least %d characters", min)
	}
}

// CreateUser creates an account. Username and email must be unique.
func (s *Store) CreateUser(ctx context.Context, r UserRequest) (User, error) {
	u := User{
		Username: strings.TrimSpace(r.Username),
		Email:    strings.ToLower(strings.TrimSpace(r.Email)),
		FullName: strings.TrimSpace(r.FullName),
		RoleID:   r.RoleID,
		Format:   psw.DefaultFormat,
		IsActive: true,
	}
	if u.RoleID == 0 {
		u.RoleID = RoleUser
	}
	errs := psw.ValidationError{}
	if len(u.Username) < 3 {
		errs.Add("username", "username must be at least 3 characters")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		errs.Add("email", "invalid email address")
	}
	if u.RoleID != RoleAdmin && u.RoleID != RoleUser {
		errs.Add("role_id", "unknown role %d", u.RoleID)
	}
	s.checkPassword(errs, "password", r.Password)
	if err := errs.Err(); err != nil {
		return u, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return u, fmt.Errorf("cannot hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&User{}).Where("username = ? OR email = ?", u.Username, u.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("username or email already taken: %w", ErrDuplicate)
		}
		return tx.Create(&u).Error
	})
	if err != nil {
		return u, err
	}
	s.audit(ctx, "insert", "users", u.ID)
	return u, nil
}

// Authenticate checks a username and password and records the login.
func (s *Store) Authenticate(ctx context.Context, username, password string) (User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).Take(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		s.LogAuth(username, false, "unknown user")
		return u, ErrInvalidCredentials
	case err != nil:
		return u, err
	case !u.IsActive:
		s.LogAuth(username, false, "inactive account")
		return u, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.LogAuth(username, false, "wrong password")
		return u, ErrInvalidCredentials
	}
	now := time.Now()
	u.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(&u).Update("last_login", now).Error; err != nil {
		return u, err
	}
	s.LogAuth(username, true, "")
	return u, nil
}

// GetUser returns an account.
func (s *Store) GetUser(ctx context.Context, id uint) (User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("user_id = ?", id).Take(&u).Error
	return u, notFound(err)
}

// ListUsers returns every account by username.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	list := []User{}
	err := s.db.WithContext(ctx).Order("username").Find(&list).Error
	return list, err
}

// UpdatePassword changes the password of id after checking the current one.
func (s *Store) UpdatePassword(ctx context.Context, id uint, current, next string) error {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	errs := psw.ValidationError{}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		errs.Add("current_password", "current password is incorrect")
	}
	s.checkPassword(errs, "new_password", next)
	if err := errs.Err(); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("cannot hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&u).Update("password_hash", string(hash)).Error; err != nil {
		return err
	}
	s.audit(ctx, "update_password", "users", id)
	return nil
}

// UpdateEmail changes the email of id. The email must not belong to another user.
func (s *Store) UpdateEmail(ctx context.Context, id uint, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return psw.ValidationError{"email": "invalid email address"}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&User{}).Where("email = ? AND user_id <> ?", email, id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("email already taken: %w", ErrDuplicate)
		}
		res := tx.Model(&User{}).Where("user_id = ?", id).Update("email", email)
		if res.Error == nil && res.RowsAffected == 0 {
			return ErrNotFound
		}
		return res.Error
	})
	if err != nil {
		return err
	}
	s.audit(ctx, "update_email", "users", id)
	return nil
}

// UpdateFormat changes the number and date format preference of id.
func (s *Store) UpdateFormat(ctx context.Context, id uint, format string) error {
	if !psw.ValidFormat(format) {
		return psw.ValidationError{"format_preference": fmt.Sprintf("unknown format %q", format)}
	}
	res := s.db.WithContext(ctx).Model(&User{}).Where("user_id = ?", id).Update("format_preference", format)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.audit(ctx, "update_format", "users", id)
	return nil
}

// DeleteUser removes the account id on behalf of actor. Users cannot delete
// their own account.
func (s *Store) DeleteUser(ctx context.Context, actor, id uint) error {
	if actor == id {
		return fmt.Errorf("cannot delete your own account: %w", ErrForbidden)
	}
	res := s.db.WithContext(ctx).Delete(&User{}, "user_id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.audit(ctx, "delete", "users", id)
	return nil
}
