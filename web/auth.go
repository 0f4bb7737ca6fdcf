package web

import (
	"net/http"
	"strings"

	"github.com/etnz/psw/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
	"go.uber.org/zap"
)

// AuthResources handles logins and the settings of the current user.
type AuthResources struct{ *Server }

// LoginRequest is the body of a login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Message is a plain confirmation.
type Message struct {
	Message string `json:"message"`
}

// Login checks the credentials and opens a session.
func (rs AuthResources) Login(c fuego.ContextWithBody[LoginRequest]) (Session, error) {
	body, err := c.Body()
	if err != nil {
		return Session{}, err
	}
	username := strings.TrimSpace(body.Username)
	if username == "" || body.Password == "" {
		return Session{}, badRequest("username and password are required")
	}
	if !rs.Limiter.Allow(username) {
		rs.Store.LogAuth(username, false, "too many attempts")
		return Session{}, fuego.HTTPError{Title: "Too many login attempts", Status: http.StatusTooManyRequests,
			Detail: "try again later"}
	}
	u, err := rs.Store.Authenticate(c.Request().Context(), username, body.Password)
	if err != nil {
		rs.Limiter.Fail(username)
		return Session{}, fail(err)
	}
	rs.Limiter.Reset(username)
	sess := rs.Sessions.Start(u)
	http.SetCookie(c.Response(), &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   rs.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// Logout closes the session.
func (rs AuthResources) Logout(c fuego.ContextNoBody) (Message, error) {
	if cookie, err := c.Request().Cookie(SessionCookie); err == nil {
		rs.Sessions.End(cookie.Value)
	}
	http.SetCookie(c.Response(), &http.Cookie{Name: SessionCookie, Path: "/", MaxAge: -1, HttpOnly: true})
	return Message{"logged out"}, nil
}

// Me returns the current session.
func (rs AuthResources) Me(c fuego.ContextNoBody) (Session, error) {
	return session(c.Request())
}

// PasswordRequest changes the password of the current user.
type PasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdatePassword changes the password of the current user.
func (rs AuthResources) UpdatePassword(c fuego.ContextWithBody[PasswordRequest]) (Message, error) {
	sess, err := session(c.Request())
	if err != nil {
		return Message{}, err
	}
	body, err := c.Body()
	if err != nil {
		return Message{}, err
	}
	if err := rs.Store.UpdatePassword(c.Request().Context(), sess.UserID, body.CurrentPassword, body.NewPassword); err != nil {
		return Message{}, fail(err)
	}
	rs.Store.LogAction(c.Request().Context(), "password_changed")
	return Message{"password updated"}, nil
}

// EmailRequest changes the email of the current user.
type EmailRequest struct {
	Email string `json:"email"`
}

// UpdateEmail changes the email of the current user.
func (rs AuthResources) UpdateEmail(c fuego.ContextWithBody[EmailRequest]) (Message, error) {
	sess, err := session(c.Request())
	if err != nil {
		return Message{}, err
	}
	body, err := c.Body()
	if err != nil {
		return Message{}, err
	}
	if err := rs.Store.UpdateEmail(c.Request().Context(), sess.UserID, body.Email); err != nil {
		return Message{}, fail(err)
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	rs.Sessions.Update(sess.UserID, func(s *Session) { s.Email = email })
	return Message{"email updated"}, nil
}

// FormatRequest changes the number format of the current user.
type FormatRequest struct {
	Format string `json:"format_preference"`
}

// UpdateFormat changes the number format of the current user.
func (rs AuthResources) UpdateFormat(c fuego.ContextWithBody[FormatRequest]) (Message, error) {
	sess, err := session(c.Request())
	if err != nil {
		return Message{}, err
	}
	body, err := c.Body()
	if err != nil {
		return Message{}, err
	}
	if err := rs.Store.UpdateFormat(c.Request().Context(), sess.UserID, body.Format); err != nil {
		return Message{}, fail(err)
	}
	rs.Sessions.Update(sess.UserID, func(s *Session) { s.Format = body.Format })
	return Message{"format updated"}, nil
}

// Routes registers the authentication routes.
func (rs AuthResources) Routes(s *fuego.Server) {
	auth := fuego.Group(s, "/auth")
	fuego.Post(auth, "/login", rs.Login, option.Summary("Log in"))
	fuego.Post(auth, "/logout", rs.Logout, option.Summary("Log out"))
	fuego.Get(auth, "/me", rs.Me, option.Summary("Current user"))

	me := fuego.Group(s, "/api/me")
	fuego.Use(me, rs.RequireAuth)
	fuego.Put(me, "/password", rs.UpdatePassword, option.Summary("Change password"))
	fuego.Put(me, "/email", rs.UpdateEmail, option.Summary("Change email"))
	fuego.Put(me, "/format", rs.UpdateFormat, option.Summary("Change number format"))
}

// UserResources lets admins manage accounts.
type UserResources struct{ *Server }

// List returns every account.
func (rs UserResources) List(c fuego.ContextNoBody) ([]store.User, error) {
	users, err := rs.Store.ListUsers(c.Request().Context())
	return users, fail(err)
}

// Create adds an account.
func (rs UserResources) Create(c fuego.ContextWithBody[store.UserRequest]) (store.User, error) {
	body, err := c.Body()
	if err != nil {
		return store.User{}, err
	}
	u, err := rs.Store.CreateUser(c.Request().Context(), body)
	if err != nil {
		return u, fail(err)
	}
	c.SetStatus(http.StatusCreated)
	return u, nil
}

// Delete removes an account and closes its sessions.
func (rs UserResources) Delete(c fuego.ContextNoBody) (Message, error) {
	sess, err := session(c.Request())
	if err != nil {
		return Message{}, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return Message{}, err
	}
	if err := rs.Store.DeleteUser(c.Request().Context(), sess.UserID, id); err != nil {
		return Message{}, fail(err)
	}
	rs.Sessions.EndUser(id)
	rs.Log.Info("user deleted", zap.Uint("user_id", sess.UserID), zap.Uint("deleted", id))
	return Message{"user deleted"}, nil
}

// Routes registers the admin routes under /users.
func (rs UserResources) Routes(s *fuego.Server) {
	users := fuego.Group(s, "/users")
	fuego.Use(users, rs.RequireAdmin)
	fuego.Get(users, "", rs.List, option.Summary("List users"))
	fuego.Post(users, "", rs.Create, option.Summary("Create a user"))
	fuego.Delete(users, "/{id}", rs.Delete, option.Summary("Delete a user"))
}
