// Package web serves the PSW JSON API with fuego.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/etnz/psw/store"
	"github.com/go-fuego/fuego"
	"go.uber.org/zap"
)

// Server holds the dependencies of the handlers.
type Server struct {
	Store    *store.Store
	Sessions *Sessions
	Limiter  *Limiter
	Log      *zap.Logger
	// PageSize is the default page size of the lists.
	PageSize int
	// SecureCookies sets the Secure flag of the session cookie.
	SecureCookies bool
}

// NewServer returns a Server with in-memory sessions.
func NewServer(st *store.Store, log *zap.Logger, sessionTimeout time.Duration, maxLoginAttempts int) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Store:    st,
		Sessions: NewSessions(sessionTimeout),
		Limiter:  NewLimiter(maxLoginAttempts),
		Log:      log,
		PageSize: store.DefaultPageSize,
	}
}

// Routes builds the fuego server with every route registered.
func (s *Server) Routes(options ...func(*fuego.Server)) *fuego.Server {
	srv := fuego.NewServer(options...)
	fuego.Use(srv, s.authenticate)

	Rulebook{}.Routes(srv)
	AuthResources{s}.Routes(srv)

	api := fuego.Group(srv, "/api")
	fuego.Use(api, s.RequireAuth)
	SearchResources{s}.Routes(api)
	MasterlistResources{s}.Routes(api)
	TradeResources{s}.Routes(api)
	DividendResources{s}.Routes(api)
	PortfolioResources{s}.Routes(api)
	BuylistResources{s}.Routes(api)
	NewCompanyResources{s}.Routes(api)
	CompanyResources{s}.Routes(api)
	ReferenceResources{s}.Routes(api)
	UserResources{s}.Routes(api)
	return srv
}

// authenticate attaches the session of the request cookie, if any, to the
// request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err == nil {
			if sess, ok := s.Sessions.Get(cookie.Value); ok {
				ctx := withSession(r.Context(), sess)
				ctx = store.WithUserID(ctx, sess.UserID)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests without a live session.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFrom(r.Context()); !ok {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests of users without the admin role.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFrom(r.Context())
		if !ok {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", "login required")
			return
		}
		if !sess.IsAdmin() {
			s.Log.Warn("admin access denied", zap.Uint("user_id", sess.UserID), zap.String("path", r.URL.Path))
			writeProblem(w, http.StatusForbidden, "Forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin is the RequireAdmin check for a single handler.
func requireAdmin(r *http.Request) (Session, error) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		return sess, fuego.UnauthorizedError{Title: "Unauthorized", Detail: "login required"}
	}
	if !sess.IsAdmin() {
		return sess, fuego.ForbiddenError{Title: "Forbidden", Detail: "admin role required"}
	}
	return sess, nil
}

// session returns the session of an authenticated request.
func session(r *http.Request) (Session, error) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		return sess, fuego.UnauthorizedError{Title: "Unauthorized", Detail: "login required"}
	}
	return sess, nil
}

type queryer interface {
	QueryParam(name string) string
}

type pather interface {
	PathParam(name string) string
}

// pathID reads a numeric path parameter.
func pathID(c pather, name string) (uint, error) {
	v, err := strconv.ParseUint(c.PathParam(name), 10, 64)
	if err != nil || v == 0 {
		return 0, badRequest("invalid " + name)
	}
	return uint(v), nil
}

// queryInt reads an optional integer query parameter.
func queryInt(c queryer, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("invalid " + name + ": " + v)
	}
	return n, nil
}

// page reads the page and limit query parameters.
func (s *Server) page(c queryer) (store.Page, error) {
	n, err := queryInt(c, "page")
	if err != nil {
		return store.Page{}, err
	}
	size, err := queryInt(c, "limit")
	if err != nil {
		return store.Page{}, err
	}
	if size == 0 {
		size = s.PageSize
	}
	return store.Page{Number: n, Size: size}, nil
}
