// Package store persists the portfolio, watchlists, reference data and users
// in a SQL database through gorm.
//
// MySQL is the production database and SQLite serves development and tests.
// Table names are the ones of the legacy PSW schemas, merged into a single
// database.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/etnz/psw/date"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a record with the same key already exists.
	ErrDuplicate = errors.New("record already exists")
	// ErrForbidden is returned when a user acts on a record they do not own.
	ErrForbidden = errors.New("operation not permitted")
)

// Store gives access to every table.
type Store struct {
	db  *gorm.DB
	log *zap.Logger

	// Today returns the current date, replaced in tests.
	Today func() date.Date
	// PasswordMinLength is the minimum length of a new password.
	PasswordMinLength int
}

// Open connects to the database. driver is "mysql" or "sqlite".
func Open(driver, dsn string, log *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("cannot open %s database: %w", driver, err)
	}
	if driver != "mysql" {
		// SQLite has a single writer, and an in-memory database lives in one connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db, log), nil
}

// New wraps an opened gorm database.
func New(db *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log, Today: date.Today, PasswordMinLength: DefaultPasswordMinLength}
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB { return s.db }

// Close releases the database connections.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or updates every table and seeds the reference data.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if err := s.seed(ctx); err != nil {
		return fmt.Errorf("cannot seed reference data: %w", err)
	}
	s.log.Info("database migrated", zap.Int("tables", len(models)))
	return nil
}

// notFound turns gorm's missing record error into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Page selects a page of a listing. Pages are numbered from 1.
type Page struct {
	Number int
	Size   int
}

// DefaultPageSize is used when a Page has no size.
const DefaultPageSize = 50

func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	return p
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	p = p.normalize()
	return q.Limit(p.Size).Offset((p.Number - 1) * p.Size)
}

// Pagination describes the page returned by a listing.
type Pagination struct {
	CurrentPage  int   `json:"current_page"`
	PerPage      int   `json:"per_page"`
	TotalPages   int   `json:"total_pages"`
	TotalRecords int64 `json:"total_records"`
	HasNext      bool  `json:"has_next"`
	HasPrev      bool  `json:"has_prev"`
}

func newPagination(p Page, total int64) Pagination {
	p = p.normalize()
	pages := int(math.Ceil(float64(total) / float64(p.Size)))
	return Pagination{
		CurrentPage:  p.Number,
		PerPage:      p.Size,
		TotalPages:   pages,
		TotalRecords: total,
		HasNext:      p.Number < pages,
		HasPrev:      p.Number > 1,
	}
}

// Sort orders a listing by a column name.
type Sort struct {
	By   string
	Desc bool
}

// ParseSort reads a column name and an "ASC"/"DESC" order.
func ParseSort(by, order string) Sort {
	return Sort{By: by, Desc: strings.EqualFold(order, "desc")}
}

// orderBy returns the ORDER BY clause for s. Only columns of the allowed map
// are accepted, anything else falls back on def.
func orderBy(s Sort, allowed map[string]string, def Sort) string {
	col, ok := allowed[s.By]
	if !ok {
		s = def
		col = allowed[def.By]
	}
	if s.Desc {
		return col + " DESC"
	}
	return col + " ASC"
}

// likeEscaper escapes the LIKE wildcards with '!', which MySQL and SQLite
// read the same way in an ESCAPE clause (a backslash does not).
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// like returns the pattern of a case-insensitive substring search, to
// compare with LOWER(column) LIKE ? ESCAPE '!'.
func like(s string) string { return "%" + likePrefix(s) }

// likePrefix is like for a prefix search.
func likePrefix(s string) string {
	return likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}
