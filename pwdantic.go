package pwdantic

import (
	"context"
	"reflect"

	dbcontext "github.com/Graph3x/pwdantic/internal/context"
	"github.com/Graph3x/pwdantic/internal/drivers"
	"github.com/Graph3x/pwdantic/internal/logging"
	"github.com/Graph3x/pwdantic/internal/models"
)

type DbContext = dbcontext.DbContext
type DbSet = dbcontext.DbSet

type DbContextOptions = dbcontext.DbContextOptions
type BindOptions = models.BindOptions

type Logger = logging.Logger
type LogLevel = logging.Level
type LogField = logging.Field

const (
	LogLevelDebug   = logging.LevelDebug
	LogLevelInfo    = logging.LevelInfo
	LogLevelWarning = logging.LevelWarning
	LogLevelError   = logging.LevelError
)

var (
	ErrUnboundOperation = dbcontext.ErrUnboundOperation
	ErrBindViolation    = dbcontext.ErrBindViolation
	ErrUnboundDelete    = dbcontext.ErrUnboundDelete
)

// NewDbContext connects to a database. driverType is one of postgres, mysql
// or sqlite.
func NewDbContext(connectionString string, driverType string) (*DbContext, error) {
	driver, err := drivers.DriverFor(driverType)
	if err != nil {
		return nil, err
	}

	options := DbContextOptions{
		ConnectionString: connectionString,
		Driver:           driver,
	}

	return dbcontext.NewDbContext(options)
}

// NewDbContextWithOptions connects with explicit options. An empty Driver
// is looked up from driverType.
func NewDbContextWithOptions(driverType string, options DbContextOptions) (*DbContext, error) {
	if options.Driver == nil {
		driver, err := drivers.DriverFor(driverType)
		if err != nil {
			return nil, err
		}
		options.Driver = driver
	}
	return dbcontext.NewDbContext(options)
}

// Set is a DbSet typed to its model.
type Set[T any] struct {
	*DbSet
}

// Bind binds T to ctx, migrating its table, and returns the typed set.
func Bind[T any](c context.Context, ctx *DbContext, opts BindOptions, force bool) (*Set[T], error) {
	var zero T
	dbSet, err := ctx.Bind(c, zero, opts, force)
	if err != nil {
		return nil, err
	}
	return &Set[T]{dbSet}, nil
}

func (s *Set[T]) Save(c context.Context, entity *T) error {
	return s.dbSet().Save(c, entity)
}

func (s *Set[T]) Delete(c context.Context, entity *T) error {
	return s.dbSet().Delete(c, entity)
}

// Find returns every stored T matching conditions.
func (s *Set[T]) Find(c context.Context, conditions map[string]any) ([]T, error) {
	var result []T
	if err := s.dbSet().Find(c, &result, conditions); err != nil {
		return nil, err
	}
	return result, nil
}

// First returns the first stored T matching conditions, or nil.
func (s *Set[T]) First(c context.Context, conditions map[string]any) (*T, error) {
	result, err := s.Find(c, conditions)
	if err != nil || len(result) == 0 {
		return nil, err
	}
	return &result[0], nil
}

func (s *Set[T]) dbSet() *DbSet {
	if s == nil {
		return nil
	}
	return s.DbSet
}

func GetEntityType[T any]() reflect.Type {
	var zero T
	return reflect.TypeOf(zero)
}
