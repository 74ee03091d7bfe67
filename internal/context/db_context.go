package context

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/Graph3x/pwdantic/internal/drivers"
	"github.com/Graph3x/pwdantic/internal/logging"
	"github.com/Graph3x/pwdantic/internal/migrations"
	"github.com/Graph3x/pwdantic/internal/models"
)

type DbContext struct {
	db      *gorm.DB
	driver  drivers.DatabaseDriver
	manager *migrations.MigrationManager
	logger  logging.Logger

	mu       sync.RWMutex
	entities map[reflect.Type]*models.EntityModel
	dbSets   map[reflect.Type]*DbSet
	closed   bool

	// schemas caches gorm's parsed view of bound entity types.
	schemas sync.Map
}

type DbContextOptions struct {
	ConnectionString string
	Driver           drivers.DatabaseDriver
	// LogLevel is the gorm SQL log level: silent, error, warn or info.
	LogLevel string
	Logger   logging.Logger
	// SnapshotDir, when set, receives a snapshot of each bound table.
	SnapshotDir string
}

func NewDbContext(options DbContextOptions) (*DbContext, error) {
	if options.Driver == nil {
		return nil, fmt.Errorf("no database driver configured")
	}
	db, err := options.Driver.Connect(options.ConnectionString, options.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newDbContext(db, options), nil
}

// NewDbContextFromDB wraps an already open connection.
func NewDbContextFromDB(db *gorm.DB, options DbContextOptions) (*DbContext, error) {
	if options.Driver == nil {
		return nil, fmt.Errorf("no database driver configured")
	}
	return newDbContext(db, options), nil
}

func newDbContext(db *gorm.DB, options DbContextOptions) *DbContext {
	manager := migrations.NewMigrationManager(db, options.Driver, options.Logger)
	manager.SnapshotDir = options.SnapshotDir
	return &DbContext{
		db:       db,
		driver:   options.Driver,
		manager:  manager,
		logger:   options.Logger,
		entities: make(map[reflect.Type]*models.EntityModel),
		dbSets:   make(map[reflect.Type]*DbSet),
	}
}

// Bind extracts the column schema of entity, migrates its table to match
// and returns the set used to store entities of that type. Destructive
// migrations are refused unless force is set.
//
// Binding a type a second time migrates again with the new options.
func (ctx *DbContext) Bind(c context.Context, entity any, opts models.BindOptions, force bool) (*DbSet, error) {
	entityType := reflect.TypeOf(entity)
	if entityType != nil && entityType.Kind() == reflect.Ptr {
		entityType = entityType.Elem()
	}

	entityModel, err := models.NewEntityModel(entityType, opts)
	if err != nil {
		return nil, err
	}
	gormSchema, err := schema.Parse(reflect.New(entityModel.Type).Interface(), &ctx.schemas, models.Naming)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", entityModel.Name, err)
	}

	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.closed {
		return nil, ErrUnboundOperation
	}

	if _, err := ctx.manager.Migrate(c, entityModel.TableName, entityModel.Columns(), force); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", entityModel.Name, err)
	}

	dbSet := NewDbSet(ctx, entityModel, gormSchema)
	ctx.entities[entityModel.Type] = entityModel
	ctx.dbSets[entityModel.Type] = dbSet
	logging.Emit(c, ctx.logger, logging.LevelInfo, "bound model",
		logging.Field{Key: "model", Value: entityModel.Name},
		logging.Field{Key: "table", Value: entityModel.TableName})
	return dbSet, nil
}

func (ctx *DbContext) GetDbSet(entityType reflect.Type) *DbSet {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.dbSets[entityType]
}

func (ctx *DbContext) GetDB() *gorm.DB {
	return ctx.db
}

func (ctx *DbContext) GetDriver() drivers.DatabaseDriver {
	return ctx.driver
}

func (ctx *DbContext) Manager() *migrations.MigrationManager {
	return ctx.manager
}

func (ctx *DbContext) GetEntityModels() map[reflect.Type]*models.EntityModel {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()

	result := make(map[reflect.Type]*models.EntityModel, len(ctx.entities))
	for k, v := range ctx.entities {
		result[k] = v
	}
	return result
}

// Close releases the connection. Every DbSet of the context becomes
// unbound.
func (ctx *DbContext) Close() error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.closed {
		return nil
	}
	ctx.closed = true

	sqlDB, err := ctx.driver.GetSQLDB(ctx.db)
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// session returns a connection for c, or ErrUnboundOperation once the
// context is closed.
func (ctx *DbContext) session(c context.Context) (*gorm.DB, error) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	if ctx.closed {
		return nil, ErrUnboundOperation
	}
	return ctx.db.WithContext(c), nil
}
