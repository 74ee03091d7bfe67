package context

import (
	"context"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/Graph3x/pwdantic/internal/models"
)

// DbSet stores entities of one bound type in its table.
type DbSet struct {
	context     *DbContext
	entityModel *models.EntityModel
	// selects reads every column under the name gorm scans it by.
	selects []clause.Column
}

func NewDbSet(ctx *DbContext, entityModel *models.EntityModel, gormSchema *schema.Schema) *DbSet {
	ds := &DbSet{context: ctx, entityModel: entityModel}
	for _, f := range entityModel.Fields {
		col := clause.Column{Name: f.Column.Name}
		if gormField := gormSchema.LookUpField(f.Name); gormField != nil && gormField.DBName != col.Name {
			col.Alias = gormField.DBName
		}
		ds.selects = append(ds.selects, col)
	}
	return ds
}

func (ds *DbSet) GetEntityType() reflect.Type {
	return ds.entityModel.Type
}

func (ds *DbSet) GetEntityModel() *models.EntityModel {
	return ds.entityModel
}

func (ds *DbSet) TableName() string {
	return ds.entityModel.TableName
}

func (ds *DbSet) session(c context.Context) (*gorm.DB, error) {
	if ds == nil || ds.context == nil || ds.entityModel == nil {
		return nil, ErrUnboundOperation
	}
	return ds.context.session(c)
}

// Save inserts entity when its primary key is zero and updates the stored
// row otherwise. A generated integer key is written back into entity when
// it is passed by pointer.
func (ds *DbSet) Save(c context.Context, entity any) error {
	db, err := ds.session(c)
	if err != nil {
		return err
	}
	value, err := ds.entityValue(entity)
	if err != nil {
		return err
	}

	pk := ds.entityModel.PrimaryKey
	if pk == "" {
		_, err := ds.insert(db, value, false)
		return err
	}
	pkField, _ := ds.entityModel.Field(pk)
	pkValue := value.FieldByIndex(pkField.Index)

	if pkValue.IsZero() {
		generated := pkField.Column.DataType == models.TypeInteger
		id, err := ds.insert(db, value, generated)
		if err != nil {
			return err
		}
		if generated && pkValue.CanSet() {
			setInteger(pkValue, id)
		}
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		where := clause.Eq{Column: clause.Column{Name: pk}, Value: fieldValue(pkValue)}
		var count int64
		if err := tx.Table(ds.TableName()).Where(where).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up %s: %w", ds.entityModel.Name, err)
		}
		if count == 0 {
			_, err := ds.insert(tx, value, false)
			return err
		}

		values := ds.values(value, pk)
		if len(values) == 0 {
			return nil
		}
		if err := tx.Table(ds.TableName()).Where(where).Updates(values).Error; err != nil {
			return fmt.Errorf("failed to update %s: %w", ds.entityModel.Name, err)
		}
		return nil
	})
}

// insert writes one row. With generated set the primary key column is left
// to the database and the key it assigned is returned.
func (ds *DbSet) insert(db *gorm.DB, value reflect.Value, generated bool) (int64, error) {
	omit := ""
	if generated {
		omit = ds.entityModel.PrimaryKey
	}
	var columns []clause.Column
	var args []any
	for _, f := range ds.entityModel.Fields {
		if f.Column.Name == omit {
			continue
		}
		columns = append(columns, clause.Column{Name: f.Column.Name})
		args = append(args, fieldValue(value.FieldByIndex(f.Index)))
	}

	table := clause.Table{Name: ds.TableName()}
	statement, vars := "INSERT INTO ? (?) VALUES (?)", []any{table, columns, args}
	if len(columns) == 0 {
		statement, vars = "INSERT INTO ? DEFAULT VALUES", []any{table}
	}

	if !generated {
		if err := db.Exec(statement, vars...).Error; err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", ds.entityModel.Name, err)
		}
		return 0, nil
	}

	var id int64
	if ds.context.driver.Name() == "mysql" {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(statement, vars...).Error; err != nil {
				return err
			}
			return tx.Raw("SELECT LAST_INSERT_ID()").Scan(&id).Error
		})
		if err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", ds.entityModel.Name, err)
		}
		return id, nil
	}

	vars = append(vars, clause.Column{Name: omit})
	if err := db.Raw(statement+" RETURNING ?", vars...).Scan(&id).Error; err != nil {
		return 0, fmt.Errorf("failed to insert %s: %w", ds.entityModel.Name, err)
	}
	return id, nil
}

// Find loads the rows matching conditions, a map of column name to value,
// into dest. dest is a pointer to an entity or to a slice of entities or
// entity pointers.
func (ds *DbSet) Find(c context.Context, dest any, conditions map[string]any) error {
	db, err := ds.session(c)
	if err != nil {
		return err
	}
	if err := ds.checkDest(dest); err != nil {
		return err
	}

	query := db.Table(ds.TableName()).Clauses(clause.Select{Columns: ds.selects})
	if len(conditions) > 0 {
		query = query.Where(conditions)
	}
	if err := query.Find(dest).Error; err != nil {
		return fmt.Errorf("failed to query %s: %w", ds.entityModel.Name, err)
	}
	return nil
}

// Count returns the number of rows matching conditions.
func (ds *DbSet) Count(c context.Context, conditions map[string]any) (int64, error) {
	db, err := ds.session(c)
	if err != nil {
		return 0, err
	}
	query := db.Table(ds.TableName())
	if len(conditions) > 0 {
		query = query.Where(conditions)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", ds.entityModel.Name, err)
	}
	return count, nil
}

// Delete removes the row stored for entity, identified by its primary key.
func (ds *DbSet) Delete(c context.Context, entity any) error {
	db, err := ds.session(c)
	if err != nil {
		return err
	}
	value, err := ds.entityValue(entity)
	if err != nil {
		return err
	}

	pk := ds.entityModel.PrimaryKey
	if pk == "" {
		return fmt.Errorf("%s has no primary key: %w", ds.entityModel.Name, ErrUnboundDelete)
	}
	pkField, _ := ds.entityModel.Field(pk)
	pkValue := value.FieldByIndex(pkField.Index)
	if pkValue.IsZero() {
		return ErrUnboundDelete
	}

	err = db.Exec("DELETE FROM ? WHERE ? = ?",
		clause.Table{Name: ds.TableName()}, clause.Column{Name: pk}, fieldValue(pkValue)).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", ds.entityModel.Name, err)
	}
	return nil
}

// values maps column names to the field values of entity, leaving out the
// skip column.
func (ds *DbSet) values(value reflect.Value, skip string) map[string]any {
	values := make(map[string]any, len(ds.entityModel.Fields))
	for _, f := range ds.entityModel.Fields {
		if f.Column.Name == skip {
			continue
		}
		values[f.Column.Name] = fieldValue(value.FieldByIndex(f.Index))
	}
	return values
}

func (ds *DbSet) entityValue(entity any) (reflect.Value, error) {
	value := reflect.ValueOf(entity)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return reflect.Value{}, fmt.Errorf("nil %s: %w", ds.entityModel.Name, ErrBindViolation)
		}
		value = value.Elem()
	}
	if !value.IsValid() || value.Type() != ds.entityModel.Type {
		return reflect.Value{}, fmt.Errorf("%T is not %s: %w", entity, ds.entityModel.Type, ErrBindViolation)
	}
	return value, nil
}

func (ds *DbSet) checkDest(dest any) error {
	t := reflect.TypeOf(dest)
	if t == nil || t.Kind() != reflect.Ptr {
		return fmt.Errorf("destination %T is not a pointer: %w", dest, ErrBindViolation)
	}
	t = t.Elem()
	if t.Kind() == reflect.Slice {
		t = t.Elem()
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
	}
	if t != ds.entityModel.Type {
		return fmt.Errorf("destination %T does not hold %s: %w", dest, ds.entityModel.Type, ErrBindViolation)
	}
	return nil
}

func fieldValue(v reflect.Value) any {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

func setInteger(v reflect.Value, id int64) {
	if v.Kind() == reflect.Ptr {
		ptr := reflect.New(v.Type().Elem())
		setInteger(ptr.Elem(), id)
		v.Set(ptr)
		return
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(id)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(uint64(id))
	}
}
