package tenant

import (
	"reflect"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// RegisterCallbacks installs the tenant guards on db.
// Reads, updates and deletes on a table with a tenant column must carry the
// bound tenant filter; creates are stamped with the bound tenant.
func RegisterCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("tenant:stamp_create", stampCreate); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("tenant:require_query", requireFilter); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("tenant:require_update", requireFilter); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("tenant:require_delete", requireFilter); err != nil {
		return err
	}
	return cb.Row().Before("gorm:row").Register("tenant:require_row", requireFilter)
}

func tenantField(db *gorm.DB) *schema.Field {
	if db.Statement.Schema == nil {
		return nil
	}
	return db.Statement.Schema.LookUpField(Column)
}

func boundTenant(db *gorm.DB) (uuid.UUID, bool) {
	v, ok := db.Get(settingKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// requireFilter rejects statements on tenant-scoped tables whose WHERE
// clause does not pin the bound tenant. Raw SQL has no schema and is skipped.
func requireFilter(db *gorm.DB) {
	if db.Error != nil || tenantField(db) == nil {
		return
	}
	if db.Statement.SQL.Len() > 0 {
		return
	}
	tenantID, ok := boundTenant(db)
	if !ok || !hasTenantCondition(db.Statement, tenantID) {
		_ = db.AddError(ErrTenantScopeMissing)
	}
}

func hasTenantCondition(stmt *gorm.Statement, tenantID uuid.UUID) bool {
	c, ok := stmt.Clauses["WHERE"]
	if !ok {
		return false
	}
	where, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, expr := range where.Exprs {
		eq, ok := expr.(clause.Eq)
		if !ok {
			continue
		}
		col, ok := eq.Column.(clause.Column)
		if !ok || col.Name != Column {
			continue
		}
		if id, ok := eq.Value.(uuid.UUID); ok && id == tenantID {
			return true
		}
	}
	return false
}

// stampCreate fills tenant_id on new rows from the bound tenant and rejects
// rows that already name another tenant
func stampCreate(db *gorm.DB) {
	if db.Error != nil {
		return
	}
	field := tenantField(db)
	if field == nil {
		return
	}
	tenantID, ok := boundTenant(db)
	if !ok {
		_ = db.AddError(ErrTenantIDRequired)
		return
	}

	rv := db.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			stampRow(db, field, reflect.Indirect(rv.Index(i)), tenantID)
		}
	case reflect.Struct:
		stampRow(db, field, rv, tenantID)
	}
}

func stampRow(db *gorm.DB, field *schema.Field, row reflect.Value, tenantID uuid.UUID) {
	ctx := db.Statement.Context
	current, zero := field.ValueOf(ctx, row)
	if zero {
		if err := field.Set(ctx, row, tenantID); err != nil {
			_ = db.AddError(err)
		}
		return
	}
	if id, ok := current.(uuid.UUID); ok && id != tenantID {
		_ = db.AddError(ErrTenantMismatch)
	}
}
