// Package tenant provides multi-tenant database scoping for GORM.
//
// Every repository obtains its *gorm.DB from a Scope, and a Scope can only be
// built for an explicit, non-nil tenant ID. The callbacks registered by
// RegisterCallbacks reject any statement on a tenant-scoped table that lacks
// the tenant filter, so a forgotten scope fails loudly instead of leaking rows.
//
// Usage:
//
//	store := tenant.NewStore(db, tenant.WithLockTimeout(5*time.Second))
//	err := store.Transaction(ctx, tenantID, func(ctx context.Context, s *tenant.Scope) error {
//		return s.Locked().WithContext(ctx).First(&order, "id = ?", id).Error
//	})
package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/salesflow/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Column is the tenant column every tenant-scoped table carries
const Column = "tenant_id"

// settingKey carries the bound tenant through statement settings
const settingKey = "salesflow:tenant_id"

// SQLSTATEs after which the whole transaction was rolled back and may be retried
const (
	pgLockNotAvailable     = "55P03" // lock_timeout expired
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
)

var (
	// ErrTenantIDRequired is returned when a row is created without a bound tenant
	ErrTenantIDRequired = errors.New("tenant_id is required but no tenant is bound")
	// ErrTenantScopeMissing is returned when a statement on a tenant-scoped
	// table was built without going through a Scope
	ErrTenantScopeMissing = errors.New("statement on tenant-scoped table has no tenant filter")
	// ErrTenantMismatch is returned when a row carries a tenant other than the bound one
	ErrTenantMismatch = errors.New("row tenant_id does not match the bound tenant")
)

// Store hands out tenant-bound scopes over one database handle
type Store struct {
	db          *gorm.DB
	lockTimeout time.Duration
	txTimeout   time.Duration
}

// Option configures a Store
type Option func(*Store)

// WithLockTimeout bounds how long a statement waits for a row lock
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// WithTransactionTimeout bounds the total duration of a transaction
func WithTransactionTimeout(d time.Duration) Option {
	return func(s *Store) { s.txTimeout = d }
}

// NewStore creates a new Store
func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying GORM DB without tenant scoping.
// Only tables without a tenant column may be reached through it.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Scope returns a non-transactional scope bound to tenantID
func (s *Store) Scope(ctx context.Context, tenantID uuid.UUID) (*Scope, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrTenantRequired
	}
	return &Scope{db: s.db.WithContext(ctx), tenantID: tenantID}, nil
}

// Transaction runs fn inside one database transaction bound to tenantID.
// Lock waits beyond the configured timeout surface as LOCK_TIMEOUT.
func (s *Store) Transaction(ctx context.Context, tenantID uuid.UUID, fn func(ctx context.Context, scope *Scope) error) error {
	if tenantID == uuid.Nil {
		return shared.ErrTenantRequired
	}
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(ctx, &Scope{db: tx, tenantID: tenantID})
	})
	return TranslateError(ctx, err)
}

// TranslateError maps lock waits that gave up, deadlock victims and
// serialization failures to LOCK_TIMEOUT and leaves every other error unchanged
func TranslateError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgDeadlockDetected, pgSerializationFailure:
			return shared.WrapDomainError(shared.CodeLockTimeout, shared.ErrLockTimeout.Message, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		return shared.WrapDomainError(shared.CodeLockTimeout, shared.ErrLockTimeout.Message, err)
	}
	return err
}

// Scope is a database handle bound to exactly one tenant
type Scope struct {
	db       *gorm.DB
	tenantID uuid.UUID
}

// TenantID returns the bound tenant
func (s *Scope) TenantID() uuid.UUID {
	return s.tenantID
}

// DB returns a fresh statement filtered to the bound tenant.
// Rows created through it are stamped with the bound tenant.
func (s *Scope) DB() *gorm.DB {
	return s.db.Session(&gorm.Session{NewDB: true}).
		Set(settingKey, s.tenantID).
		Clauses(Filter(s.tenantID))
}

// Locked is DB with SELECT ... FOR UPDATE; the lock is held until the
// enclosing transaction ends
func (s *Scope) Locked() *gorm.DB {
	return s.DB().Clauses(clause.Locking{Strength: "UPDATE"})
}

// Unscoped returns a fresh statement for tables that carry no tenant column.
// The callbacks still reject it on tenant-scoped tables.
func (s *Scope) Unscoped() *gorm.DB {
	return s.db.Session(&gorm.Session{NewDB: true})
}

// Filter is the WHERE condition restricting the current table to tenantID
func Filter(tenantID uuid.UUID) clause.Where {
	return clause.Where{Exprs: []clause.Expression{
		clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: Column},
			Value:  tenantID,
		},
	}}
}
