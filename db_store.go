package rolewatch

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// DBStore is a Store backed by Postgres through dbkit.
//
// Error Handling:
// Every query is wrapped with dbkit's chainable error helpers, so failures
// carry the operation name and keep the original error type for
// dbkit.IsNotFound / dbkit.IsDuplicate classification.
//
// Principals returned by DBStore are fresh instances with firing enabled,
// unless a PrincipalResolver maps them to the caller's live instances. Only
// then do their firing gates apply to propagated events.
type DBStore struct {
	db               dbkit.IDB
	resolvePrincipal PrincipalResolver
}

// PrincipalResolver returns the live instance of a stored principal, or nil
// when the caller does not track it.
type PrincipalResolver func(ctx context.Context, principalType, id string) Holder

// DBStoreOption configures a DBStore.
type DBStoreOption func(*DBStore)

// WithPrincipalResolver sets the function used to turn stored principals back
// into the caller's instances.
//
// Example:
//
//	store := rolewatch.NewDBStore(db, rolewatch.WithPrincipalResolver(
//	    func(ctx context.Context, typ, id string) rolewatch.Holder {
//	        return sessions.Principal(id)
//	    },
//	))
func WithPrincipalResolver(fn PrincipalResolver) DBStoreOption {
	return func(s *DBStore) {
		s.resolvePrincipal = fn
	}
}

// NewDBStore creates a new DBStore.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	store := rolewatch.NewDBStore(db)
//	_, _ = store.Migrate(ctx)
func NewDBStore(db dbkit.IDB, opts ...DBStoreOption) *DBStore {
	s := &DBStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// bind returns a store with the same options running on db.
func (s *DBStore) bind(db dbkit.IDB) *DBStore {
	return &DBStore{db: db, resolvePrincipal: s.resolvePrincipal}
}

// DB returns the underlying database handle.
func (s *DBStore) DB() dbkit.IDB {
	return s.db
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// SavePrincipal inserts or updates p, then runs its save hooks.
// Hook errors (such as a failed deferred assignment) are returned unchanged.
func (s *DBStore) SavePrincipal(ctx context.Context, p *Principal) error {
	row := &PrincipalRow{ID: p.Key(), Type: p.Type}
	if err := s.save(ctx, row, row.ID == "", func(id string) { row.ID = id }, "SavePrincipal"); err != nil {
		return err
	}
	return p.Persisted(ctx, row.ID)
}

// SaveRole inserts or updates r, then runs its save hooks.
func (s *DBStore) SaveRole(ctx context.Context, r *Role) error {
	row := &RoleRow{ID: r.Key(), Name: r.Name, Guard: r.Guard}
	if err := s.save(ctx, row, row.ID == "", func(id string) { row.ID = id }, "SaveRole"); err != nil {
		return err
	}
	return r.Persisted(ctx, row.ID)
}

// SavePermission inserts or updates p, then runs its save hooks.
func (s *DBStore) SavePermission(ctx context.Context, p *Permission) error {
	row := &PermissionRow{ID: p.Key(), Name: p.Name, Guard: p.Guard}
	if err := s.save(ctx, row, row.ID == "", func(id string) { row.ID = id }, "SavePermission"); err != nil {
		return err
	}
	return p.Persisted(ctx, row.ID)
}

func (s *DBStore) save(ctx context.Context, model any, insert bool, setID func(string), op string) error {
	if insert {
		setID(uuid.NewString())
		result, err := s.db.NewInsert().Model(model).Exec(ctx)
		if err = dbkit.WithErr(result, err, op).Err(); err != nil {
			return NewError(ErrDatabaseError, "failed to insert holder").WithCause(err)
		}
		return nil
	}

	result, err := s.db.NewUpdate().Model(model).
		ExcludeColumn("created_at").
		Set("updated_at = current_timestamp").
		WherePK().
		Exec(ctx)
	if err = dbkit.WithErr(result, err, op).Err(); err != nil {
		return NewError(ErrDatabaseError, "failed to update holder").WithCause(err)
	}
	return nil
}

// ============================================================================
// ASSIGNMENTS
// ============================================================================

// Attach implements Store. Existing assignments are left untouched.
func (s *DBStore) Attach(ctx context.Context, h Holder, kind Kind, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var model any
	switch {
	case kind == KindRole && h.HolderType() == HolderPermission:
		rows := make([]PermissionAssignment, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, PermissionAssignment{HolderType: string(HolderRole), HolderID: id, PermissionID: h.Key()})
		}
		model = &rows
	case kind == KindRole:
		rows := make([]RoleAssignment, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, RoleAssignment{HolderType: string(h.HolderType()), HolderID: h.Key(), RoleID: id})
		}
		model = &rows
	default:
		rows := make([]PermissionAssignment, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, PermissionAssignment{HolderType: string(h.HolderType()), HolderID: h.Key(), PermissionID: id})
		}
		model = &rows
	}

	result, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "Attach").Err(); err != nil {
		return NewError(ErrDatabaseError, "failed to attach "+kind.String()+"s").
			WithHolder(h).
			WithKind(kind).
			WithCause(err)
	}
	return nil
}

// Detach implements Store.
func (s *DBStore) Detach(ctx context.Context, h Holder, kind Kind, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	q := s.db.NewDelete()
	switch {
	case kind == KindRole && h.HolderType() == HolderPermission:
		q = q.Table("holder_permissions").
			Where("holder_type = ? AND permission_id = ?", HolderRole, h.Key()).
			Where("holder_id IN (?)", bun.In(ids))
	case kind == KindRole:
		q = q.Table("holder_roles").
			Where("holder_type = ? AND holder_id = ?", h.HolderType(), h.Key()).
			Where("role_id IN (?)", bun.In(ids))
	default:
		q = q.Table("holder_permissions").
			Where("holder_type = ? AND holder_id = ?", h.HolderType(), h.Key()).
			Where("permission_id IN (?)", bun.In(ids))
	}

	result, err := q.Exec(ctx)
	if err = dbkit.WithErr(result, err, "Detach").Err(); err != nil {
		return NewError(ErrDatabaseError, "failed to detach "+kind.String()+"s").
			WithHolder(h).
			WithKind(kind).
			WithCause(err)
	}
	return nil
}

// DetachAll implements Store.
func (s *DBStore) DetachAll(ctx context.Context, h Holder, kind Kind) error {
	q := s.db.NewDelete()
	switch {
	case kind == KindRole && h.HolderType() == HolderPermission:
		q = q.Table("holder_permissions").Where("holder_type = ? AND permission_id = ?", HolderRole, h.Key())
	case kind == KindRole:
		q = q.Table("holder_roles").Where("holder_type = ? AND holder_id = ?", h.HolderType(), h.Key())
	default:
		q = q.Table("holder_permissions").Where("holder_type = ? AND holder_id = ?", h.HolderType(), h.Key())
	}

	result, err := q.Exec(ctx)
	if err = dbkit.WithErr(result, err, "DetachAll").Err(); err != nil {
		return NewError(ErrDatabaseError, "failed to detach all "+kind.String()+"s").
			WithHolder(h).
			WithKind(kind).
			WithCause(err)
	}
	return nil
}

// ============================================================================
// DATA RETRIEVAL
// ============================================================================

// Current implements Store. Items come back in assignment order.
func (s *DBStore) Current(ctx context.Context, h Holder, kind Kind) ([]Item, error) {
	if kind == KindRole {
		return s.currentRoles(ctx, h)
	}

	var rows []PermissionRow
	err := dbkit.WithErr1(s.db.NewSelect().Model(&rows).
		Join("JOIN holder_permissions AS hp ON hp.permission_id = pm.id").
		Where("hp.holder_type = ? AND hp.holder_id = ?", h.HolderType(), h.Key()).
		OrderExpr("hp.created_at ASC, pm.name ASC").
		Scan(ctx), "CurrentPermissions").Err()
	if err != nil {
		return nil, NewError(ErrDatabaseError, "failed to load permissions").WithHolder(h).WithCause(err)
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, permissionFromRow(row))
	}
	return items, nil
}

func (s *DBStore) currentRoles(ctx context.Context, h Holder) ([]Item, error) {
	var rows []RoleRow
	q := s.db.NewSelect().Model(&rows)
	if h.HolderType() == HolderPermission {
		q = q.Join("JOIN holder_permissions AS hp ON hp.holder_id = CAST(r.id AS TEXT)").
			Where("hp.holder_type = ? AND hp.permission_id = ?", HolderRole, h.Key()).
			OrderExpr("hp.created_at ASC, r.name ASC")
	} else {
		q = q.Join("JOIN holder_roles AS hr ON hr.role_id = r.id").
			Where("hr.holder_type = ? AND hr.holder_id = ?", h.HolderType(), h.Key()).
			OrderExpr("hr.created_at ASC, r.name ASC")
	}

	err := dbkit.WithErr1(q.Scan(ctx), "CurrentRoles").Err()
	if err != nil {
		return nil, NewError(ErrDatabaseError, "failed to load roles").WithHolder(h).WithCause(err)
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, roleFromRow(row))
	}
	return items, nil
}

// Principals implements Store.
func (s *DBStore) Principals(ctx context.Context, role Holder) ([]Holder, error) {
	var rows []PrincipalRow
	err := dbkit.WithErr1(s.db.NewSelect().Model(&rows).
		Join("JOIN holder_roles AS hr ON hr.holder_id = CAST(p.id AS TEXT)").
		Where("hr.holder_type = ? AND hr.role_id = ?", HolderPrincipal, role.Key()).
		OrderExpr("hr.created_at ASC").
		Scan(ctx), "GetRolePrincipals").Err()
	if err != nil {
		return nil, NewError(ErrDatabaseError, "failed to load role holders").WithHolder(role).WithCause(err)
	}

	holders := make([]Holder, 0, len(rows))
	for _, row := range rows {
		if s.resolvePrincipal != nil {
			if h := s.resolvePrincipal(ctx, row.Type, row.ID); h != nil {
				holders = append(holders, h)
				continue
			}
		}
		holders = append(holders, principalFromRow(row))
	}
	return holders, nil
}

// CountAssignments returns how many kind assignments h has.
func (s *DBStore) CountAssignments(ctx context.Context, h Holder, kind Kind) (int, error) {
	if kind == KindRole {
		return dbkit.Count[RoleAssignment](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("holder_type = ? AND holder_id = ?", h.HolderType(), h.Key())
		})
	}
	return dbkit.Count[PermissionAssignment](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("holder_type = ? AND holder_id = ?", h.HolderType(), h.Key())
	})
}

// HasRole checks if h holds role, without loading every role.
func (s *DBStore) HasRole(ctx context.Context, h Holder, role *Role) bool {
	exists, err := dbkit.Exists[RoleAssignment](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("holder_type = ? AND holder_id = ? AND role_id = ?", h.HolderType(), h.Key(), role.Key())
	})
	if err != nil {
		return false
	}
	return exists
}
