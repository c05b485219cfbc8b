/*
Package sqlite provides a SQLite-backed implementation of leave.Store.

PURPOSE:
  Persists the roster, the request records and the balance ledger in one
  database so a final approval can update all three in one transaction.

INTERFACES IMPLEMENTED:
  generic.Store:     Balance ledger (append-only)
  leave.Store:       Employees, requests, ledger and WithTx

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on transactions table
  - No DELETE statements on transactions table
  - Corrections via adjustment/reversal transactions only

KEY TABLES:
  employees:     Roster with balances (CHECK vacation_days >= 0)
  requests:      Request records (CHECK end_date >= start_date)
  transactions:  Immutable ledger of balance movements

INDEXES:
  - idx_requests_employee: history reads (quota, union day)
  - idx_requests_status:   approval queues
  - idx_transactions_entity_resource_date: balance calculation

CONCURRENCY:
  A single connection plus sync.RWMutex. Writers are already serialized
  per employee by the service's locker; the mutex keeps WithTx and
  plain reads from interleaving on the one connection.

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - leave/store.go: Interface definitions
  - leave/memstore: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/santamargarita/leave-engine/generic"
	"github.com/santamargarita/leave-engine/leave"
)

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements leave.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ leave.Store = (*Store)(nil)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: ":memory:" databases are per-connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		role TEXT NOT NULL,
		area TEXT NOT NULL,
		position TEXT,
		shift_id TEXT,
		hire_date TEXT NOT NULL,
		birth_date TEXT,
		vacation_days INTEGER NOT NULL DEFAULT 0 CHECK (vacation_days >= 0),
		union_days INTEGER NOT NULL DEFAULT 0 CHECK (union_days >= 0),
		authorized_areas_json TEXT,
		start_time INTEGER,
		end_time INTEGER,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_area
		ON employees(area);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		category TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		start_time INTEGER,
		end_time INTEGER,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		reason TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		manager_id TEXT,
		manager_note TEXT,
		manager_decided_at TEXT,
		hr_id TEXT,
		hr_note TEXT,
		hr_decided_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_date >= start_date)
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON requests(employee_id, start_date);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON requests(status, created_at);

	-- Transactions (append-only ledger)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		effective_at TEXT NOT NULL,
		delta_value TEXT NOT NULL,
		delta_unit TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		reference_id TEXT,
		reason TEXT,
		idempotency_key TEXT UNIQUE,
		metadata_json TEXT,
		created_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_entity_resource_date
		ON transactions(entity_id, resource_type, effective_at);
	CREATE INDEX IF NOT EXISTS idx_transactions_reference
		ON transactions(reference_id) WHERE reference_id IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTION STORE (generic.Store interface)
// =============================================================================

// Append adds a transaction to the ledger.
func (s *Store) Append(ctx context.Context, tx generic.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return appendTx(ctx, s.db, tx)
}

func appendTx(ctx context.Context, db querier, tx generic.Transaction) error {
	metadataJSON, _ := json.Marshal(tx.Metadata)
	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = generic.DateOf(time.Now().UTC())
	}

	query := `
		INSERT INTO transactions
		(id, entity_id, resource_type, effective_at, delta_value, delta_unit,
		 tx_type, reference_id, reason, idempotency_key, metadata_json, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		tx.ID,
		tx.EntityID,
		tx.ResourceType.ResourceID(), // Store as string
		tx.EffectiveAt.String(),
		tx.Delta.Value.String(),
		tx.Delta.Unit,
		tx.Type,
		nullString(tx.ReferenceID),
		tx.Reason,
		nullString(tx.IdempotencyKey),
		string(metadataJSON),
		nullString(tx.CreatedBy),
		createdAt.String(),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// AppendBatch adds multiple transactions atomically.
func (s *Store) AppendBatch(ctx context.Context, txs []generic.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkBatchKeys(txs); err != nil {
		return err
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, tx := range txs {
		if err := appendTx(ctx, sqlTx, tx); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// checkBatchKeys rejects duplicate idempotency keys within one batch.
func checkBatchKeys(txs []generic.Transaction) error {
	idempotencyKeys := make(map[string]bool)
	for _, tx := range txs {
		if tx.IdempotencyKey != "" {
			if idempotencyKeys[tx.IdempotencyKey] {
				return generic.ErrDuplicateIdempotencyKey
			}
			idempotencyKeys[tx.IdempotencyKey] = true
		}
	}
	return nil
}

const transactionColumns = `
	SELECT id, entity_id, resource_type, effective_at, delta_value, delta_unit,
	       tx_type, reference_id, reason, idempotency_key, metadata_json, created_by, created_at
	FROM transactions`

// Load returns all transactions for an entity+resource.
func (s *Store) Load(ctx context.Context, entityID generic.EntityID, resource generic.ResourceType) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadTx(ctx, s.db, entityID, resource)
}

func loadTx(ctx context.Context, db querier, entityID generic.EntityID, resource generic.ResourceType) ([]generic.Transaction, error) {
	query := transactionColumns + `
		WHERE entity_id = ? AND resource_type = ?
		ORDER BY effective_at ASC, rowid ASC
	`
	return queryTransactions(ctx, db, query, entityID, resource.ResourceID())
}

// LoadRange returns transactions with effective date in [from, to].
func (s *Store) LoadRange(ctx context.Context, entityID generic.EntityID, resource generic.ResourceType, from, to generic.TimePoint) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadRangeTx(ctx, s.db, entityID, resource, from, to)
}

func loadRangeTx(ctx context.Context, db querier, entityID generic.EntityID, resource generic.ResourceType, from, to generic.TimePoint) ([]generic.Transaction, error) {
	query := transactionColumns + `
		WHERE entity_id = ? AND resource_type = ?
		  AND effective_at >= ? AND effective_at <= ?
		ORDER BY effective_at ASC, rowid ASC
	`
	return queryTransactions(ctx, db, query, entityID, resource.ResourceID(), from.String(), to.String())
}

// LoadByEntity returns every ledger entry of an entity.
func (s *Store) LoadByEntity(ctx context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadByEntityTx(ctx, s.db, entityID)
}

func loadByEntityTx(ctx context.Context, db querier, entityID generic.EntityID) ([]generic.Transaction, error) {
	query := transactionColumns + `
		WHERE entity_id = ?
		ORDER BY effective_at ASC, rowid ASC
	`
	return queryTransactions(ctx, db, query, entityID)
}

// Exists checks if an idempotency key exists.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return existsTx(ctx, s.db, idempotencyKey)
}

func existsTx(ctx context.Context, db querier, idempotencyKey string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)

	return count > 0, err
}

func queryTransactions(ctx context.Context, db querier, query string, args ...any) ([]generic.Transaction, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []generic.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (generic.Transaction, error) {
	var (
		tx             generic.Transaction
		effectiveAt    string
		resourceTypeID string // Scan as string, convert to interface
		deltaValue     string
		deltaUnit      string
		referenceID    sql.NullString
		reason         sql.NullString
		idempotencyKey sql.NullString
		metadataJSON   sql.NullString
		createdBy      sql.NullString
		createdAt      string
	)

	err := rows.Scan(
		&tx.ID, &tx.EntityID, &resourceTypeID,
		&effectiveAt, &deltaValue, &deltaUnit, &tx.Type,
		&referenceID, &reason, &idempotencyKey, &metadataJSON, &createdBy, &createdAt,
	)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	// Convert string to ResourceType via registry
	tx.ResourceType = generic.ResolveResource(resourceTypeID)
	tx.EffectiveAt = parseDate(effectiveAt)
	tx.CreatedAt = parseDate(createdAt)
	tx.Delta = parseAmount(deltaValue, deltaUnit)
	tx.ReferenceID = referenceID.String
	tx.Reason = reason.String
	tx.IdempotencyKey = idempotencyKey.String
	tx.CreatedBy = createdBy.String

	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &tx.Metadata); err != nil {
			return tx, fmt.Errorf("failed to decode metadata of %s: %w", tx.ID, err)
		}
	}

	return tx, nil
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx executes a function within a database transaction. The Store
// handed to fn reads and writes through the same transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Append(ctx context.Context, tx generic.Transaction) error {
	return appendTx(ctx, ts.tx, tx)
}

func (ts *txStore) AppendBatch(ctx context.Context, txs []generic.Transaction) error {
	if err := checkBatchKeys(txs); err != nil {
		return err
	}
	for _, tx := range txs {
		if err := appendTx(ctx, ts.tx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (ts *txStore) Load(ctx context.Context, entityID generic.EntityID, resource generic.ResourceType) ([]generic.Transaction, error) {
	return loadTx(ctx, ts.tx, entityID, resource)
}

func (ts *txStore) LoadRange(ctx context.Context, entityID generic.EntityID, resource generic.ResourceType, from, to generic.TimePoint) ([]generic.Transaction, error) {
	return loadRangeTx(ctx, ts.tx, entityID, resource, from, to)
}

func (ts *txStore) LoadByEntity(ctx context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	return loadByEntityTx(ctx, ts.tx, entityID)
}

func (ts *txStore) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	return existsTx(ctx, ts.tx, idempotencyKey)
}

func (ts *txStore) GetEmployee(ctx context.Context, id generic.EntityID) (leave.Employee, error) {
	return getEmployee(ctx, ts.tx, id)
}

func (ts *txStore) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	return listEmployees(ctx, ts.tx)
}

func (ts *txStore) CreateEmployee(ctx context.Context, emp leave.Employee) error {
	return createEmployee(ctx, ts.tx, emp)
}

func (ts *txStore) UpdateEmployee(ctx context.Context, emp leave.Employee) error {
	return updateEmployee(ctx, ts.tx, emp)
}

func (ts *txStore) GetRequest(ctx context.Context, id leave.RequestID) (leave.Request, error) {
	return getRequest(ctx, ts.tx, id)
}

func (ts *txStore) ListRequestsByEmployee(ctx context.Context, employeeID generic.EntityID) ([]leave.Request, error) {
	return listRequestsByEmployee(ctx, ts.tx, employeeID)
}

func (ts *txStore) ListRequestsByStatus(ctx context.Context, statuses ...leave.Status) ([]leave.Request, error) {
	return listRequestsByStatus(ctx, ts.tx, statuses)
}

func (ts *txStore) CreateRequest(ctx context.Context, req leave.Request) error {
	return createRequest(ctx, ts.tx, req)
}

func (ts *txStore) UpdateRequest(ctx context.Context, req leave.Request) error {
	return updateRequest(ctx, ts.tx, req)
}

// WithTx nests into the enclosing transaction.
func (ts *txStore) WithTx(_ context.Context, fn func(store leave.Store) error) error {
	return fn(ts)
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

func (s *Store) GetEmployee(ctx context.Context, id generic.EntityID) (leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(ctx, s.db, id)
}

func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEmployees(ctx, s.db)
}

func (s *Store) CreateEmployee(ctx context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createEmployee(ctx, s.db, emp)
}

func (s *Store) UpdateEmployee(ctx context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateEmployee(ctx, s.db, emp)
}

const employeeColumns = `
	SELECT id, name, email, role, area, position, shift_id, hire_date, birth_date,
	       vacation_days, union_days, authorized_areas_json, start_time, end_time,
	       created_at, updated_at
	FROM employees`

// employeeStamps formats the service-assigned timestamps. Rows written
// directly through the store (tests, migrations) fall back to wall time.
func employeeStamps(emp leave.Employee) (created, updated string) {
	now := time.Now().UTC()
	c, u := emp.CreatedAt, emp.UpdatedAt
	if c.IsZero() {
		c = now
	}
	if u.IsZero() {
		u = c
	}
	return c.UTC().Format(timestampLayout), u.UTC().Format(timestampLayout)
}

func getEmployee(ctx context.Context, db querier, id generic.EntityID) (leave.Employee, error) {
	emps, err := queryEmployees(ctx, db, employeeColumns+" WHERE id = ?", id)
	if err != nil {
		return leave.Employee{}, err
	}
	if len(emps) == 0 {
		return leave.Employee{}, leave.ErrEmployeeNotFound
	}
	return emps[0], nil
}

func listEmployees(ctx context.Context, db querier) ([]leave.Employee, error) {
	return queryEmployees(ctx, db, employeeColumns+" ORDER BY id ASC")
}

func createEmployee(ctx context.Context, db querier, emp leave.Employee) error {
	created, updated := employeeStamps(emp)
	areas, _ := json.Marshal(emp.AuthorizedAreas)

	query := `
		INSERT INTO employees (id, name, email, role, area, position, shift_id, hire_date,
			birth_date, vacation_days, union_days, authorized_areas_json, start_time, end_time,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Email, emp.Role.String(), emp.Area, emp.Position, emp.ShiftID,
		emp.HireDate.String(), nullDate(emp.BirthDate), emp.VacationDays, emp.UnionDays,
		string(areas), nullClock(emp.StartTime), nullClock(emp.EndTime), created, updated,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return leave.ErrEmployeeExists
		}
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}

func updateEmployee(ctx context.Context, db querier, emp leave.Employee) error {
	_, updated := employeeStamps(emp)
	areas, _ := json.Marshal(emp.AuthorizedAreas)

	query := `
		UPDATE employees SET name = ?, email = ?, role = ?, area = ?, position = ?, shift_id = ?,
			hire_date = ?, birth_date = ?, vacation_days = ?, union_days = ?,
			authorized_areas_json = ?, start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := db.ExecContext(ctx, query,
		emp.Name, emp.Email, emp.Role.String(), emp.Area, emp.Position, emp.ShiftID,
		emp.HireDate.String(), nullDate(emp.BirthDate), emp.VacationDays, emp.UnionDays,
		string(areas), nullClock(emp.StartTime), nullClock(emp.EndTime),
		updated, emp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.ErrEmployeeNotFound
	}
	return nil
}

func queryEmployees(ctx context.Context, db querier, query string, args ...any) ([]leave.Employee, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		var (
			e                        leave.Employee
			role, hireDate           string
			email, position, shiftID sql.NullString
			birthDate, areasJSON     sql.NullString
			startTime, endTime       sql.NullInt64
			createdAt, updatedAt     string
		)
		if err := rows.Scan(
			&e.ID, &e.Name, &email, &role, &e.Area, &position, &shiftID, &hireDate, &birthDate,
			&e.VacationDays, &e.UnionDays, &areasJSON, &startTime, &endTime,
			&createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}

		e.Role, err = leave.ParseRole(role)
		if err != nil {
			return nil, err
		}
		e.Email = email.String
		e.Position = position.String
		e.ShiftID = shiftID.String
		e.HireDate = parseDate(hireDate)
		e.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
		e.UpdatedAt, _ = time.Parse(timestampLayout, updatedAt)
		if birthDate.Valid {
			d := parseDate(birthDate.String)
			e.BirthDate = &d
		}
		if areasJSON.Valid && areasJSON.String != "" && areasJSON.String != "null" {
			if err := json.Unmarshal([]byte(areasJSON.String), &e.AuthorizedAreas); err != nil {
				return nil, fmt.Errorf("failed to decode authorized areas of %s: %w", e.ID, err)
			}
		}
		e.StartTime = clockFromNull(startTime)
		e.EndTime = clockFromNull(endTime)

		employees = append(employees, e)
	}

	return employees, rows.Err()
}

// =============================================================================
// REQUEST STORE
// =============================================================================

func (s *Store) GetRequest(ctx context.Context, id leave.RequestID) (leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRequest(ctx, s.db, id)
}

func (s *Store) ListRequestsByEmployee(ctx context.Context, employeeID generic.EntityID) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequestsByEmployee(ctx, s.db, employeeID)
}

func (s *Store) ListRequestsByStatus(ctx context.Context, statuses ...leave.Status) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequestsByStatus(ctx, s.db, statuses)
}

func (s *Store) CreateRequest(ctx context.Context, req leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createRequest(ctx, s.db, req)
}

func (s *Store) UpdateRequest(ctx context.Context, req leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateRequest(ctx, s.db, req)
}

const requestColumns = `
	SELECT id, employee_id, category, start_date, end_date, start_time, end_time,
	       duration_minutes, reason, status, manager_id, manager_note, manager_decided_at,
	       hr_id, hr_note, hr_decided_at, created_at, updated_at
	FROM requests`

func getRequest(ctx context.Context, db querier, id leave.RequestID) (leave.Request, error) {
	reqs, err := queryRequests(ctx, db, requestColumns+" WHERE id = ?", id)
	if err != nil {
		return leave.Request{}, err
	}
	if len(reqs) == 0 {
		return leave.Request{}, leave.ErrRequestNotFound
	}
	return reqs[0], nil
}

func listRequestsByEmployee(ctx context.Context, db querier, employeeID generic.EntityID) ([]leave.Request, error) {
	return queryRequests(ctx, db, requestColumns+`
		WHERE employee_id = ?
		ORDER BY created_at ASC, id ASC`, employeeID)
}

func listRequestsByStatus(ctx context.Context, db querier, statuses []leave.Status) ([]leave.Request, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = string(st)
	}
	return queryRequests(ctx, db, requestColumns+`
		WHERE status IN (`+placeholders+`)
		ORDER BY created_at ASC, id ASC`, args...)
}

func createRequest(ctx context.Context, db querier, r leave.Request) error {
	query := `
		INSERT INTO requests (id, employee_id, category, start_date, end_date, start_time, end_time,
			duration_minutes, reason, status, manager_id, manager_note, manager_decided_at,
			hr_id, hr_note, hr_decided_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		r.ID, r.EmployeeID, string(r.Category), r.StartDate.String(), r.EndDate.String(),
		nullClock(r.StartTime), nullClock(r.EndTime), r.DurationMinutes, r.Reason, string(r.Status),
		nullString(string(r.ManagerID)), r.ManagerNote, nullTime(r.ManagerDecidedAt),
		nullString(string(r.HRID)), r.HRNote, nullTime(r.HRDecidedAt),
		r.CreatedAt.UTC().Format(timestampLayout), r.UpdatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

// updateRequest writes the decision columns. Dates, times and category
// are fixed at submission.
func updateRequest(ctx context.Context, db querier, r leave.Request) error {
	query := `
		UPDATE requests SET status = ?, manager_id = ?, manager_note = ?, manager_decided_at = ?,
			hr_id = ?, hr_note = ?, hr_decided_at = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := db.ExecContext(ctx, query,
		string(r.Status),
		nullString(string(r.ManagerID)), r.ManagerNote, nullTime(r.ManagerDecidedAt),
		nullString(string(r.HRID)), r.HRNote, nullTime(r.HRDecidedAt),
		r.UpdatedAt.UTC().Format(timestampLayout), r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.ErrRequestNotFound
	}
	return nil
}

func queryRequests(ctx context.Context, db querier, query string, args ...any) ([]leave.Request, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		var (
			r                              leave.Request
			category, status               string
			startDate, endDate             string
			startTime, endTime             sql.NullInt64
			reason, managerID, managerNote sql.NullString
			hrID, hrNote                   sql.NullString
			managerDecidedAt, hrDecidedAt  sql.NullString
			createdAt, updatedAt           string
		)
		if err := rows.Scan(
			&r.ID, &r.EmployeeID, &category, &startDate, &endDate, &startTime, &endTime,
			&r.DurationMinutes, &reason, &status, &managerID, &managerNote, &managerDecidedAt,
			&hrID, &hrNote, &hrDecidedAt, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}

		r.Category = leave.Category(category)
		r.Status = leave.Status(status)
		r.StartDate = parseDate(startDate)
		r.EndDate = parseDate(endDate)
		r.StartTime = clockFromNull(startTime)
		r.EndTime = clockFromNull(endTime)
		r.Reason = reason.String
		r.ManagerID = generic.EntityID(managerID.String)
		r.ManagerNote = managerNote.String
		r.ManagerDecidedAt = timeFromNull(managerDecidedAt)
		r.HRID = generic.EntityID(hrID.String)
		r.HRNote = hrNote.String
		r.HRDecidedAt = timeFromNull(hrDecidedAt)
		r.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
		r.UpdatedAt, _ = time.Parse(timestampLayout, updatedAt)

		requests = append(requests, r)
	}

	return requests, rows.Err()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(tp *generic.TimePoint) sql.NullString {
	if tp == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: tp.String(), Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timestampLayout), Valid: true}
}

func nullClock(c *leave.ClockTime) sql.NullInt64 {
	if c == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*c), Valid: true}
}

func clockFromNull(n sql.NullInt64) *leave.ClockTime {
	if !n.Valid {
		return nil
	}
	c := leave.ClockTime(n.Int64)
	return &c
}

func timeFromNull(n sql.NullString) *time.Time {
	if !n.Valid {
		return nil
	}
	t, err := time.Parse(timestampLayout, n.String)
	if err != nil {
		return nil
	}
	return &t
}

func parseDate(s string) generic.TimePoint {
	tp, _ := generic.ParseDate(s)
	return tp
}

func parseAmount(value, unit string) generic.Amount {
	a, err := generic.ParseAmount(value, generic.Unit(unit))
	if err != nil {
		return generic.Amount{Unit: generic.Unit(unit)}
	}
	return a
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
