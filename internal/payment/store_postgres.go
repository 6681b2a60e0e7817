package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"enroll/internal/platform/postgres"
	id "enroll/pkg/domain"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/sentinel"
	txcontext "enroll/pkg/platform/tx"
)

// Postgres stores one payment kind in its own table. Query columns are
// explicit; the kind-specific remainder is kept as JSONB in data.
type Postgres[T any, P interface {
	*T
	Record
}] struct {
	db    *sql.DB
	q     txcontext.Querier
	table string
}

func NewPostgres[T any, P interface {
	*T
	Record
}](db *sql.DB, table string) *Postgres[T, P] {
	return &Postgres[T, P]{db: db, table: table}
}

// querier is the open transaction inside RunInTx, the pool otherwise.
func (s *Postgres[T, P]) querier() txcontext.Querier {
	if s.q != nil {
		return s.q
	}
	return s.db
}

const paymentColumns = `id, payable_id, user_id, branch_id, restriction_id, price, paid, payment_id, created_at, data`

func (s *Postgres[T, P]) Create(ctx context.Context, p P) error {
	b := p.PaymentBase()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payment: %w", err)
	}
	_, err = s.querier().ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, s.table),
		uuid.UUID(b.ID), uuid.UUID(b.PayableID), nullUser(b.UserID), nullBranch(b.BranchID),
		nullRestriction(b.RestrictionID), b.Price, b.Paid, b.TransactionID, b.CreatedAt, data)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *Postgres[T, P]) FindByID(ctx context.Context, paymentID id.PaymentID) (P, error) {
	row := s.querier().QueryRowContext(ctx,
		fmt.Sprintf(`SELECT `+paymentColumns+` FROM %s WHERE id = $1`, s.table),
		uuid.UUID(paymentID))
	return s.scan(row)
}

func (s *Postgres[T, P]) FindByTransactionID(ctx context.Context, transactionID string) (P, error) {
	row := s.querier().QueryRowContext(ctx,
		fmt.Sprintf(`SELECT `+paymentColumns+` FROM %s WHERE payment_id = $1`, s.table),
		transactionID)
	return s.scan(row)
}

func (s *Postgres[T, P]) AssignTransaction(ctx context.Context, paymentID id.PaymentID, transactionID string) error {
	res, err := s.querier().ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET payment_id = $2 WHERE id = $1 AND payment_id IS NULL`, s.table),
		uuid.UUID(paymentID), transactionID)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("assign transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign transaction rows: %w", err)
	}
	if n == 0 {
		return sentinel.ErrStaleState
	}
	return nil
}

func (s *Postgres[T, P]) MarkPaid(ctx context.Context, paymentID id.PaymentID) (bool, error) {
	res, err := s.querier().ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET paid = TRUE WHERE id = $1 AND paid = FALSE`, s.table),
		uuid.UUID(paymentID))
	if err != nil {
		return false, fmt.Errorf("mark paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark paid rows: %w", err)
	}
	return n == 1, nil
}

func (s *Postgres[T, P]) DeleteIf(ctx context.Context, paymentID id.PaymentID, paid bool) (bool, error) {
	res, err := s.querier().ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND paid = $2`, s.table),
		uuid.UUID(paymentID), paid)
	if err != nil {
		return false, fmt.Errorf("delete payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete payment rows: %w", err)
	}
	return n == 1, nil
}

func (s *Postgres[T, P]) ListPending(ctx context.Context, limit int) ([]P, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.querier().QueryContext(ctx, fmt.Sprintf(`
		SELECT `+paymentColumns+` FROM %s
		WHERE paid = FALSE AND payment_id IS NOT NULL
		ORDER BY created_at
		LIMIT $1`, s.table), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}
	defer rows.Close()

	var out []P
	for rows.Next() {
		p, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres[T, P]) CountByPayable(ctx context.Context, payableID id.PayableID) (int, error) {
	return s.countWhere(ctx, `payable_id = $1`, uuid.UUID(payableID))
}

func (s *Postgres[T, P]) CountByRestriction(ctx context.Context, payableID id.PayableID, restrictionID id.RestrictionID) (int, error) {
	return s.countWhere(ctx, `payable_id = $1 AND restriction_id = $2`, uuid.UUID(payableID), uuid.UUID(restrictionID))
}

func (s *Postgres[T, P]) CountByBranch(ctx context.Context, payableID id.PayableID, branchID id.BranchID) (int, error) {
	return s.countWhere(ctx, `payable_id = $1 AND branch_id = $2`, uuid.UUID(payableID), uuid.UUID(branchID))
}

func (s *Postgres[T, P]) ExistsByPayableAndUser(ctx context.Context, payableID id.PayableID, userID id.UserID) (bool, error) {
	n, err := s.countWhere(ctx, `payable_id = $1 AND user_id = $2`, uuid.UUID(payableID), uuid.UUID(userID))
	return n > 0, err
}

func (s *Postgres[T, P]) countWhere(ctx context.Context, where string, args ...any) (int, error) {
	var n int
	err := s.querier().QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, s.table, where), args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return n, nil
}

// RunInTx opens a transaction holding a transaction-scoped advisory lock on
// lockKey, so check-then-insert sequences on the same key serialize across
// instances.
func (s *Postgres[T, P]) RunInTx(ctx context.Context, lockKey string, fn func(store Store[P]) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, s.table+":"+lockKey); err != nil {
		return fmt.Errorf("acquire payable lock: %w", err)
	}
	if err := fn(&Postgres[T, P]{db: s.db, q: tx, table: s.table}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Postgres[T, P]) scan(row rowScanner) (P, error) {
	var (
		pid, payableID uuid.UUID
		userID         uuid.NullUUID
		branchID       uuid.NullUUID
		restrictionID  uuid.NullUUID
		price          decimal.Decimal
		paid           bool
		transactionID  sql.NullString
		createdAt      time.Time
		data           []byte
	)
	err := row.Scan(&pid, &payableID, &userID, &branchID, &restrictionID, &price, &paid, &transactionID, &createdAt, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	p := P(new(T))
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode payment: %w", err)
	}

	// Columns are authoritative over the JSON copy.
	b := p.PaymentBase()
	b.ID = id.PaymentID(pid)
	b.CreatedAt = createdAt
	b.PayableID = id.PayableID(payableID)
	b.UserID = nil
	if userID.Valid {
		u := id.UserID(userID.UUID)
		b.UserID = &u
	}
	b.BranchID = nil
	if branchID.Valid {
		br := id.BranchID(branchID.UUID)
		b.BranchID = &br
	}
	b.RestrictionID = nil
	if restrictionID.Valid {
		r := id.RestrictionID(restrictionID.UUID)
		b.RestrictionID = &r
	}
	b.Price = price
	b.Paid = paid
	b.TransactionID = nil
	if transactionID.Valid {
		t := transactionID.String
		b.TransactionID = &t
	}
	return p, nil
}

func nullUser(u *id.UserID) any {
	if u == nil {
		return nil
	}
	return uuid.UUID(*u)
}

func nullBranch(b *id.BranchID) any {
	if b == nil {
		return nil
	}
	return uuid.UUID(*b)
}

func nullRestriction(r *id.RestrictionID) any {
	if r == nil {
		return nil
	}
	return uuid.UUID(*r)
}
