package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"enroll/internal/payable"
	id "enroll/pkg/domain"
	"enroll/pkg/platform/sentinel"
)

// Postgres stores one payable kind as JSONB in the payables table; restrictions
// get their own table so capacity and pricing queries can filter on them.
type Postgres[T any, P interface {
	*T
	payable.Payable
}] struct {
	db   *sql.DB
	kind payable.Kind
}

func NewPostgres[T any, P interface {
	*T
	payable.Payable
}](db *sql.DB, kind payable.Kind) *Postgres[T, P] {
	return &Postgres[T, P]{db: db, kind: kind}
}

func (s *Postgres[T, P]) Save(ctx context.Context, item P, restrictions []payable.Restriction) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode payable: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save payable: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payables (id, kind, data) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		uuid.UUID(item.PayableID()), string(s.kind), data)
	if err != nil {
		return fmt.Errorf("save payable: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM restrictions WHERE payable_id = $1`, uuid.UUID(item.PayableID())); err != nil {
		return fmt.Errorf("clear restrictions: %w", err)
	}
	for _, r := range restrictions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO restrictions (id, payable_id, position, name, branch_id, alternative_start,
				alternative_price, alternative_limit, branch_limit, occurrence_start, occurrence_end)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			uuid.UUID(r.ID), uuid.UUID(item.PayableID()), r.Position, r.Name,
			nullableUUID(r.BranchID), r.AlternativeStart, nullableDecimal(r.AlternativePrice),
			r.AlternativeLimit, r.BranchLimit, r.OccurrenceStart, r.OccurrenceEnd)
		if err != nil {
			return fmt.Errorf("save restriction: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save payable: %w", err)
	}
	return nil
}

func (s *Postgres[T, P]) FindByID(ctx context.Context, payableID id.PayableID) (P, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM payables WHERE id = $1 AND kind = $2`,
		uuid.UUID(payableID), string(s.kind)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find payable: %w", err)
	}
	return decode[T, P](data)
}

func (s *Postgres[T, P]) List(ctx context.Context) ([]P, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM payables WHERE kind = $1`, string(s.kind))
	if err != nil {
		return nil, fmt.Errorf("list payables: %w", err)
	}
	defer rows.Close()

	var out []P
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan payable: %w", err)
		}
		item, err := decode[T, P](data)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

const restrictionColumns = `id, payable_id, position, name, branch_id, alternative_start,
	alternative_price, alternative_limit, branch_limit, occurrence_start, occurrence_end`

func (s *Postgres[T, P]) Restrictions(ctx context.Context, payableID id.PayableID) ([]payable.Restriction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+restrictionColumns+` FROM restrictions WHERE payable_id = $1 ORDER BY position`,
		uuid.UUID(payableID))
	if err != nil {
		return nil, fmt.Errorf("list restrictions: %w", err)
	}
	defer rows.Close()

	var out []payable.Restriction
	for rows.Next() {
		r, err := scanRestriction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Postgres[T, P]) FindRestriction(ctx context.Context, payableID id.PayableID, restrictionID id.RestrictionID) (payable.Restriction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+restrictionColumns+` FROM restrictions WHERE payable_id = $1 AND id = $2`,
		uuid.UUID(payableID), uuid.UUID(restrictionID))
	r, err := scanRestriction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payable.Restriction{}, sentinel.ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRestriction(row scanner) (payable.Restriction, error) {
	var (
		r                payable.Restriction
		rid, pid         uuid.UUID
		branch           uuid.NullUUID
		altStart         sql.NullTime
		altPrice         decimal.NullDecimal
		altLimit         sql.NullInt64
		occStart, occEnd sql.NullTime
	)
	err := row.Scan(&rid, &pid, &r.Position, &r.Name, &branch, &altStart,
		&altPrice, &altLimit, &r.BranchLimit, &occStart, &occEnd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan restriction: %w", err)
	}
	r.ID = id.RestrictionID(rid)
	r.PayableID = id.PayableID(pid)
	if branch.Valid {
		b := id.BranchID(branch.UUID)
		r.BranchID = &b
	}
	r.AlternativeStart = timePtr(altStart)
	if altPrice.Valid {
		p := altPrice.Decimal
		r.AlternativePrice = &p
	}
	if altLimit.Valid {
		l := int(altLimit.Int64)
		r.AlternativeLimit = &l
	}
	r.OccurrenceStart = timePtr(occStart)
	r.OccurrenceEnd = timePtr(occEnd)
	return r, nil
}

func decode[T any, P interface {
	*T
	payable.Payable
}](data []byte) (P, error) {
	item := P(new(T))
	if err := json.Unmarshal(data, item); err != nil {
		return nil, fmt.Errorf("decode payable: %w", err)
	}
	return item, nil
}

func nullableUUID(b *id.BranchID) any {
	if b == nil {
		return nil
	}
	return uuid.UUID(*b)
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
