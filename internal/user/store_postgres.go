package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "enroll/pkg/domain"
	"enroll/pkg/platform/sentinel"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Save(ctx context.Context, u User) error {
	registration := u.Registration
	if registration == "" {
		registration = RegistrationAccepted
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, birthdate, sex, has_reduction, age_deviation, registration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			birthdate = EXCLUDED.birthdate,
			sex = EXCLUDED.sex,
			has_reduction = EXCLUDED.has_reduction,
			age_deviation = EXCLUDED.age_deviation,
			registration = EXCLUDED.registration`,
		uuid.UUID(u.ID), u.FirstName, u.LastName, u.Email, u.Birthdate, string(u.Sex),
		u.HasReduction, u.AgeDeviation, string(registration))
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// FindByID loads the user with its sibling ids aggregated in one query.
func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.first_name, u.last_name, u.email, u.birthdate, u.sex,
		       u.has_reduction, u.age_deviation, u.registration,
		       COALESCE(array_agg(s.sibling_id::text) FILTER (WHERE s.sibling_id IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_siblings s ON s.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.id`, uuid.UUID(userID))

	var (
		u        User
		uid      uuid.UUID
		sex      string
		reg      string
		siblings []string
	)
	err := row.Scan(&uid, &u.FirstName, &u.LastName, &u.Email, &u.Birthdate, &sex,
		&u.HasReduction, &u.AgeDeviation, &reg, pq.Array(&siblings))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, sentinel.ErrNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}
	u.ID = id.UserID(uid)
	u.Sex = id.Sex(sex)
	u.Registration = RegistrationStatus(reg)
	for _, raw := range siblings {
		sid, err := uuid.Parse(raw)
		if err != nil {
			return User{}, fmt.Errorf("decode sibling id: %w", err)
		}
		u.SiblingIDs = append(u.SiblingIDs, id.UserID(sid))
	}
	return u, nil
}

func (s *Postgres) SiblingsOf(ctx context.Context, userID id.UserID) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.first_name, u.last_name, u.email, u.birthdate, u.sex,
		       u.has_reduction, u.age_deviation, u.registration
		FROM user_siblings s
		JOIN users u ON u.id = s.sibling_id
		WHERE s.user_id = $1
		ORDER BY u.birthdate`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list siblings: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var (
			u        User
			uid      uuid.UUID
			sex, reg string
		)
		if err := rows.Scan(&uid, &u.FirstName, &u.LastName, &u.Email, &u.Birthdate, &sex,
			&u.HasReduction, &u.AgeDeviation, &reg); err != nil {
			return nil, fmt.Errorf("scan sibling: %w", err)
		}
		u.ID = id.UserID(uid)
		u.Sex = id.Sex(sex)
		u.Registration = RegistrationStatus(reg)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Postgres) AddSibling(ctx context.Context, a, b id.UserID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_siblings (user_id, sibling_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT DO NOTHING`, uuid.UUID(a), uuid.UUID(b))
	if err != nil {
		return fmt.Errorf("add sibling: %w", err)
	}
	return nil
}

func (s *Postgres) SetRegistration(ctx context.Context, userID id.UserID, status RegistrationStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET registration = $2 WHERE id = $1 AND registration = $3`,
		uuid.UUID(userID), string(status), string(RegistrationPending))
	if err != nil {
		return false, fmt.Errorf("set registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set registration rows: %w", err)
	}
	return n == 1, nil
}

func (s *Postgres) AssignRole(ctx context.Context, r Role) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, branch_id, period_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, uuid.UUID(r.UserID), uuid.UUID(r.BranchID), uuid.UUID(r.PeriodID))
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (s *Postgres) RevokeRole(ctx context.Context, r Role) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM user_roles WHERE user_id = $1 AND branch_id = $2 AND period_id = $3`,
		uuid.UUID(r.UserID), uuid.UUID(r.BranchID), uuid.UUID(r.PeriodID))
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}

func (s *Postgres) Roles(ctx context.Context, userID id.UserID) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT branch_id, period_id FROM user_roles WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var branchID, periodID uuid.UUID
		if err := rows.Scan(&branchID, &periodID); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		out = append(out, Role{UserID: userID, BranchID: id.BranchID(branchID), PeriodID: id.PayableID(periodID)})
	}
	return out, rows.Err()
}
