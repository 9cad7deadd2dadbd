package portalapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/healthfirst/portal/pkg/database"
	"github.com/healthfirst/portal/pkg/logger"
	"github.com/healthfirst/portal/pkg/monitoring"
	"github.com/healthfirst/portal/pkg/types"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// PostgresRepository stores accounts and schedules in Postgres
type PostgresRepository struct {
	db      *database.DB
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector
}

// NewPostgresRepository creates a repository on db. metrics may be nil.
func NewPostgresRepository(db *database.DB, log *logger.Logger, metrics *monitoring.MetricsCollector) *PostgresRepository {
	return &PostgresRepository{db: db, logger: log, metrics: metrics}
}

func (r *PostgresRepository) observe(ctx context.Context, operation, table string, start time.Time, rows int64, err error) {
	elapsed := time.Since(start)
	if r.metrics != nil {
		r.metrics.RecordDBQuery(operation, elapsed)
	}
	ok := err == nil || errors.Is(err, ErrAccountNotFound)
	r.logger.DatabaseOperation(ctx, operation, table, elapsed.Milliseconds(), rows, ok)
}

const accountColumns = `id, role, email, phone_number, password_hash, first_name, last_name,
	specialization, license_number, years_of_experience, date_of_birth, profile, created_at`

func (r *PostgresRepository) CreateAccount(ctx context.Context, account *types.Account) (err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "insert", "accounts", start, 1, err) }()

	profile, err := json.Marshal(account.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.db.ExecContext(ctx, query,
		account.ID,
		string(account.Role),
		strings.ToLower(account.Email),
		account.PhoneNumber,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.Specialization,
		account.LicenseNumber,
		account.YearsOfExperience,
		account.DateOfBirth,
		profile,
		account.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetAccountByID(ctx context.Context, id string) (*types.Account, error) {
	return r.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *PostgresRepository) GetAccountByEmail(ctx context.Context, role types.UserRole, email string) (*types.Account, error) {
	return r.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE role = $1 AND email = $2`,
		string(role), strings.ToLower(email))
}

func (r *PostgresRepository) GetAccountByPhone(ctx context.Context, role types.UserRole, phone string) (*types.Account, error) {
	return r.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE role = $1 AND phone_number = $2`,
		string(role), phone)
}

func (r *PostgresRepository) getAccount(ctx context.Context, query string, args ...interface{}) (a *types.Account, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "select", "accounts", start, 1, err) }()

	var (
		account        types.Account
		role           string
		phone          sql.NullString
		specialization sql.NullString
		license        sql.NullString
		years          sql.NullInt64
		dob            sql.NullString
		profile        []byte
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&account.ID,
		&role,
		&account.Email,
		&phone,
		&account.PasswordHash,
		&account.FirstName,
		&account.LastName,
		&specialization,
		&license,
		&years,
		&dob,
		&profile,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account.Role = types.UserRole(role)
	account.PhoneNumber = phone.String
	account.Specialization = specialization.String
	account.LicenseNumber = license.String
	account.YearsOfExperience = int(years.Int64)
	account.DateOfBirth = dob.String
	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &account.Profile); err != nil {
			return nil, fmt.Errorf("failed to decode profile: %w", err)
		}
	}
	return &account, nil
}

func (r *PostgresRepository) GetWeeklyAvailability(ctx context.Context, providerID string) (days map[string]types.DayWindow, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "select", "weekly_availability", start, int64(len(days)), err) }()

	rows, err := r.db.QueryContext(ctx, `
		SELECT day, from_time, till_time, is_available
		FROM weekly_availability
		WHERE provider_id = $1`, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly availability: %w", err)
	}
	defer rows.Close()

	days = make(map[string]types.DayWindow)
	for rows.Next() {
		var day string
		var w types.DayWindow
		if err := rows.Scan(&day, &w.FromTime, &w.TillTime, &w.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan weekly availability: %w", err)
		}
		days[day] = w
	}
	return days, rows.Err()
}

func (r *PostgresRepository) ReplaceWeeklyAvailability(ctx context.Context, providerID string, days map[string]types.DayWindow) (err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "replace", "weekly_availability", start, int64(len(days)), err) }()

	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM weekly_availability WHERE provider_id = $1`, providerID); err != nil {
			return fmt.Errorf("failed to clear weekly availability: %w", err)
		}
		for _, day := range sortedDays(days) {
			w := days[day]
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO weekly_availability (provider_id, day, from_time, till_time, is_available)
				VALUES ($1, $2, $3, $4, $5)`,
				providerID, day, w.FromTime, w.TillTime, w.IsAvailable); err != nil {
				return fmt.Errorf("failed to insert weekly availability: %w", err)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) ListBlockDays(ctx context.Context, providerID string, rng types.DateRange) (out []types.BlockDayPayload, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "select", "block_days", start, int64(len(out)), err) }()

	query := `
		SELECT to_char(date, 'YYYY-MM-DD'), from_time, till_time, reason
		FROM block_days
		WHERE provider_id = $1`
	args := []interface{}{providerID}
	if !rng.StartDate.IsZero() {
		args = append(args, rng.StartDate.Format(types.DateLayout))
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if !rng.EndDate.IsZero() {
		args = append(args, rng.EndDate.Format(types.DateLayout))
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query block days: %w", err)
	}
	defer rows.Close()

	out = []types.BlockDayPayload{}
	for rows.Next() {
		var b types.BlockDayPayload
		var reason sql.NullString
		if err := rows.Scan(&b.Date, &b.FromTime, &b.TillTime, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan block day: %w", err)
		}
		b.Reason = reason.String
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ReplaceBlockDays(ctx context.Context, providerID string, days []types.BlockDayPayload) (err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "replace", "block_days", start, int64(len(days)), err) }()

	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM block_days WHERE provider_id = $1`, providerID); err != nil {
			return fmt.Errorf("failed to clear block days: %w", err)
		}
		for _, b := range days {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO block_days (id, provider_id, date, from_time, till_time, reason)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				uuid.New().String(), providerID, b.Date, b.FromTime, b.TillTime, b.Reason); err != nil {
				return fmt.Errorf("failed to insert block day: %w", err)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
