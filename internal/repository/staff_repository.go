package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"staffdesk/api/internal/models"
)

var ErrStaffNotFound = errors.New("staff not found")

type StaffRepository struct {
	pool *pgxpool.Pool
}

func NewStaffRepository(pool *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{pool: pool}
}

const staffColumns = `id, name, email, password_hash, role, allowed_ips, created_at, updated_at`

func (r *StaffRepository) Create(ctx context.Context, staff models.Staff) error {
	const query = `
		INSERT INTO staff (id, name, email, password_hash, role, allowed_ips, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		staff.ID,
		staff.Name,
		staff.Email,
		staff.PasswordHash,
		staff.Role,
		staff.AllowedIPs,
	)
	return err
}

func (r *StaffRepository) GetByID(ctx context.Context, id string) (models.Staff, error) {
	const query = `SELECT ` + staffColumns + ` FROM staff WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (models.Staff, error) {
	const query = `SELECT ` + staffColumns + ` FROM staff WHERE email = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *StaffRepository) UpdateAllowedIPs(ctx context.Context, id string, allowedIPs []string) error {
	const query = `UPDATE staff SET allowed_ips = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, allowedIPs)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaffNotFound
	}
	return nil
}

func (r *StaffRepository) scanOne(row pgx.Row) (models.Staff, error) {
	var staff models.Staff
	if err := row.Scan(
		&staff.ID,
		&staff.Name,
		&staff.Email,
		&staff.PasswordHash,
		&staff.Role,
		&staff.AllowedIPs,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Staff{}, ErrStaffNotFound
		}
		return models.Staff{}, err
	}
	return staff, nil
}
