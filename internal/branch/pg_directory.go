package branch

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hackgods/branch-appointment-booking/internal/booking"
	"github.com/hackgods/branch-appointment-booking/internal/db"
)

type PgDirectory struct {
	q db.Querier
}

func NewPgDirectory(q db.Querier) *PgDirectory {
	return &PgDirectory{q: q}
}

func scanBranch(row pgx.Row) (booking.Branch, error) {
	var b booking.Branch
	err := row.Scan(
		&b.ID,
		&b.Name,
		&b.Address,
		&b.City,
		&b.Region,
		&b.PostalCode,
		&b.Phone,
		&b.Hours,
		&b.Distance,
	)
	if err != nil {
		return booking.Branch{}, err
	}
	if b.Hours == "" {
		b.Hours = booking.DefaultBranchHours
	}
	return b, nil
}

func (d *PgDirectory) Lookup(ctx context.Context, postalCode string) ([]booking.Branch, error) {
	if !booking.ValidPostalCode(postalCode) {
		return nil, ErrInvalidPostalCode
	}

	rows, err := d.q.Query(ctx, `
		SELECT b.id, b.name, b.street_address, b.city, b.region_code, b.postal_code, b.phone, b.hours, c.distance_label
		FROM branch_coverage c
		JOIN branches b ON b.id = c.branch_id
		WHERE c.postal_code = $1
		ORDER BY c.rank
	`, postalCode)
	if err != nil {
		return nil, fmt.Errorf("query branches: %w", err)
	}
	defer rows.Close()

	var result []booking.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		result = append(result, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate branches: %w", err)
	}

	return result, nil
}

// UpsertBranch stores b and its coverage entry for postalCode at rank.
func (d *PgDirectory) UpsertBranch(ctx context.Context, b booking.Branch, postalCode string, rank int) error {
	_, err := d.q.Exec(ctx, `
		INSERT INTO branches (id, name, street_address, city, region_code, postal_code, phone, hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    street_address = EXCLUDED.street_address,
		    city = EXCLUDED.city,
		    region_code = EXCLUDED.region_code,
		    postal_code = EXCLUDED.postal_code,
		    phone = EXCLUDED.phone,
		    hours = EXCLUDED.hours
	`, b.ID, b.Name, b.Address, b.City, b.Region, b.PostalCode, b.Phone, b.Hours)
	if err != nil {
		return fmt.Errorf("upsert branch %s: %w", b.ID, err)
	}

	_, err = d.q.Exec(ctx, `
		INSERT INTO branch_coverage (postal_code, branch_id, rank, distance_label)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (postal_code, branch_id) DO UPDATE
		SET rank = EXCLUDED.rank,
		    distance_label = EXCLUDED.distance_label
	`, postalCode, b.ID, rank, b.Distance)
	if err != nil {
		return fmt.Errorf("upsert coverage %s/%s: %w", postalCode, b.ID, err)
	}

	return nil
}
