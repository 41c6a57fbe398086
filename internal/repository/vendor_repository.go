package repository

import (
	"context"
	"fmt"

	"github.com/facilityops/incident-service/internal/domain"
)

// VendorRepository stores repair-provider organizations.
type VendorRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Vendor, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Vendor, error)
}

// CenterRepository stores reporting centers.
type CenterRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Center, error)
}

type vendorRepository struct {
	q Querier
}

const vendorColumns = `id, name, tax_id, email, phone, is_active, created_at, updated_at`

func (r *vendorRepository) GetByID(ctx context.Context, id string) (*domain.Vendor, error) {
	query := fmt.Sprintf(`SELECT %s FROM vendors WHERE id=$1`, vendorColumns)
	var vendor domain.Vendor
	if err := r.q.QueryRow(ctx, query, id).Scan(
		&vendor.ID,
		&vendor.Name,
		&vendor.TaxID,
		&vendor.Email,
		&vendor.Phone,
		&vendor.IsActive,
		&vendor.CreatedAt,
		&vendor.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *vendorRepository) List(ctx context.Context, activeOnly bool) ([]domain.Vendor, error) {
	query := fmt.Sprintf(`SELECT %s FROM vendors`, vendorColumns)
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Vendor
	for rows.Next() {
		var vendor domain.Vendor
		if err := rows.Scan(
			&vendor.ID,
			&vendor.Name,
			&vendor.TaxID,
			&vendor.Email,
			&vendor.Phone,
			&vendor.IsActive,
			&vendor.CreatedAt,
			&vendor.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, vendor)
	}
	return result, rows.Err()
}

type centerRepository struct {
	q Querier
}

func (r *centerRepository) GetByID(ctx context.Context, id string) (*domain.Center, error) {
	const query = `
        SELECT id, name, address, is_active, created_at, updated_at
        FROM centers WHERE id=$1`
	var center domain.Center
	if err := r.q.QueryRow(ctx, query, id).Scan(
		&center.ID,
		&center.Name,
		&center.Address,
		&center.IsActive,
		&center.CreatedAt,
		&center.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &center, nil
}
