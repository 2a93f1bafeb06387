package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"repairshop_backend/internal/models"
)

// SupplierRepository defines the database operations for suppliers.
type SupplierRepository interface {
	CreateSupplier(supplier *models.Supplier) (int64, error)
	GetSupplierByID(supplierID int64) (*models.Supplier, error)
	GetSuppliers(filters models.SupplierFilters) ([]models.Supplier, int, error)
	UpdateSupplier(supplier *models.Supplier) error
	DeleteSupplier(supplierID int64) error
}

type supplierRepository struct {
	db *sql.DB
}

// NewSupplierRepository creates a new instance of SupplierRepository.
func NewSupplierRepository(db *sql.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) CreateSupplier(supplier *models.Supplier) (int64, error) {
	query := `INSERT INTO suppliers
	            (legal_name, trade_name, cnpj, phone, email, contact_person, postal_code,
	             street, number, complement, district, city, state, payment_terms, notes,
	             active, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	          RETURNING id`
	now := time.Now()
	err := r.db.QueryRow(query,
		supplier.LegalName, supplier.TradeName, supplier.CNPJ, supplier.Phone, supplier.Email,
		supplier.ContactPerson, supplier.PostalCode, supplier.Street, supplier.Number,
		supplier.Complement, supplier.District, supplier.City, supplier.State,
		supplier.PaymentTerms, supplier.Notes, supplier.Active, now,
	).Scan(&supplier.ID)
	if err != nil {
		return 0, mapPQError("creating supplier", err)
	}
	supplier.CreatedAt = now
	return supplier.ID, nil
}

func (r *supplierRepository) GetSupplierByID(supplierID int64) (*models.Supplier, error) {
	supplier := &models.Supplier{}
	query := `SELECT id, legal_name, trade_name, cnpj, phone, email, contact_person, postal_code,
	                 street, number, complement, district, city, state, payment_terms, notes,
	                 active, created_at
	          FROM suppliers
	          WHERE id = $1`
	err := r.db.QueryRow(query, supplierID).Scan(
		&supplier.ID, &supplier.LegalName, &supplier.TradeName, &supplier.CNPJ, &supplier.Phone,
		&supplier.Email, &supplier.ContactPerson, &supplier.PostalCode, &supplier.Street,
		&supplier.Number, &supplier.Complement, &supplier.District, &supplier.City,
		&supplier.State, &supplier.PaymentTerms, &supplier.Notes, &supplier.Active, &supplier.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPQError(fmt.Sprintf("getting supplier %d", supplierID), err)
	}
	return supplier, nil
}

func (r *supplierRepository) GetSuppliers(filters models.SupplierFilters) ([]models.Supplier, int, error) {
	suppliers := []models.Supplier{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
	    SELECT id, legal_name, trade_name, cnpj, phone, email, contact_person, postal_code,
	           street, number, complement, district, city, state, payment_terms, notes,
	           active, created_at,
	           COUNT(*) OVER() AS total_count
	    FROM suppliers
	`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(legal_name ILIKE $%d OR trade_name ILIKE $%d OR cnpj ILIKE $%d)",
			argCounter, argCounter, argCounter))
		args = append(args, "%"+*filters.Search+"%")
		argCounter++
	}
	if filters.ActiveOnly {
		conditions = append(conditions, "active = TRUE")
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY legal_name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, mapPQError("querying suppliers", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Supplier
		if err := rows.Scan(
			&s.ID, &s.LegalName, &s.TradeName, &s.CNPJ, &s.Phone, &s.Email, &s.ContactPerson,
			&s.PostalCode, &s.Street, &s.Number, &s.Complement, &s.District, &s.City,
			&s.State, &s.PaymentTerms, &s.Notes, &s.Active, &s.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, mapPQError("scanning supplier", err)
		}
		suppliers = append(suppliers, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, mapPQError("iterating suppliers", err)
	}
	return suppliers, totalCount, nil
}

func (r *supplierRepository) UpdateSupplier(supplier *models.Supplier) error {
	query := `UPDATE suppliers SET
	            legal_name = $1, trade_name = $2, cnpj = $3, phone = $4, email = $5,
	            contact_person = $6, postal_code = $7, street = $8, number = $9,
	            complement = $10, district = $11, city = $12, state = $13,
	            payment_terms = $14, notes = $15, active = $16
	          WHERE id = $17`
	result, err := r.db.Exec(query,
		supplier.LegalName, supplier.TradeName, supplier.CNPJ, supplier.Phone, supplier.Email,
		supplier.ContactPerson, supplier.PostalCode, supplier.Street, supplier.Number,
		supplier.Complement, supplier.District, supplier.City, supplier.State,
		supplier.PaymentTerms, supplier.Notes, supplier.Active, supplier.ID,
	)
	if err != nil {
		return mapPQError(fmt.Sprintf("updating supplier %d", supplier.ID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("updating supplier %d", supplier.ID))
}

func (r *supplierRepository) DeleteSupplier(supplierID int64) error {
	result, err := r.db.Exec(`DELETE FROM suppliers WHERE id = $1`, supplierID)
	if err != nil {
		return mapPQError(fmt.Sprintf("deleting supplier %d", supplierID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("deleting supplier %d", supplierID))
}
