package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"repairshop_backend/internal/models"
)

// CustomerRepository defines the database operations for customers.
type CustomerRepository interface {
	CreateCustomer(customer *models.Customer) (int64, error)
	GetCustomerByID(customerID int64) (*models.Customer, error)
	GetCustomers(filters models.CustomerFilters) ([]models.Customer, int, error)
	UpdateCustomer(customer *models.Customer) error
	DeleteCustomer(customerID int64) error
	CountActive() (int, error)
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) CreateCustomer(customer *models.Customer) (int64, error) {
	query := `INSERT INTO customers
	            (name, document, primary_phone, secondary_phone, email, postal_code, street,
	             number, complement, district, city, state, notes, active, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING id`
	now := time.Now()
	err := r.db.QueryRow(query,
		customer.Name, customer.Document, customer.PrimaryPhone, customer.SecondaryPhone,
		customer.Email, customer.PostalCode, customer.Street, customer.Number,
		customer.Complement, customer.District, customer.City, customer.State,
		customer.Notes, customer.Active, now,
	).Scan(&customer.ID)
	if err != nil {
		return 0, mapPQError("creating customer", err)
	}
	customer.CreatedAt = now
	return customer.ID, nil
}

func (r *customerRepository) GetCustomerByID(customerID int64) (*models.Customer, error) {
	customer := &models.Customer{}
	query := `SELECT id, name, document, primary_phone, secondary_phone, email, postal_code,
	                 street, number, complement, district, city, state, notes, active, created_at
	          FROM customers
	          WHERE id = $1`
	err := r.db.QueryRow(query, customerID).Scan(
		&customer.ID, &customer.Name, &customer.Document, &customer.PrimaryPhone,
		&customer.SecondaryPhone, &customer.Email, &customer.PostalCode,
		&customer.Street, &customer.Number, &customer.Complement, &customer.District,
		&customer.City, &customer.State, &customer.Notes, &customer.Active, &customer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPQError(fmt.Sprintf("getting customer %d", customerID), err)
	}
	return customer, nil
}

func (r *customerRepository) GetCustomers(filters models.CustomerFilters) ([]models.Customer, int, error) {
	customers := []models.Customer{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
	    SELECT id, name, document, primary_phone, secondary_phone, email, postal_code,
	           street, number, complement, district, city, state, notes, active, created_at,
	           COUNT(*) OVER() AS total_count
	    FROM customers
	`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR document ILIKE $%d OR primary_phone ILIKE $%d)",
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
	queryBuilder.WriteString(" ORDER BY name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, mapPQError("querying customers", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Document, &c.PrimaryPhone, &c.SecondaryPhone, &c.Email,
			&c.PostalCode, &c.Street, &c.Number, &c.Complement, &c.District,
			&c.City, &c.State, &c.Notes, &c.Active, &c.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, mapPQError("scanning customer", err)
		}
		customers = append(customers, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, mapPQError("iterating customers", err)
	}
	return customers, totalCount, nil
}

func (r *customerRepository) UpdateCustomer(customer *models.Customer) error {
	query := `UPDATE customers SET
	            name = $1, document = $2, primary_phone = $3, secondary_phone = $4, email = $5,
	            postal_code = $6, street = $7, number = $8, complement = $9, district = $10,
	            city = $11, state = $12, notes = $13, active = $14
	          WHERE id = $15`
	result, err := r.db.Exec(query,
		customer.Name, customer.Document, customer.PrimaryPhone, customer.SecondaryPhone,
		customer.Email, customer.PostalCode, customer.Street, customer.Number,
		customer.Complement, customer.District, customer.City, customer.State,
		customer.Notes, customer.Active, customer.ID,
	)
	if err != nil {
		return mapPQError(fmt.Sprintf("updating customer %d", customer.ID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("updating customer %d", customer.ID))
}

func (r *customerRepository) DeleteCustomer(customerID int64) error {
	result, err := r.db.Exec(`DELETE FROM customers WHERE id = $1`, customerID)
	if err != nil {
		return mapPQError(fmt.Sprintf("deleting customer %d", customerID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("deleting customer %d", customerID))
}

func (r *customerRepository) CountActive() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM customers WHERE active = TRUE`).Scan(&count); err != nil {
		return 0, mapPQError("counting active customers", err)
	}
	return count, nil
}
