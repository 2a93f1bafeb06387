package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"repairshop_backend/internal/models"
)

// UserRepository defines the database operations for staff accounts.
type UserRepository interface {
	CreateUser(user *models.User) (int64, error)
	GetUserByID(userID int64) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUsers() ([]models.User, error)
	GetTechnicians() ([]models.User, error)
	UpdateUser(user *models.User) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, password_hash, email, full_name, role, is_active, created_at, updated_at`

func (r *userRepository) CreateUser(user *models.User) (int64, error) {
	query := `INSERT INTO users (username, password_hash, email, full_name, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	now := time.Now()
	err := r.db.QueryRow(query,
		user.Username, user.PasswordHash, user.Email, user.FullName, user.Role, user.IsActive, now, now,
	).Scan(&user.ID)
	if err != nil {
		return 0, mapPQError("creating user", err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return user.ID, nil
}

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.FullName,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPQError("scanning user", err)
	}
	return user, nil
}

func (r *userRepository) GetUserByID(userID int64) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.scanUser(r.db.QueryRow(query, userID))
}

func (r *userRepository) GetUserByUsername(username string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userColumns)
	return r.scanUser(r.db.QueryRow(query, username))
}

func (r *userRepository) GetUsers() ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY username`, userColumns)
	return r.queryUsers(query)
}

func (r *userRepository) GetTechnicians() ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE role = $1 AND is_active = TRUE ORDER BY username`, userColumns)
	return r.queryUsers(query, models.RoleTechnician)
}

func (r *userRepository) queryUsers(query string, args ...interface{}) ([]models.User, error) {
	users := []models.User{}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, mapPQError("querying users", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.FullName,
			&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, mapPQError("scanning user", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, mapPQError("iterating users", err)
	}
	return users, nil
}

func (r *userRepository) UpdateUser(user *models.User) error {
	query := `UPDATE users SET username = $1, password_hash = $2, email = $3, full_name = $4,
	                           role = $5, is_active = $6, updated_at = $7
	          WHERE id = $8`
	result, err := r.db.Exec(query,
		user.Username, user.PasswordHash, user.Email, user.FullName, user.Role,
		user.IsActive, time.Now(), user.ID,
	)
	if err != nil {
		return mapPQError(fmt.Sprintf("updating user %d", user.ID), err)
	}
	return requireRowsAffected(result, fmt.Sprintf("updating user %d", user.ID))
}
