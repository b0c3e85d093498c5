package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/reeltest/reeltest-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	CreateUser(email, password, fullName, companyName, jobTitle string) (models.User, error)
	AuthenticateUser(email, password string) (models.User, error)
	GetUserByID(userID string) (models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (u *userRepository) CreateUser(email, password, fullName, companyName, jobTitle string) (models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return models.User{}, errors.New("email is required")
	}
	if password == "" {
		return models.User{}, errors.New("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		CompanyName:  strings.TrimSpace(companyName),
		JobTitle:     strings.TrimSpace(jobTitle),
		PasswordHash: string(hash),
		IsActive:     true,
	}

	const query = `
		INSERT INTO users (email, full_name, company_name, job_title, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at;
	`

	err = u.db.QueryRow(query,
		user.Email,
		user.FullName,
		user.CompanyName,
		user.JobTitle,
		user.PasswordHash,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (u *userRepository) AuthenticateUser(email, password string) (models.User, error) {
	var user models.User

	const query = `
		SELECT id, email, full_name, company_name, job_title, password_hash, is_active, created_at, updated_at
		FROM users
		WHERE email = $1;
	`

	err := u.db.QueryRow(query, strings.TrimSpace(strings.ToLower(email))).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.CompanyName,
		&user.JobTitle,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, errors.New("invalid credentials")
		}
		return models.User{}, err
	}

	if !user.IsActive {
		return models.User{}, errors.New("user is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, errors.New("invalid credentials")
	}

	return user, nil
}

func (u *userRepository) GetUserByID(userID string) (models.User, error) {
	var user models.User

	const query = `
		SELECT id, email, full_name, company_name, job_title, password_hash, is_active, created_at, updated_at
		FROM users
		WHERE id = $1;
	`

	err := u.db.QueryRow(query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.CompanyName,
		&user.JobTitle,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}
