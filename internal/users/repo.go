package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID        string     `json:"id"`
	Name      *string    `json:"name,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Image     *string    `json:"image,omitempty"`
	CPF       *string    `json:"cpf,omitempty"`
	Role      string     `json:"role"`
	BirthDate *string    `json:"birth_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// CreateInput registers a profile row for an identity the auth provider
// already issued; ID is the provider's user id.
type CreateInput struct {
	ID    string
	Name  string
	Email string
	Image *string
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, in CreateInput) (User, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, in.Email).Scan(&exists)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrAlreadyExists
	}

	u := User{ID: in.ID, Name: &in.Name, Email: &in.Email, Image: in.Image, Role: RoleUser}
	err = r.DB.QueryRow(ctx, `
		INSERT INTO users(id, name, email, image)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		u.ID, u.Name, u.Email, u.Image,
	).Scan(&u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

const userColumns = `id, name, email, image, cpf, role, birth_date, created_at, updated_at`

func (r *Repo) GetByID(ctx context.Context, id string) (User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *Repo) List(ctx context.Context) ([]User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *Repo) Table(ctx context.Context, pageIndex, pageSize int) ([]User, int, error) {
	if pageSize < 1 {
		pageSize = 10
	}
	rows, err := r.DB.Query(ctx, `
		SELECT `+userColumns+` FROM users
		ORDER BY name ASC OFFSET $1 LIMIT $2`,
		pageIndex*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	out, err := scanUsers(rows)
	rows.Close()
	if err != nil {
		return nil, 0, err
	}

	var count int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.CPF, &u.Role, &u.BirthDate, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
