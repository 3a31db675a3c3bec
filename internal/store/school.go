package store

import (
	"context"
	"database/sql"

	"github.com/schoolhub/apiserver/types"
)

// SchoolRepository handles persistence for schools.
type SchoolRepository struct {
	db *sql.DB
}

func NewSchoolRepository(db *sql.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

func (r *SchoolRepository) List(ctx context.Context) ([]types.School, error) {
	const query = `SELECT id, name, address FROM schools ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schools := make([]types.School, 0)
	for rows.Next() {
		var school types.School
		if err := rows.Scan(&school.ID, &school.Name, &school.Address); err != nil {
			return nil, err
		}
		schools = append(schools, school)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schools, nil
}

func (r *SchoolRepository) Get(ctx context.Context, id int) (types.School, error) {
	const query = `SELECT id, name, address FROM schools WHERE id = $1`
	var school types.School
	err := r.db.QueryRowContext(ctx, query, id).Scan(&school.ID, &school.Name, &school.Address)
	if err != nil {
		return types.School{}, notFoundOr(err, sql.ErrNoRows)
	}
	return school, nil
}

func (r *SchoolRepository) Create(ctx context.Context, school types.School) (types.School, error) {
	const query = `
		INSERT INTO schools (name, address)
		VALUES ($1, $2)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, school.Name, school.Address).Scan(&school.ID); err != nil {
		return types.School{}, translate(err)
	}
	return school, nil
}

func (r *SchoolRepository) Update(ctx context.Context, school types.School) (types.School, error) {
	const query = `
		UPDATE schools
		SET name = $1,
			address = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, school.Name, school.Address, school.ID)
	if err != nil {
		return types.School{}, translate(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.School{}, err
	}
	if affected == 0 {
		return types.School{}, ErrNotFound
	}
	return school, nil
}

// Delete removes a school. It fails with ErrReferenced while teachers
// still belong to it.
func (r *SchoolRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM schools WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return translate(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
