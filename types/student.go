package types

// Student is a learner who may be taught by many teachers and owns
// uploaded documents.
type Student struct {
	ID             int     `json:"id" db:"id"`
	Name           string  `json:"name" db:"name"`
	Grade          *string `json:"grade" db:"grade"`
	Email          *string `json:"email" db:"email"`
	Phone          *string `json:"phone" db:"phone"`
	DateOfBirth    *Date   `json:"date_of_birth" db:"date_of_birth"`
	EnrollmentDate *Date   `json:"enrollment_date" db:"enrollment_date"`
	Address        *string `json:"address" db:"address"`
}

// StudentPatch carries the fields of a partial student update.
type StudentPatch struct {
	Name           *string `json:"name"`
	Grade          *string `json:"grade"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	DateOfBirth    *Date   `json:"date_of_birth"`
	EnrollmentDate *Date   `json:"enrollment_date"`
	Address        *string `json:"address"`
}

// StudentFilter narrows a student search. Nil fields are not applied.
type StudentFilter struct {
	Grade     *string
	Name      *string
	TeacherID *int
}

// Grades lists the accepted student grades.
var Grades = []string{"A", "B", "C", "D"}
