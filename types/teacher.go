package types

// Teacher belongs to exactly one school and may teach many students.
type Teacher struct {
	// ID is the unique identifier of the teacher.
	ID int `json:"id" db:"id"`

	// Name is the teacher's full name.
	Name string `json:"name" db:"name"`

	// Subject is the main subject taught.
	Subject *string `json:"subject" db:"subject"`

	// SchoolID references the employing school. A school cannot be
	// deleted while teachers still reference it.
	SchoolID int `json:"school_id" db:"school_id"`

	// Salary is only readable through the admin salary endpoint in
	// intent, but is part of the record.
	Salary *float64 `json:"salary" db:"salary"`

	Email           *string `json:"email" db:"email"`
	Phone           *string `json:"phone" db:"phone"`
	HireDate        *Date   `json:"hire_date" db:"hire_date"`
	YearsExperience *int    `json:"years_experience" db:"years_experience"`
	Qualification   *string `json:"qualification" db:"qualification"`
}

// TeacherPatch carries the fields of a partial teacher update.
type TeacherPatch struct {
	Name            *string  `json:"name"`
	Subject         *string  `json:"subject"`
	SchoolID        *int     `json:"school_id"`
	Salary          *float64 `json:"salary"`
	Email           *string  `json:"email"`
	Phone           *string  `json:"phone"`
	HireDate        *Date    `json:"hire_date"`
	YearsExperience *int     `json:"years_experience"`
	Qualification   *string  `json:"qualification"`
}

// TeacherFilter narrows a teacher search. Nil fields are not applied.
type TeacherFilter struct {
	Qualification   *string
	YearsExperience *int
	Subject         *string
}

// TeacherSalary is the admin-only salary view of a teacher.
type TeacherSalary struct {
	TeacherID int      `json:"teacher_id"`
	Salary    *float64 `json:"salary"`
}

// Fixed choice lists accepted by the teacher search filters.
var (
	QualificationChoices   = []string{"Diploma", "B.Ed", "M.Ed", "B.Sc", "M.Sc", "M.A", "PhD"}
	SubjectChoices         = []string{"Math", "Science", "English", "History", "Geography", "Computer", "Physics", "Chemistry", "Biology", "Economics"}
	YearsExperienceChoices = []int{0, 1, 2, 3, 5, 7, 10, 12, 15, 20, 25, 30}
)
