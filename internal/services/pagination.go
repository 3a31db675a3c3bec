package services

const (
	DefaultPage    = 1
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page is a normalised 1-based page request.
type Page struct {
	Number  int
	PerPage int
}

// NewPage normalises out-of-range values to the defaults and caps PerPage.
func NewPage(number, perPage int) Page {
	if number < 1 {
		number = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Page{Number: number, PerPage: perPage}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}
