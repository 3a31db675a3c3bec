package types

// School employs teachers. Names are unique.
type School struct {
	ID      int     `json:"id" db:"id"`
	Name    string  `json:"name" db:"name"`
	Address *string `json:"address" db:"address"`
}

// SchoolPatch carries the fields of a partial school update.
// Nil fields are left unchanged.
type SchoolPatch struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}
