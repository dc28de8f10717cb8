package domain

// Priority is a small reference table ordered for display.
type Priority struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	SortOrder int    `db:"sort_order"`
	IsActive  bool   `db:"is_active"`
}

// Category is a small reference table; tickets carry a many-to-many
// association with categories.
type Category struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	IsActive bool   `db:"is_active"`
}
