package wiki

// Category is purely descriptive; it carries no workflow implications.
type Category struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	MemberCount int    `json:"member_count"`
}

// CategoryList is the cached category listing.
type CategoryList struct {
	Categories []Category `json:"categories"`
}
