package wiki

// Actor is a user of the wiki. Role flags drive direct-apply permission.
type Actor struct {
	ID          string `json:"id" db:"id"`
	Username    string `json:"username" db:"username"`
	DisplayName string `json:"display_name" db:"display_name"`
	IsAdmin     bool   `json:"is_admin" db:"is_admin"`
	IsModerator bool   `json:"is_moderator" db:"is_moderator"`
	Bio         string `json:"bio" db:"bio"`
	EditCount   int    `json:"edit_count" db:"edit_count"`
}

// Privileged reports whether the actor holds a moderation role.
func (a *Actor) Privileged() bool {
	return a.IsAdmin || a.IsModerator
}
