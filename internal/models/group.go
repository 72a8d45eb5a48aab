package models

// Group represents a named collection of members with one designated creator.
//
// The creator is always a member, so Members is never empty while the group exists.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// CreatedBy is the user ID of the group creator.
	CreatedBy string

	// Members is the list of member user IDs in insertion order.
	// Order only affects display and settlement tie-breaking.
	Members []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether userID is currently a member of the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
