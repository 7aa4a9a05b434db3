package model

import "time"

// User is an account owning connections and messages.
type User struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string
	HashedPassword string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserPatch carries the optional fields of a partial user update.
// Password is plaintext; the application layer hashes it.
type UserPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
}

// UserSortField is a column users can be ordered by.
type UserSortField string

const (
	UserSortCreatedAt UserSortField = "created_at"
	UserSortEmail     UserSortField = "email"
	UserSortFirstName UserSortField = "first_name"
	UserSortLastName  UserSortField = "last_name"
)

// UserFilter describes a filtered, sorted and paginated user listing.
type UserFilter struct {
	Skip          int
	Limit         int
	Search        string
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	SortBy        UserSortField
	Descending    bool
}
