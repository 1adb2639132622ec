package models

import "time"

type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"firstName"`
	LastName     string    `db:"last_name" json:"lastName"`
	Role         Role      `db:"role" json:"role"`
	FacilityID   *int64    `db:"facility_id" json:"facilityId"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
}

// Public returns a copy of u that is safe to hand to other layers: the
// password hash is dropped.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	if u.FacilityID != nil {
		id := *u.FacilityID
		cp.FacilityID = &id
	}
	return &cp
}

// HasRole reports whether the user's role is one of roles.
func (u *User) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
