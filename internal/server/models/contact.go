package models

import "time"

// Contact is a directory entry owned by exactly one user. Email and Phone
// are globally unique; Phone and Birthday are optional. UserID is nullable
// in the schema only to tolerate legacy rows, new contacts always set it.
type Contact struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	Birthday  *time.Time
	UserID    *int64
}
