// Package models contains the persistent row types shared by repositories
// and services.
package models

// User is an account that owns contacts. Username and Email are unique.
// RefreshToken and Avatar are nullable columns; Confirmed starts false and
// flips once after email confirmation.
type User struct {
	ID           int64
	Username     string
	Email        string
	Password     string
	RefreshToken *string
	Confirmed    bool
	Avatar       *string
}
