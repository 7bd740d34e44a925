// Package models contains the server-side row types owned by the Parley
// schema. Fields map 1:1 to columns; repositories do the scanning.
package models

import "time"

type User struct {
	ID           string
	Login        string
	PasswordHash []byte
	CreatedAt    time.Time
}
