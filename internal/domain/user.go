package domain

import "time"

type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Nickname  string    `json:"nickname" db:"nickname"`
	Roles     Roles     `json:"roles" db:"roles"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
