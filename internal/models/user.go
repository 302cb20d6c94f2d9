package models

import "time"

type User struct {
	ID            int        `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	UserType      int        `json:"user_type"`
	Email         string     `json:"email"`
	VerifiedEmail bool       `json:"verified_email"`
	Phone         string     `json:"phone_number"`
	VerifiedPhone bool       `json:"verified_phone_number"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	PasswordHash  string     `json:"-"` // не отдаём наружу
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Address struct {
	ID            int     `json:"id"`
	UserID        int     `json:"user_id"`
	Title         string  `json:"title"`
	PostCode      string  `json:"post_code"`
	State         string  `json:"state"`
	City          string  `json:"city"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	PostalAddress string  `json:"postal_address"`
	IsDefault     bool    `json:"is_default"`
}
