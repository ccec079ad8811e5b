package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles a user can hold.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is the model for the 'users' table.
type User struct {
	ID           int64   `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	Email        string  `json:"email" db:"email"`
	PasswordHash string  `json:"-" db:"password_hash"`
	Role         string  `json:"role" db:"role"`
	Phone        *string `json:"phone,omitempty" db:"phone"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Populated manually when the profile is fetched.
	Addresses []Address `json:"addresses,omitempty" db:"-"`
}

// Address is the model for the 'user_addresses' table. The same shape
// is snapshotted into orders as the shipping address.
type Address struct {
	ID         int64      `json:"id,omitempty" db:"id"`
	Street     string     `json:"street" db:"street" binding:"required"`
	City       string     `json:"city" db:"city" binding:"required"`
	State      string     `json:"state,omitempty" db:"state"`
	PostalCode string     `json:"postalCode,omitempty" db:"postal_code"`
	Country    string     `json:"country,omitempty" db:"country"`
	Phone      string     `json:"phone,omitempty" db:"phone"`
	CreatedAt  *time.Time `json:"createdAt,omitempty" db:"created_at"`
}

// Password Helper (Standard)
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
