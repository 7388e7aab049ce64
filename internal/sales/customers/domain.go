package customers

import (
	"errors"
	"time"
)

// Customer is a won account managed by one seller.
type Customer struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Company        string    `json:"company,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	LeadID         *string   `json:"lead_id,omitempty"`
	AccountManager string    `json:"account_manager"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates the customer is absent.
	ErrNotFound = errors.New("customers: not found")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("customers: invalid input")
	// ErrInvalidState occurs when converting a lead that has not been won.
	ErrInvalidState = errors.New("customers: lead not closed won")
	// ErrForbidden indicates the caller does not manage the account.
	ErrForbidden = errors.New("customers: forbidden")
	// ErrAlreadyConverted indicates the lead already has a customer.
	ErrAlreadyConverted = errors.New("customers: lead already converted")
)
