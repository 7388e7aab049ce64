// Package users is the directory of people: accounts, roles, reporting
// lines and team membership. Other departments consult it to resolve who
// reports to whom; they never mutate it.
package users

import "time"

// User represents a directory entry.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Position    string     `json:"position,omitempty"`
	Department  string     `json:"department,omitempty"`
	Role        string     `json:"role"`
	ManagerID   *string    `json:"manager_id,omitempty"`
	JoiningDate *time.Time `json:"joining_date,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Team groups users under a lead.
type Team struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Department string    `json:"department,omitempty"`
	LeadID     string    `json:"lead_id"`
	MemberIDs  []string  `json:"member_ids"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
