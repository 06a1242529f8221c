package models

// Principal is the authenticated identity resolved from a request's bearer token.
// Principals resolved from a mock token reliably carry only ID.
type Principal struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	UserType string `json:"user_type,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// Credential is a development credential record in the local store.
// Passwords are stored and compared in plaintext; this path never touches
// real accounts.
type Credential struct {
	ID       string
	Email    string
	Password string
	FullName string
	UserType string
	Phone    string
	Address  string
}

// Profile holds the extended user data kept alongside the auth account.
type Profile struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	UserType  string `json:"user_type"`
	UpdatedAt string `json:"updated_at,omitempty"`
}
