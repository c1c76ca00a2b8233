package apiclient

import (
	"fmt"
	"strings"
)

// Validate checks the login form before it is sent. Password rules are the
// backend's business; only presence is checked here.
func (r LoginRequest) Validate() error {
	return validateCredentials(r.Email, r.Password)
}

// Validate checks the registration form before it is sent.
func (r RegisterRequest) Validate() error {
	if err := validateCredentials(r.Email, r.Password); err != nil {
		return err
	}
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("username is required")
	}
	return nil
}

func validateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}

	// Basic email format validation
	at := strings.LastIndex(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return fmt.Errorf("invalid email format")
	}

	if password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}
