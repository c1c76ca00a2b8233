package apiclient_test

import (
	"testing"

	"github.com/jrsteele09/promptstudio/apiclient"
	"github.com/stretchr/testify/require"
)

func TestLoginRequestValidate(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		err := apiclient.LoginRequest{Email: "user@example.com", Password: "password123"}.Validate()
		require.NoError(t, err)
	})

	t.Run("empty email", func(t *testing.T) {
		err := apiclient.LoginRequest{Email: "  ", Password: "password123"}.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "email is required")
	})

	t.Run("invalid email format", func(t *testing.T) {
		for _, email := range []string{"userexample.com", "@example.com", "user@localhost"} {
			err := apiclient.LoginRequest{Email: email, Password: "password123"}.Validate()
			require.Error(t, err, email)
			require.Contains(t, err.Error(), "invalid email format")
		}
	})

	t.Run("empty password", func(t *testing.T) {
		err := apiclient.LoginRequest{Email: "user@example.com"}.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "password is required")
	})
}

func TestRegisterRequestValidate(t *testing.T) {
	err := apiclient.RegisterRequest{Email: "user@example.com", Password: "pw", Username: "user"}.Validate()
	require.NoError(t, err)

	err = apiclient.RegisterRequest{Email: "user@example.com", Password: "pw", Username: " "}.Validate()
	require.EqualError(t, err, "username is required")

	err = apiclient.RegisterRequest{Email: "nope", Password: "pw", Username: "user"}.Validate()
	require.EqualError(t, err, "invalid email format")
}
