package auth

import "fmt"

// Credentials is a username and one-time token for a single authentication attempt.
type Credentials struct {
	Username string
	Password []byte
}

func NewCredentials(username, password string) Credentials {
	return Credentials{
		Username: username,
		Password: []byte(password),
	}
}

// String never includes the password
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Username=%q}", c.Username)
}
