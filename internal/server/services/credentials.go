package services

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// validateRegistration enforces the account rules: a username of at least
// MinUsernameLength characters and a password of at least MinPasswordLength
// characters with at least one digit and one upper-case letter.
func validateRegistration(username, password string) error {
	var problems []string

	if utf8.RuneCountInString(username) < MinUsernameLength {
		problems = append(problems, fmt.Sprintf("username must be at least %d characters", MinUsernameLength))
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		problems = append(problems, "password must contain a digit")
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		problems = append(problems, "password must contain an upper-case letter")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrorValidation, strings.Join(problems, "; "))
	}
	return nil
}

func validateLogin(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}
	return nil
}
