package main

import (
	"errors"

	"github.com/suPer8Hu/legal-assistant/internal/auth"
	"github.com/suPer8Hu/legal-assistant/internal/common"
)

// explain adds a next step to errors a user can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, auth.ErrNoToken):
		return errors.New("not signed in: run `lexchat login` or set LEGAL_API_TOKEN")
	case errors.Is(err, auth.ErrTokenExpired):
		return errors.New("your session expired: run `lexchat login` again")
	case errors.Is(err, auth.ErrInvalidToken):
		return errors.New("the stored token is not valid: run `lexchat login` again")
	case common.IsUnauthorized(err):
		return errors.New("authentication failed: " + err.Error())
	}
	return err
}
