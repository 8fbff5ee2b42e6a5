package jwttoken

import (
	"errors"

	authmw "credo/pkg/platform/middleware/auth"
)

// CallerValidator turns a verified token into the claims the auth middleware
// puts on the request context.
type CallerValidator struct {
	service *JWTService
}

func NewCallerValidator(service *JWTService) *CallerValidator {
	return &CallerValidator{service: service}
}

func (v *CallerValidator) ValidateToken(raw string) (*authmw.CallerClaims, error) {
	claims, err := v.service.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	caller, err := claims.Caller()
	if err != nil {
		return nil, errors.New("invalid token subject")
	}
	return &authmw.CallerClaims{Caller: caller, JTI: claims.ID}, nil
}
