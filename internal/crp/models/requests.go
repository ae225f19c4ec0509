package models

import (
	"fmt"

	dErrors "crpstore/pkg/domain-errors"
	"crpstore/pkg/validation"
)

// EnrolRequest is the body of POST /enrol.
type EnrolRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
	CRPs Pairs  `json:"crps"`
}

// AuthenticateRequest is the body of POST /authenticate.
type AuthenticateRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
	CRPs Pairs  `json:"crps"`
}

func (r *EnrolRequest) Validate() error {
	return validateChallengeSet(r, r.CRPs)
}

func (r *AuthenticateRequest) Validate() error {
	return validateChallengeSet(r, r.CRPs)
}

func validateChallengeSet(req any, pairs Pairs) error {
	if err := validation.Validate(req); err != nil {
		return err
	}
	if dup, ok := pairs.Duplicate(); ok {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("crps: duplicate challenge %q", dup))
	}
	return nil
}
