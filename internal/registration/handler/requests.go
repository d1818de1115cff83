package handler

import (
	"github.com/seecr/gmh-registration-service/internal/registration/service"
	dErrors "github.com/seecr/gmh-registration-service/pkg/domain-errors"
)

// RegisterRequest is the POST /nbn body.
type RegisterRequest struct {
	Identifier string   `json:"identifier"`
	Locations  []string `json:"locations"`
}

// Validate checks that both fields are present. Grammar checks are left to
// the engine so that every write failure carries the same message.
func (r *RegisterRequest) Validate() error {
	if r.Identifier == "" || r.Locations == nil {
		return dErrors.New(dErrors.CodeInvalidInput, service.MessageInvalidWriteInput)
	}
	return nil
}

// UpsertRequest is the PUT /nbn/{identifier} body: the caller's full
// replacement set of location URIs.
type UpsertRequest []string

func (r *UpsertRequest) Validate() error {
	if *r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, service.MessageInvalidWriteInput)
	}
	return nil
}
