package handler

import "github.com/seecr/gmh-registration-service/internal/registration/models"

// Plain-text bodies for successful writes.
const (
	MessageCreated = "Successful operation (created new)"
	MessageUpdated = "OK (updated existing)"
)

// ResolutionResponse is the GET /nbn/{identifier} body.
type ResolutionResponse struct {
	Identifier string   `json:"identifier"`
	Locations  []string `json:"locations"`
}

func toResolutionResponse(res *models.Resolution) *ResolutionResponse {
	return &ResolutionResponse{
		Identifier: res.Identifier,
		Locations:  res.URIs(),
	}
}
