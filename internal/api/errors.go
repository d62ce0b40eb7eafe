package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealwise/backend/internal/audit"
	"github.com/mealwise/backend/internal/identity"
	"github.com/mealwise/backend/internal/llm"
	"github.com/mealwise/backend/internal/service"
	"github.com/mealwise/backend/internal/validation"
)

const (
	errValidationFailed = "Validation failed"
	errGenerationFailed = "Generation failed"
)

// failure is an error mapped to its HTTP response
type failure struct {
	status  int
	outcome audit.Outcome
	body    gin.H
}

// classifyGenerationError maps a plan generation error to a response.
// Upstream messages are passed through verbatim when the service sent one.
func classifyGenerationError(err error) failure {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return failure{
			status:  http.StatusUnprocessableEntity,
			outcome: audit.OutcomeResponseInvalid,
			body:    validationBody(verr),
		}
	}

	if errors.Is(err, service.ErrResponseParse) {
		return generationFailure(audit.OutcomeParseError, service.ErrResponseParse.Error())
	}

	var upstream *llm.UpstreamError
	if errors.As(err, &upstream) {
		return generationFailure(audit.OutcomeUpstreamError, upstream.Message)
	}
	if errors.Is(err, llm.ErrUpstreamFormat) {
		return generationFailure(audit.OutcomeUpstreamError, llm.ErrUpstreamFormat.Error())
	}
	if errors.Is(err, llm.ErrUpstreamTransport) {
		return generationFailure(audit.OutcomeUpstreamError, llm.ErrUpstreamTransport.Error())
	}

	return generationFailure(audit.OutcomeUnknown, "Unknown error")
}

func generationFailure(outcome audit.Outcome, message string) failure {
	return failure{
		status:  http.StatusInternalServerError,
		outcome: outcome,
		body:    gin.H{"error": errGenerationFailed, "message": message},
	}
}

func validationBody(verr *validation.Error) gin.H {
	body := gin.H{"error": errValidationFailed, "issues": verr.Issues}
	if verr.Source == validation.SourceResponse {
		body["source"] = verr.Source
	}
	return body
}

// malformedBody describes a request body that is not valid JSON
func malformedBody() gin.H {
	return gin.H{
		"error": errValidationFailed,
		"issues": []validation.Issue{{
			Code:    "invalid_json",
			Message: "request body must be valid JSON",
		}},
	}
}

// identityFailure maps an identity provider error to a status and body
func identityFailure(err error) (int, gin.H) {
	status, message := identity.Status(err)
	return status, gin.H{"error": message}
}
