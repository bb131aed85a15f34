package edu

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// ErrorBody is the JSON shape of a failed request
type ErrorBody struct {
	Message  string         `json:"message"`
	TextCode string         `json:"text_code,omitempty"`
	Category string         `json:"category,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ErrorResponse wraps ErrorBody
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewErrorHandler renders rich errors as JSON with their HTTP code.
// Anything else becomes a 500 with a generic message.
func NewErrorHandler(logger Logger) router.ErrorHandler {
	if logger == nil {
		logger = defLogger{name: "edu.http"}
	}

	return func(ctx router.Context, err error) error {
		var richErr *errors.Error
		if !errors.As(err, &richErr) {
			logger.Error("unhandled error on %s %s: %v", ctx.Method(), ctx.Path(), err)
			richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
				WithCode(errors.CodeInternal)
		}

		status := richErr.Code
		if status < 400 || status > 599 {
			status = http.StatusInternalServerError
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request error %v: %s details=%s", richErr.Category, richErr.Message, print.MaybePrettyJSON(richErr.Metadata))
		} else {
			logger.Debug("request rejected %v: %s details=%s", richErr.Category, richErr.Message, print.MaybePrettyJSON(richErr.Metadata))
		}

		body := ErrorBody{
			Message:  richErr.Message,
			TextCode: richErr.TextCode,
			Category: fmt.Sprint(richErr.Category),
		}
		if status < http.StatusInternalServerError {
			body.Metadata = richErr.Metadata
		} else {
			body.Message = "An unexpected server error occurred"
		}

		return ctx.JSON(status, ErrorResponse{Error: body})
	}
}

// parseBody decodes the JSON body, reporting malformed input as a
// validation error.
func parseBody(ctx router.Context, out any) error {
	if err := ctx.Bind(out); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "malformed request body").
			WithTextCode(TextCodeValidation).
			WithCode(errors.CodeBadRequest)
	}
	return nil
}
