package edu

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeValidation          = "VALIDATION_ERROR"
	TextCodeInvalidRole         = "INVALID_ROLE"
	TextCodeDuplicateEmail      = "DUPLICATE_EMAIL"
	TextCodeUnknownEmail        = "UNKNOWN_EMAIL"
	TextCodeInvalidOTP          = "INVALID_OTP"
	TextCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	TextCodeAccountNotActivated = "ACCOUNT_NOT_ACTIVATED"
	TextCodeTooManyAttempts     = "TOO_MANY_ATTEMPTS"
	TextCodeForbidden           = "FORBIDDEN"
	TextCodeSigning             = "SIGNING_ERROR"
	TextCodeInvalidToken        = "INVALID_TOKEN"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeDownstream          = "DOWNSTREAM_FAILURE"
	TextCodeUserNotFound        = "USER_NOT_FOUND"
	TextCodeCourseNotFound      = "COURSE_NOT_FOUND"
	TextCodeAlreadyActivated    = "ACCOUNT_ALREADY_ACTIVATED"
)

// ErrInvalidRole is returned when registering with a role outside the closed set.
var ErrInvalidRole = goerrors.New("you must select only one of these roles: [instructor, student]", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidRole).
	WithCode(goerrors.CodeForbidden)

// ErrDuplicateEmail is returned when the email is already registered.
var ErrDuplicateEmail = goerrors.New("this email address is already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeForbidden)

// ErrUnknownEmail is returned by OTP verification when no account matches.
// The status mirrors the public API contract clients already depend on.
var ErrUnknownEmail = goerrors.New("wrong email address", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUnknownEmail).
	WithCode(http.StatusMethodNotAllowed)

// ErrInvalidOTP is returned when the presented code does not match.
var ErrInvalidOTP = goerrors.New("wrong OTP code", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidOTP).
	WithCode(goerrors.CodeForbidden)

// ErrInvalidCredentials covers both unknown email and wrong password.
var ErrInvalidCredentials = goerrors.New("email address or password wrong", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeForbidden)

// ErrAccountNotActivated is returned on login before OTP verification.
var ErrAccountNotActivated = goerrors.New("you should activate your account", goerrors.CategoryAuthz).
	WithTextCode(TextCodeAccountNotActivated).
	WithCode(goerrors.CodeUnauthorized)

// ErrTooManyAttempts is returned when an OTP attempt limiter rejects a request.
var ErrTooManyAttempts = goerrors.New("too many attempts, try again later", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(http.StatusTooManyRequests)

// ErrForbidden is returned by the role gate.
var ErrForbidden = goerrors.New("not allowed", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrSigning is returned when a token cannot be signed.
var ErrSigning = goerrors.New("failed to sign token", goerrors.CategoryInternal).
	WithTextCode(TextCodeSigning).
	WithCode(goerrors.CodeInternal)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = goerrors.New("invalid or malformed token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their expiration.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserNotFound is returned when an account referenced by a token is gone.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrCourseNotFound is returned when a course id does not resolve.
var ErrCourseNotFound = goerrors.New("course not found with this ID", goerrors.CategoryNotFound).
	WithTextCode(TextCodeCourseNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password can not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the internal result of a failed password
// comparison. It is reported to clients as ErrInvalidCredentials.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeForbidden)

// NewValidationError wraps an ozzo validation result.
func NewValidationError(err error) error {
	if err == nil {
		return nil
	}
	return validationError(err)
}

// NewLoginRejection reports a malformed login payload. Login answers
// these with 403 like any other rejected credential.
func NewLoginRejection(err error) error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return validationError(err).WithCode(goerrors.CodeForbidden)
	}
	rejected := *richErr
	rejected.Code = goerrors.CodeForbidden
	return &rejected
}

func validationError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid request payload").
		WithTextCode(TextCodeValidation).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{
			"fields": FormatValidationErrorToMap(err),
		})
}

// NewDownstreamError wraps a failure of the store or the mailer.
func NewDownstreamError(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, msg).
		WithTextCode(TextCodeDownstream).
		WithCode(http.StatusBadGateway)
}

// FormatValidationErrorToMap flattens ozzo errors into field → message.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	verrs, ok := err.(validation.Errors)
	if !ok {
		if err != nil {
			out["_"] = err.Error()
		}
		return out
	}
	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}
	return out
}

// HasTextCode reports whether err is a rich error carrying the text code.
func HasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// ErrMalformedID is returned when a path id is not a UUID.
var ErrMalformedID = goerrors.New("malformed resource id", goerrors.CategoryBadInput).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrAlreadyActivated is returned when a new code is requested for an
// account that is already ACTIVE.
var ErrAlreadyActivated = goerrors.New("your account is already activated", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyActivated).
	WithCode(goerrors.CodeConflict)
