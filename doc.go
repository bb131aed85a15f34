// Package edu is the backend of a small course platform: account
// registration with emailed one-time codes, bearer token login, a role
// gate, and an instructor owned course catalog.
//
// Account lifecycle:
//   - Accounts are created INACTIVE by RegisterUserHandler, which mails a
//     TOTP code derived from the shared secret and the email. An account
//     whose code could not be delivered is removed again.
//   - VerifyOTPHandler moves the account to ACTIVE through UserStateMachine.
//     ACTIVE is terminal; verifying twice is a no-op.
//   - Auther issues HS256 tokens carrying the account id and role once the
//     password matches and the account is ACTIVE.
//
// Authorization:
//   - RequireRoles and RequireSelfOrRoles are go-router middleware built on
//     Authorize and AuthorizeSelfOrRole. They read the claims stored by the
//     jwtware middleware, which only verifies tokens.
//   - Unknown emails and wrong passwords get the same 403 answer, also
//     while an account is cooling down.
//
// Activity sinks:
//   - ActivitySink receives registration, status, login, OTP and course
//     events. Sinks are best effort, errors are logged and never fail the
//     request.
package edu
