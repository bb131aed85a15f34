package edu_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	edu "github.com/goliatone/go-edu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestIdentity struct {
	id    string
	email string
	name  string
	role  string
}

func (t TestIdentity) ID() string    { return t.id }
func (t TestIdentity) Email() string { return t.email }
func (t TestIdentity) Name() string  { return t.name }
func (t TestIdentity) Role() string  { return t.role }

var studentIdentity = TestIdentity{
	id:    "6f1d2a4e-2f0b-4d7c-9a39-0d7e2c7b1a11",
	email: "a@x.com",
	name:  "Alice",
	role:  "student",
}

func TestTokenService_GenerateAndValidate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ts := edu.NewTokenService([]byte("test-secret"), 2, "edu", jwt.ClaimStrings{"edu-api"},
		edu.WithTokenClock(fixedClock(now)),
	)

	token, err := ts.Generate(studentIdentity)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := ts.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, studentIdentity.id, claims.UserID())
	assert.Equal(t, studentIdentity.id, claims.Subject())
	assert.Equal(t, "student", claims.Role())
	assert.True(t, claims.HasRole("student"))
	assert.False(t, claims.HasRole("instructor"))
	assert.Equal(t, now.Add(2*time.Hour), claims.Expires().UTC())
	assert.Equal(t, now, claims.IssuedAt().UTC())
}

func TestTokenService_MissingSigningKey(t *testing.T) {
	ts := edu.NewTokenService(nil, 1, "", nil)

	token, err := ts.Generate(studentIdentity)
	assert.Empty(t, token)
	assert.ErrorIs(t, err, edu.ErrSigning)
}

func TestTokenService_RejectsTamperedToken(t *testing.T) {
	ts := edu.NewTokenService([]byte("test-secret"), 1, "", nil)

	token, err := ts.Generate(studentIdentity)
	require.NoError(t, err)

	// swap the payload for one claiming the instructor role
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &edu.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   studentIdentity.id,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UID:      studentIdentity.id,
		UserRole: "instructor",
	})
	forgedString, err := forged.SignedString([]byte("another-secret"))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forgedParts := strings.Split(forgedString, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	t.Run("payload swapped", func(t *testing.T) {
		_, err := ts.Validate(tampered)
		assert.True(t, edu.HasTextCode(err, edu.TextCodeInvalidToken))
	})

	t.Run("signed with a foreign key", func(t *testing.T) {
		_, err := ts.Validate(forgedString)
		assert.True(t, edu.HasTextCode(err, edu.TextCodeInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ts.Validate("not.a.token")
		assert.True(t, edu.HasTextCode(err, edu.TextCodeInvalidToken))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ts.Validate("")
		assert.ErrorIs(t, err, edu.ErrInvalidToken)
	})
}

func TestTokenService_RejectsUnsignedAlgorithm(t *testing.T) {
	ts := edu.NewTokenService([]byte("test-secret"), 1, "", nil)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &edu.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UID:      studentIdentity.id,
		UserRole: "instructor",
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ts.Validate(unsigned)
	assert.True(t, edu.HasTextCode(err, edu.TextCodeInvalidToken))
}

func TestTokenService_Expired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	ts := edu.NewTokenService([]byte("test-secret"), 1, "", nil,
		edu.WithTokenClock(func() time.Time { return clock }),
	)

	token, err := ts.Generate(studentIdentity)
	require.NoError(t, err)

	clock = now.Add(2 * time.Hour)
	_, err = ts.Validate(token)
	assert.ErrorIs(t, err, edu.ErrTokenExpired)
}

func TestTokenService_IssuerAndAudience(t *testing.T) {
	issuer := edu.NewTokenService([]byte("test-secret"), 1, "other", jwt.ClaimStrings{"other-api"})
	token, err := issuer.Generate(studentIdentity)
	require.NoError(t, err)

	verifier := edu.NewTokenService([]byte("test-secret"), 1, "edu", jwt.ClaimStrings{"edu-api"})
	_, err = verifier.Validate(token)
	assert.True(t, edu.HasTextCode(err, edu.TextCodeInvalidToken))
}
