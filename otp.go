package edu

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultOTPPeriod is the lifetime of a single OTP window
	DefaultOTPPeriod = 1800 * time.Second
	// DefaultOTPDigits is the length of a generated code
	DefaultOTPDigits = 6
	// DefaultOTPLookBack is how many past windows are still accepted
	DefaultOTPLookBack = 1
)

// OTPEngine derives time windowed codes scoped to an email.
// Codes are HMAC-SHA1 TOTP values keyed by the shared secret
// concatenated with the email, so no challenge is ever stored.
type OTPEngine struct {
	period   time.Duration
	digits   int
	lookBack int
	now      func() time.Time
}

// OTPOption customizes an OTPEngine.
type OTPOption func(*OTPEngine)

// WithOTPClock injects a custom clock (useful for tests).
func WithOTPClock(clock func() time.Time) OTPOption {
	return func(e *OTPEngine) {
		if clock != nil {
			e.now = clock
		}
	}
}

// WithOTPPeriod overrides the window length.
func WithOTPPeriod(period time.Duration) OTPOption {
	return func(e *OTPEngine) {
		if period >= time.Second {
			e.period = period
		}
	}
}

// WithOTPDigits overrides the code length.
func WithOTPDigits(digits int) OTPOption {
	return func(e *OTPEngine) {
		if digits >= 6 && digits <= 10 {
			e.digits = digits
		}
	}
}

// WithOTPLookBack sets how many previous windows verification accepts.
func WithOTPLookBack(windows int) OTPOption {
	return func(e *OTPEngine) {
		if windows >= 0 {
			e.lookBack = windows
		}
	}
}

// NewOTPEngine returns an engine with a 1800s window and 6 digits.
func NewOTPEngine(opts ...OTPOption) *OTPEngine {
	e := &OTPEngine{
		period:   DefaultOTPPeriod,
		digits:   DefaultOTPDigits,
		lookBack: DefaultOTPLookBack,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Generate returns the code for the current window.
func (e *OTPEngine) Generate(secret, email string) string {
	return hotpCode(otpKey(secret, email), e.counter(e.now()), e.digits)
}

// Verify reports whether code matches the current window or one of the
// accepted previous windows. It never fails, malformed input is a mismatch.
func (e *OTPEngine) Verify(code, secret, email string) bool {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != e.digits || !isNumericString(trimmed) {
		return false
	}

	key := otpKey(secret, email)
	base := e.counter(e.now())
	for step := int64(0); step <= int64(e.lookBack); step++ {
		counter := base - step
		if counter < 0 {
			break
		}
		generated := hotpCode(key, counter, e.digits)
		if subtle.ConstantTimeCompare([]byte(generated), []byte(trimmed)) == 1 {
			return true
		}
	}
	return false
}

// Period returns the window length.
func (e *OTPEngine) Period() time.Duration {
	return e.period
}

func (e *OTPEngine) counter(t time.Time) int64 {
	return t.Unix() / int64(e.period/time.Second)
}

func otpKey(secret, email string) []byte {
	return []byte(secret + email)
}

func hotpCode(key []byte, counter int64, digits int) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int64(sum[offset])&0x7f)<<24 |
		(int64(sum[offset+1])&0xff)<<16 |
		(int64(sum[offset+2])&0xff)<<8 |
		(int64(sum[offset+3]) & 0xff)

	mod := int64(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod)
}

func isNumericString(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// OTPMessage builds the activation email for a code.
func OTPMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "One-Time Password",
		HTML:    fmt.Sprintf("This is an OTP-CODE to activate your account: <h1>%s</h1>", code),
	}
}
