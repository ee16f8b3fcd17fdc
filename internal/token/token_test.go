package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Secret: []byte("test-secret-0123456789"),
		TTL:    ttl,
	})
	require.NoError(t, err)
	return svc
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := newTestService(t, time.Hour)

	tok, err := svc.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	userID, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestVerifyTamperedSignature(t *testing.T) {
	svc := newTestService(t, time.Hour)

	tok, err := svc.Issue(42)
	require.NoError(t, err)

	// flip one byte of the signature segment
	tampered := []byte(tok)
	last := len(tampered) - 1
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	_, err = svc.Verify(string(tampered))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpired(t *testing.T) {
	svc := newTestService(t, time.Hour)
	svc.cfg.TTL = -time.Minute

	tok, err := svc.Issue(42)
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformedInput(t *testing.T) {
	svc := newTestService(t, time.Hour)

	for _, tok := range []string{"", "garbage", "a.b.c", strings.Repeat("x", 2048)} {
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := newTestService(t, time.Hour)

	other, err := NewService(Config{Secret: []byte("another-secret-entirely"), TTL: time.Hour})
	require.NoError(t, err)

	tok, err := issuer.Issue(7)
	require.NoError(t, err)

	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService(Config{})
	assert.Error(t, err)
}

func TestDefaultTTLIsThirtyDays(t *testing.T) {
	svc, err := NewService(Config{Secret: []byte("s3cret")})
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, svc.cfg.TTL)
}
