package pasetotoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, keys Keys) *Manager {
	t.Helper()
	m, err := New(Config{Mode: keys.Mode, Issuer: "medicenter", Audience: "medicenter-api"}, keys)
	require.NoError(t, err)
	return m
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	for name, keys := range map[string]Keys{"local": NewLocalKeys(), "public": NewPublicKeys()} {
		t.Run(name, func(t *testing.T) {
			m := newManager(t, keys)
			uid, sid := uuid.New(), uuid.New()

			tok, err := m.IssueAccess(uid, &sid)
			require.NoError(t, err)

			claims, err := m.Verify(tok)
			require.NoError(t, err)
			assert.Equal(t, uid, claims.GetUserID())
			require.NotNil(t, claims.GetSessionID())
			assert.Equal(t, sid, *claims.GetSessionID())
			assert.Equal(t, string(TokenTypeAccess), claims.GetTokenType())
			assert.False(t, claims.IsExpired())
		})
	}
}

func TestVerifyRejects(t *testing.T) {
	keys := NewLocalKeys()
	m := newManager(t, keys)
	uid := uuid.New()

	t.Run("expired", func(t *testing.T) {
		tok, err := m.Issue(uid, nil, time.Minute)
		require.NoError(t, err)

		later := *m
		later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		_, err = later.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other audience", func(t *testing.T) {
		other, err := New(Config{Mode: ModeLocal, Issuer: "medicenter", Audience: "someone-else"}, keys)
		require.NoError(t, err)
		tok, err := other.IssueAccess(uid, nil)
		require.NoError(t, err)

		_, err = m.Verify(tok)
		assert.Error(t, err)
	})

	t.Run("different key", func(t *testing.T) {
		tok, err := newManager(t, NewLocalKeys()).IssueAccess(uid, nil)
		require.NoError(t, err)
		_, err = m.Verify(tok)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Verify("v4.local.not-a-token")
		assert.Error(t, err)
	})
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Mode: ModePublic, Issuer: "i", Audience: "a"}, NewLocalKeys())
	assert.Error(t, err)

	_, err = New(Config{Mode: ModeLocal, Audience: "a"}, NewLocalKeys())
	assert.Error(t, err)

}

func TestLoadKeys(t *testing.T) {
	pair := NewPublicKeys()
	other := NewPublicKeys()
	local := NewLocalKeys()

	tests := []struct {
		name  string
		in    KeyStrings
		field string
	}{
		{"local", KeyStrings{Mode: ModeLocal, SymmetricHex: local.Symmetric.ExportHex()}, ""},
		{"local missing", KeyStrings{Mode: ModeLocal}, "local_key_hex"},
		{"local garbage", KeyStrings{Mode: ModeLocal, SymmetricHex: "zz"}, "local_key_hex"},
		{"secret only", KeyStrings{Mode: ModePublic, SecretHex: pair.Secret.ExportHex()}, ""},
		{"public only", KeyStrings{Mode: ModePublic, PublicHex: pair.Public.ExportHex()}, ""},
		{"matching pair", KeyStrings{Mode: ModePublic, SecretHex: pair.Secret.ExportHex(), PublicHex: pair.Public.ExportHex()}, ""},
		{"mismatched pair", KeyStrings{Mode: ModePublic, SecretHex: pair.Secret.ExportHex(), PublicHex: other.Public.ExportHex()}, "public_key_hex"},
		{"public missing", KeyStrings{Mode: ModePublic}, "secret_key_hex"},
		{"unknown mode", KeyStrings{Mode: "jwt"}, "mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := LoadKeys(tt.in)
			if tt.field == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.in.Mode, keys.Mode)
				return
			}
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Contains(t, err.Error(), "authentication.paseto."+tt.field)
		})
	}
}

func TestIssueRequiresUser(t *testing.T) {
	_, err := newManager(t, NewLocalKeys()).IssueAccess(uuid.Nil, nil)
	assert.Error(t, err)
}
