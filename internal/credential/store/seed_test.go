package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seecr/gmh-registration-service/internal/credential/secrets"
)

func TestSeedBootstrapRegistrant(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	registrant, err := SeedBootstrapRegistrant(ctx, s, Bootstrap{
		GroupID: "dev", Prefix: "urn:nbn:nl:ui:00-", Username: "dev", Password: "dev-password",
	})
	require.NoError(t, err)
	assert.Equal(t, "dev", registrant.GroupID)

	cred, err := s.FindCredentialByUsername(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, registrant.ID, cred.RegistrantID)
	assert.NoError(t, secrets.VerifyPassword("dev-password", cred.PasswordHash))

	_, err = SeedBootstrapRegistrant(ctx, s, Bootstrap{GroupID: "other", Prefix: "urn:nbn:nl:ui:01-", Username: "x"})
	assert.Error(t, err, "empty password")
}
