package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/seecr/gmh-registration-service/pkg/domain-errors"
)

func TestParseRegistrantID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseRegistrantID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-numeric and non-positive values", func(t *testing.T) {
		for _, in := range []string{"abc", "0", "-4", "1.5"} {
			_, err := ParseRegistrantID(in)
			require.Error(t, err, in)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), in)
		}
	})

	t.Run("accepts positive integers", func(t *testing.T) {
		id, err := ParseRegistrantID("42")
		require.NoError(t, err)
		assert.Equal(t, RegistrantID(42), id)
		assert.Equal(t, "42", id.String())
	})
}

func TestIdentityOwnsPrefixOf(t *testing.T) {
	identity := &Identity{RegistrantID: 1, Prefix: "urn:nbn:nl:ui:42-"}

	assert.True(t, identity.OwnsPrefixOf("urn:nbn:nl:ui:42-ABC"))
	assert.True(t, identity.OwnsPrefixOf("URN:NBN:NL:UI:42-ABC"))
	assert.False(t, identity.OwnsPrefixOf("urn:nbn:nl:ui:43-ABC"))
	assert.False(t, (&Identity{RegistrantID: 2}).OwnsPrefixOf("urn:nbn:nl:ui:42-ABC"))

	var nilIdentity *Identity
	assert.False(t, nilIdentity.OwnsPrefixOf("urn:nbn:nl:ui:42-ABC"))
}
