package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetIDPrefersExplicitInstance(t *testing.T) {
	t.Setenv(EnvInstanceID, "api-7")
	t.Setenv("DYNO", "web.1")
	require.Equal(t, "api-7", GetID())
}

func TestGetIDFallsBackToDyno(t *testing.T) {
	t.Setenv(EnvInstanceID, "")
	t.Setenv("DYNO", "web.2")
	require.Equal(t, "web.2", GetID())
}

func TestGetIDNeverEmpty(t *testing.T) {
	t.Setenv(EnvInstanceID, "")
	t.Setenv("DYNO", "")
	require.NotEmpty(t, GetID())
}
