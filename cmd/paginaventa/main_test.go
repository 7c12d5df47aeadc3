package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valenante/paginaVenta-sub002/internal/auth"
)

const testSecret = "cli-test-secret-at-least-32-characters"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := rootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestOperatorTokenCommand(t *testing.T) {
	t.Setenv("PV_SESSION_SECRET", testSecret)

	t.Run("default ttl", func(t *testing.T) {
		out, err := execute(t, "operator-token", "ventas@paginaventa.es")
		require.NoError(t, err)

		claims, err := auth.ValidateOperatorToken(testSecret, strings.TrimSpace(out))
		require.NoError(t, err)
		assert.Equal(t, "ventas@paginaventa.es", claims.Subject)
		assert.WithinDuration(t, time.Now().Add(defaultOperatorTokenTTL), claims.ExpiresAt.Time, time.Minute)
	})

	t.Run("explicit ttl", func(t *testing.T) {
		out, err := execute(t, "operator-token", "ops", "30m")
		require.NoError(t, err)

		claims, err := auth.ValidateOperatorToken(testSecret, strings.TrimSpace(out))
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, time.Minute)
	})

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing subject", args: []string{"operator-token"}, wantErr: "accepts between 1 and 2 arg(s)"},
		{name: "too many args", args: []string{"operator-token", "ops", "1h", "extra"}, wantErr: "accepts between 1 and 2 arg(s)"},
		{name: "blank subject", args: []string{"operator-token", "  "}, wantErr: "subject must not be empty"},
		{name: "bad ttl", args: []string{"operator-token", "ops", "forever"}, wantErr: `invalid ttl "forever"`},
		{name: "zero ttl", args: []string{"operator-token", "ops", "0s"}, wantErr: "invalid ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOperatorTokenCommand_WeakSecret(t *testing.T) {
	t.Setenv("PV_SESSION_SECRET", "short")

	_, err := execute(t, "operator-token", "ops")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PV_SESSION_SECRET")
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "serve-everything")
	require.Error(t, err)
}
