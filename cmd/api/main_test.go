package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/repair-service/internal/auth"
	"github.com/spec-kit/repair-service/internal/domain"
)

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "repair-service dev")
	assert.Contains(t, out, "commit: none")
}

func TestRootCmdListsSubcommands(t *testing.T) {
	out, _, err := run(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"serve", "migrate", "token", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestTokenCmdMintsVerifiableToken(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "cli-secret")

	out, errOut, err := run(t, "token", "--subject", "tech-7", "--role", "technician", "--ttl", "5m")
	require.NoError(t, err)
	assert.Contains(t, errOut, "expires")

	claims, err := auth.NewTokenManager("cli-secret", time.Minute).ParseToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "tech-7", claims.Subject)
	assert.Equal(t, domain.RoleTechnician, claims.Role)
}

func TestTokenCmdRejectsUnknownRole(t *testing.T) {
	_, _, err := run(t, "token", "--subject", "x", "--role", "root")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")

	_, _, err = run(t, "token", "--role", "ADMIN")
	assert.Error(t, err)
}

func TestCommandsRequireDatabase(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	for _, args := range [][]string{{"serve"}, {"migrate", "up"}, {"migrate", "status"}} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, _, err := run(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "POSTGRES_DSN")
		})
	}
}
