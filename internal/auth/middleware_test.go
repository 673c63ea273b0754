package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/repair-service/internal/domain"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

type stubAccounts struct {
	account domain.Account
	err     error
}

func (s stubAccounts) Create(context.Context, domain.Account) error { return nil }

func (s stubAccounts) GetByID(context.Context, string) (domain.Account, error) {
	return s.account, s.err
}

func authenticate(t *testing.T, accounts stubAccounts, subject string, role domain.Role) error {
	t.Helper()
	tokens := NewTokenManager("secret", time.Minute)
	_, signed, err := tokens.GenerateToken(subject, role)
	require.NoError(t, err)

	var got error
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		got = err
		return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
	}})
	app.Get("/", NewAuthMiddleware(tokens, accounts).Handle, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signed)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return got
}

func TestAuthMiddlewareRejectsUnknownSubjects(t *testing.T) {
	cases := map[string]error{
		"no such account": pgx.ErrNoRows,
		"malformed id":    &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"},
	}
	for name, lookupErr := range cases {
		t.Run(name, func(t *testing.T) {
			err := authenticate(t, stubAccounts{err: lookupErr}, "not-a-uuid", domain.RoleClient)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized), "got %v", err)
		})
	}
}

func TestAuthMiddlewareSurfacesStoreFailures(t *testing.T) {
	err := authenticate(t, stubAccounts{err: &pgconn.PgError{Code: "57P01"}}, "c-1", domain.RoleClient)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal), "got %v", err)
}

func TestAuthMiddlewareAcceptsMatchingRole(t *testing.T) {
	client := domain.NewClient(domain.User{FullName: "Cleo", Email: "cleo@example.com", Username: "cleo"})
	client.ID = "c-1"
	assert.NoError(t, authenticate(t, stubAccounts{account: client}, "c-1", domain.RoleClient))

	err := authenticate(t, stubAccounts{account: client}, "c-1", domain.RoleAdmin)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized), "got %v", err)
}
