package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-service/internal/api/dto"
	"github.com/spec-kit/repair-service/internal/auth"
	"github.com/spec-kit/repair-service/internal/domain"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

func parseBody(c *fiber.Ctx, v *dto.Validator, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return v.Struct(out)
}

func parseQuery(c *fiber.Ctx, v *dto.Validator, out interface{}) error {
	if err := c.QueryParser(out); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	return v.Struct(out)
}

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}

// ensureTechnicianOwns rejects a technician acting on a ticket assigned to
// someone else. Admins may act on any ticket.
func ensureTechnicianOwns(p *auth.Principal, ticket *domain.Ticket) error {
	if p.Role == domain.RoleAdmin {
		return nil
	}
	if ticket.TechnicianID == nil || *ticket.TechnicianID != p.ID {
		return apperrors.NewForbidden("ticket is assigned to another technician")
	}
	return nil
}

// ensureParticipant lets the ticket's client and technician through.
// Admins may read any ticket.
func ensureParticipant(p *auth.Principal, ticket *domain.Ticket) error {
	switch p.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleClient:
		if ticket.ClientID == p.ID {
			return nil
		}
	case domain.RoleTechnician:
		if ticket.TechnicianID != nil && *ticket.TechnicianID == p.ID {
			return nil
		}
	}
	return apperrors.NewForbidden("ticket belongs to another account")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func data(v interface{}) fiber.Map {
	return fiber.Map{"data": v}
}
