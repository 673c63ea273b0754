package dto

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/repair-service/internal/domain"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

func TestValidatorReportsFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Struct(ReportFaultRequest{})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Equal(t, "required", apperrors.ToDomainError(err).Details["description"])

	assert.NoError(t, v.Struct(ReportFaultRequest{Description: "fan noise"}))
}

func TestTicketListQuery(t *testing.T) {
	v := NewValidator()

	q := TicketListQuery{Status: "pending, repairing,"}
	require.NoError(t, v.Struct(q))
	assert.Equal(t, []domain.TicketStatus{domain.TicketStatusPending, domain.TicketStatusRepairing}, q.Statuses())

	err := v.Struct(TicketListQuery{Status: "PENDING,ARCHIVED"})
	require.Error(t, err)
	assert.Equal(t, "ticket_statuses", apperrors.ToDomainError(err).Details["status"])

	err = v.Struct(TicketListQuery{PageQuery: PageQuery{PageSize: 500}})
	assert.Equal(t, "max", apperrors.ToDomainError(err).Details["page_size"])

	err = v.Struct(TicketListQuery{PageQuery: PageQuery{Page: math.MaxInt}})
	assert.Equal(t, "max", apperrors.ToDomainError(err).Details["page"])
	require.NoError(t, v.Struct(TicketListQuery{PageQuery: PageQuery{Page: MaxPage, PageSize: 100}}))
}

func TestEquipmentListQuery(t *testing.T) {
	v := NewValidator()

	q := EquipmentListQuery{Status: "broken_down"}
	require.NoError(t, v.Struct(q))
	assert.Equal(t, []domain.EquipmentStatus{domain.EquipmentStatusBrokenDown}, q.Statuses())

	assert.Error(t, v.Struct(EquipmentListQuery{Status: "LOST"}))
}

func TestPageBounds(t *testing.T) {
	limit, offset := PageQuery{}.Bounds()
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset = PageQuery{Page: 3, PageSize: 10}.Bounds()
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)

	_, offset = PageQuery{Page: MaxPage, PageSize: 100}.Bounds()
	assert.Equal(t, (MaxPage-1)*100, offset)
}
