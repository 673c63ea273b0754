package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextTicketStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    TicketStatus
		event   TicketEvent
		want    TicketStatus
		wantErr bool
	}{
		{"assign pending", TicketStatusPending, EventAssign, TicketStatusProcessing, false},
		{"reassign processing", TicketStatusProcessing, EventAssign, "", true},
		{"start from pending", TicketStatusPending, EventStartRepair, "", true},
		{"start processing", TicketStatusProcessing, EventStartRepair, TicketStatusRepairing, false},
		{"start repairing again", TicketStatusRepairing, EventStartRepair, TicketStatusRepairing, false},
		{"complete pending", TicketStatusPending, EventCompleteRepair, "", true},
		{"complete processing", TicketStatusProcessing, EventCompleteRepair, TicketStatusRepaired, false},
		{"complete repairing", TicketStatusRepairing, EventCompleteRepair, TicketStatusRepaired, false},
		{"fail repairing", TicketStatusRepairing, EventFailRepair, TicketStatusFailed, false},
		{"fail processing", TicketStatusProcessing, EventFailRepair, TicketStatusFailed, false},
		{"complete repaired", TicketStatusRepaired, EventCompleteRepair, "", true},
		{"fail failed", TicketStatusFailed, EventFailRepair, "", true},
		{"start repaired", TicketStatusRepaired, EventStartRepair, "", true},
		{"unknown status", TicketStatus("ARCHIVED"), EventAssign, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextTicketStatus(tt.from, tt.event)
			if tt.wantErr {
				var terr *TransitionError
				require.True(t, errors.As(err, &terr))
				assert.Equal(t, tt.from, terr.From)
				assert.Equal(t, tt.event, terr.Event)
				assert.Equal(t, tt.from, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerminalStatusesAcceptNoEvents(t *testing.T) {
	events := []TicketEvent{EventAssign, EventStartRepair, EventCompleteRepair, EventFailRepair}
	for _, status := range []TicketStatus{TicketStatusRepaired, TicketStatusFailed} {
		assert.True(t, status.Terminal())
		for _, ev := range events {
			_, err := NextTicketStatus(status, ev)
			assert.Error(t, err, "%s should reject %s", status, ev)
		}
	}
}

func TestEquipmentStatusAfter(t *testing.T) {
	s, ok := EquipmentStatusAfter(TicketStatusRepaired)
	assert.True(t, ok)
	assert.Equal(t, EquipmentStatusInService, s)

	s, ok = EquipmentStatusAfter(TicketStatusFailed)
	assert.True(t, ok)
	assert.Equal(t, EquipmentStatusOutOfService, s)

	_, ok = EquipmentStatusAfter(TicketStatusRepairing)
	assert.False(t, ok)
}

func TestAccountVariantsCarryRole(t *testing.T) {
	accounts := []Account{
		NewAdmin(User{ID: "a"}),
		NewClient(User{ID: "c"}),
		NewTechnician(User{ID: "t"}),
	}
	want := []Role{RoleAdmin, RoleClient, RoleTechnician}
	for i, acc := range accounts {
		assert.Equal(t, want[i], acc.Base().Role)
	}

	tech := accounts[2].(*Technician)
	assert.True(t, tech.Available)
	assert.Nil(t, tech.CurrentTicketID)
}
