package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoleNormalizesInput(t *testing.T) {
	role, err := ParseRole(" Mechanic ")
	require.NoError(t, err)
	assert.Equal(t, RoleMechanic, role)

	_, err = ParseRole("owner")
	assert.Error(t, err)
	assert.True(t, RoleAdmin.OneOf(RoleSupplier, RoleAdmin))
	assert.False(t, RoleCustomer.OneOf(RoleSupplier, RoleAdmin))
}

func TestMovementDirectionSign(t *testing.T) {
	assert.Equal(t, 1, MovementIn.Sign())
	assert.Equal(t, -1, MovementOut.Sign())
	_, err := ParseMovementDirection("SIDEWAYS")
	assert.Error(t, err)
}

func TestBudgetStatusTerminal(t *testing.T) {
	assert.False(t, BudgetStatusPending.IsTerminal())
	assert.True(t, BudgetStatusApproved.IsTerminal())
	assert.True(t, BudgetStatusRejected.IsTerminal())
}

func TestServiceOrderStatusCustomerLabels(t *testing.T) {
	assert.Equal(t, "In Maintenance", ServiceOrderStatusInProgress.CustomerLabel())
	assert.Equal(t, "Mechanic is working on the vehicle", ServiceOrderStatusInProgress.CustomerDescription())
	assert.Equal(t, "On Hold - Awaiting Parts", ServiceOrderStatusAwaitingParts.CustomerLabel())
	assert.Equal(t, "Ready for Pickup", ServiceOrderStatusCompleted.CustomerLabel())
	assert.True(t, ServiceOrderStatusCancelled.IsTerminal())
	assert.False(t, ServiceOrderStatusAwaitingParts.IsTerminal())

	for _, status := range validServiceOrderStatuses {
		assert.NotEmpty(t, status.CustomerLabel(), status)
	}
}

func TestLineKinds(t *testing.T) {
	assert.True(t, LineParentBudget.IsValid())
	assert.False(t, LineParentKind("INVOICE").IsValid())
	kind, err := ParseLineContentKind("SERVICE")
	require.NoError(t, err)
	assert.Equal(t, LineContentService, kind)
}
