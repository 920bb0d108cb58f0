package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionStatusTransitions(t *testing.T) {
	testCases := []struct {
		from ProductionStatus
		to   ProductionStatus
		ok   bool
	}{
		{ProductionPlanned, ProductionInProgress, true},
		{ProductionInProgress, ProductionCompleted, true},
		{ProductionCompleted, ProductionInspected, true},
		{ProductionPlanned, ProductionCompleted, false},
		{ProductionPlanned, ProductionInspected, false},
		{ProductionInProgress, ProductionPlanned, false},
		{ProductionInspected, ProductionPlanned, false},
		{ProductionPlanned, ProductionPlanned, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to))
		})
	}

	_, ok := ProductionInspected.Next()
	assert.False(t, ok, "inspected is terminal")
}

func TestProductionStatusActive(t *testing.T) {
	assert.True(t, ProductionPlanned.Active())
	assert.True(t, ProductionInProgress.Active())
	assert.False(t, ProductionCompleted.Active())
	assert.False(t, ProductionInspected.Active())
}

func TestOrderStatusTransitions(t *testing.T) {
	status := OrderPredicted
	walked := []OrderStatus{status}
	for {
		next, ok := status.Next()
		if !ok {
			break
		}
		assert.True(t, status.CanTransitionTo(next))
		status = next
		walked = append(walked, status)
	}

	assert.Equal(t, []OrderStatus{
		OrderPredicted, OrderConfirmed, OrderApproved, OrderInProduction, OrderShipped, OrderDelivered,
	}, walked)
	assert.False(t, OrderConfirmed.CanTransitionTo(OrderShipped))
	assert.False(t, OrderShipped.CanTransitionTo(OrderApproved))
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseProductionStatus(" In_Progress ")
	assert.True(t, ok)
	assert.Equal(t, ProductionInProgress, s)

	_, ok = ParseProductionStatus("cancelled")
	assert.False(t, ok)

	o, ok := ParseOrderStatus("APPROVED")
	assert.True(t, ok)
	assert.Equal(t, OrderApproved, o)
}

func TestOrderQuantity(t *testing.T) {
	assert.Equal(t, int64(100), Order{PredictedQuantity: 100}.Quantity())
	assert.Equal(t, int64(120), Order{PredictedQuantity: 100, ConfirmedQuantity: 120}.Quantity())
}

func TestRequirementsFilterApply(t *testing.T) {
	report := &RequirementsReport{
		Requirements: []MaterialRequirement{
			{Material: Material{Code: "A"}, Shortage: 5, OrderNeeded: true},
			{Material: Material{Code: "B"}},
			{Material: Material{Code: "C"}, Shortage: 1, OrderNeeded: true},
		},
		Issues: []DataIssue{{ProductionID: "P", Reason: IssueBOMNotFound}},
	}

	assert.Same(t, report, RequirementsFilter{}.Apply(report))

	short := RequirementsFilter{ShortageOnly: true}.Apply(report)
	require.Len(t, short.Requirements, 2)
	assert.Equal(t, "C", short.Requirements[1].Material.Code)
	assert.Len(t, short.Issues, 1)
	assert.Len(t, report.Requirements, 3, "source report must be untouched")

	picked := RequirementsFilter{ShortageOnly: true, MaterialCodes: []string{"B", "C"}}.Apply(report)
	require.Len(t, picked.Requirements, 1)
	assert.Equal(t, "C", picked.Requirements[0].Material.Code)
}
