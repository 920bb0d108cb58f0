package domain

import "strings"

type ProductionStatus string

const (
	ProductionPlanned    ProductionStatus = "planned"
	ProductionInProgress ProductionStatus = "in_progress"
	ProductionCompleted  ProductionStatus = "completed"
	ProductionInspected  ProductionStatus = "inspected"
)

var productionFlow = []ProductionStatus{
	ProductionPlanned,
	ProductionInProgress,
	ProductionCompleted,
	ProductionInspected,
}

// ActiveProductionStatuses are the states whose material draw is still pending.
var ActiveProductionStatuses = []ProductionStatus{ProductionPlanned, ProductionInProgress}

func (s ProductionStatus) Active() bool {
	return s == ProductionPlanned || s == ProductionInProgress
}

// Next returns the only status a production may move to from s.
func (s ProductionStatus) Next() (ProductionStatus, bool) {
	return nextIn(productionFlow, s)
}

// CanTransitionTo allows exactly one forward step.
func (s ProductionStatus) CanTransitionTo(to ProductionStatus) bool {
	next, ok := s.Next()
	return ok && next == to
}

// ParseProductionStatus returns the status for a label (case-insensitive).
func ParseProductionStatus(label string) (ProductionStatus, bool) {
	return parseIn(productionFlow, label)
}

type OrderStatus string

const (
	OrderPredicted    OrderStatus = "predicted"
	OrderConfirmed    OrderStatus = "confirmed"
	OrderApproved     OrderStatus = "approved"
	OrderInProduction OrderStatus = "in_production"
	OrderShipped      OrderStatus = "shipped"
	OrderDelivered    OrderStatus = "delivered"
)

var orderFlow = []OrderStatus{
	OrderPredicted,
	OrderConfirmed,
	OrderApproved,
	OrderInProduction,
	OrderShipped,
	OrderDelivered,
}

func (s OrderStatus) Next() (OrderStatus, bool) {
	return nextIn(orderFlow, s)
}

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	next, ok := s.Next()
	return ok && next == to
}

func ParseOrderStatus(label string) (OrderStatus, bool) {
	return parseIn(orderFlow, label)
}

func nextIn[S ~string](flow []S, s S) (S, bool) {
	for i, step := range flow {
		if step == s && i+1 < len(flow) {
			return flow[i+1], true
		}
	}
	var zero S
	return zero, false
}

func parseIn[S ~string](flow []S, label string) (S, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, step := range flow {
		if string(step) == label {
			return step, true
		}
	}
	var zero S
	return zero, false
}
