package domain

import "time"

// Resource names a collection whose cached views go stale after a mutation.
type Resource string

const (
	ResourceUsers     Resource = "users"
	ResourceProducts  Resource = "products"
	ResourceOrders    Resource = "orders"
	ResourcePayments  Resource = "payments"
	ResourceAnalytics Resource = "analytics"
)

// Action describes which mutation produced an invalidation.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionCancel  Action = "cancel"
	ActionStatus  Action = "status"
	ActionSubmit  Action = "submit"
	ActionVerify  Action = "verify"
	ActionRebuild Action = "rebuild"
)

// Invalidation is emitted after a mutation succeeds so that views can re-fetch
// the affected list. ID is zero for collection-wide changes.
type Invalidation struct {
	Resource Resource
	Action   Action
	ID       int
	At       time.Time
}
