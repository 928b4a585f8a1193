// Package billing provides the domain model for plan limits and subscription state of TheGridHub tenants.
//
// This package covers two concerns:
//   - Usage enforcement: plans, their numeric limits, the actions a tenant can attempt,
//     and the decision produced when an action is checked against current usage
//   - Subscription ingestion: webhook events received from the payment provider and the
//     per-tenant subscription record those events maintain
//
// Key types:
//   - PlanCatalog: Immutable plan -> limits table, injected where limits are needed
//   - Action / EventType: Closed enums with an explicit unrecognized arm
//   - UsageSnapshot: Usage counts computed at check time, never persisted
//   - WebhookEvent: Idempotency log row keyed by the provider event id
//   - SubscriptionRecord: Last known subscription state for a tenant
package billing
