// Package integration contains the PMS integration bounded context.
// It defines how hotel reservations, rooms and guest profiles held by external
// Property Management Systems are pulled, normalized and reconciled with local state.
//
// Key concepts:
//   - ProviderAdapter: port implemented once per PMS vendor (REST, GraphQL, SOAP)
//   - NormalizedBooking / NormalizedRoom / NormalizedGuest: canonical records
//   - IntegrationError: the single error type crossing the adapter boundary
//   - SyncSummary: per-invocation result that survives partial failures
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
