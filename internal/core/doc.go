// Package core provides the domain layer behind the console's data grids.
//
// This package is independent of any UI or transport layer. The web
// package drives it per request; tests drive it with the memory source.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Features: one per console screen, declared in a TOML catalog and
//     registered at startup. A [Feature] names its table, columns, toolbar
//     filters, date range and bulk actions.
//   - Sources: a [Source] fetches pages and applies bulk mutations.
//     [PostgresSource] runs SQL through pgx; [MemorySource] evaluates
//     queries with the in-memory grid engine over seeded rows.
//   - Loader: a [Loader] fetches one grid's pages, cancelling the fetch it
//     supersedes and falling back to the last good page on failure.
//   - Instances: an [Instance] holds one session's state for one feature
//     outside the URL (selection, sort, hidden columns, notifications).
//   - Audit: every bulk action run is recorded in an [AuditLog], kept in
//     memory or in the console_audit_log table, and pruned on a schedule
//     by [StartAuditRetention].
//
// # Feature Catalog
//
// Features are loaded with [LoadCatalog] and registered with
// [Catalog.RegisterAll]:
//
//	[[feature]]
//	key = "sample_orders"
//	group = "Orders"
//	table = "sample_orders"
//
//	  [[feature.columns]]
//	  id = "status"
//	  type = "enum"
//	  faceted = true
//
// [Feature.BinderConfig] and [Feature.ToolbarConfig] derive the grid's URL
// binding and toolbar from the declaration.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB007: Database errors (constraints, connections, timeouts)
//   - VAL001-VAL002, REV001: Invalid bulk-revise input
//   - FETCH001-FETCH003: Superseded, cancelled or timed out fetches
//   - BULK001-BULK005: Bulk action state and capacity errors
package core
