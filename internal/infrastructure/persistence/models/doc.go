// Package models holds the GORM row types behind the repositories. Domain
// aggregates never carry ORM tags; each model converts to and from its
// aggregate with a FromDomain / ToDomain pair.
//
//   - base.go: BaseModel and AggregateModel (optimistic version column)
//   - payroll.go: payroll payments, vacation periods, year-end bonus installments
//   - fleet.go: maintenance tasks
//   - ledger.go: cash ledger entries
//   - operator.go, audit.go: operators and the audit trail
//   - outbox.go: transactional outbox rows
//
// The SQL migrations under migrations/ are authoritative for PostgreSQL;
// AutoMigrate on these models is only used for the SQLite test database.
package models
