// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocAdapter: Supplies document metadata and positioned page tokens
//   - EntityIndex: Persons, occurrences and document snapshots
//   - ConfigStore: Application configuration
//   - Exporter: Writes persons, occurrences and snapshots to a workbook
//
// # Optional Interfaces
//
// These can be nil - extraction degrades gracefully:
//
//   - AddressNormaliser: Normalises residence/domicile text into structured fields
//   - EventExtractor: Extracts events from page text
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
