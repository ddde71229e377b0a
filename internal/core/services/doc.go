// Package services implements the driving port interfaces.
// Services contain the extraction and query logic and orchestrate
// calls to driven ports (adapters).
//
// The extraction service owns the scanner worker and the person registry
// for the duration of a run; nothing else mutates resolved persons.
package services
