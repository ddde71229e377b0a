// Package filesystem finds and watches the local documents handed to the
// extraction engine.
package filesystem
