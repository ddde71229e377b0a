// Package file provides the TOML configuration store kept in ~/.ailawyer.
package file
