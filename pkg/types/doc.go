// Package types defines the virtual inventory Document, the construction
// Source variant, the Inventory interface, validation issues, and the
// standard error values shared by the vinv packages.
package types
