// Package types provides the error taxonomy, format detection and edit
// state shared by the exifedit packages.
package types
