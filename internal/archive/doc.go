// Package archive parses versioned-content containers.
//
// An archive is a zip bundle produced by an external history writer. Each
// inner entry is named "<unix-ms>.full" (complete snapshot) or
// "<unix-ms>.delta" (reverse delta toward the next-older state) and holds
// UTF-8 text. This package only reads archives, never writes them.
package archive
