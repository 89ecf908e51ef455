// Package id generates prefixed unique identifiers for PageTagz entities.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Well-known entity prefixes. Every durable record carries one so an ID is
// self-describing in logs and API payloads (e.g. "bm-V1StGXR8_Z5jdHi6B-myT").
const (
	PrefixUser     = "user"
	PrefixSession  = "sess"
	PrefixTag      = "tag"
	PrefixBookmark = "bm"
)

// Generate creates a prefixed unique ID using NanoID.
//
// NanoIDs are URL-friendly and compact (21 characters vs UUID's 36),
// which keeps bookmark and tag IDs pleasant to read in URLs.
//
// Returns an error if the system has insufficient entropy for secure
// random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Intended for initialization paths and tests where entropy exhaustion
// should crash the program.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
