package models

import (
	"fmt"
	"strings"
)

// Source identifies one of the two upstream intent/enrichment providers
type Source string

const (
	SourceA Source = "A"
	SourceB Source = "B"
)

// Sources lists the providers in their canonical order
var Sources = []Source{SourceA, SourceB}

// IsValid returns true if s is a known provider
func (s Source) IsValid() bool {
	return s == SourceA || s == SourceB
}

// Other returns the opposite provider
func (s Source) Other() Source {
	if s == SourceA {
		return SourceB
	}
	return SourceA
}

// ParseSource parses a provider tag case-insensitively
func ParseSource(raw string) (Source, error) {
	s := Source(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown source %q", raw)
	}
	return s, nil
}

// EntityType distinguishes companies from contacts
type EntityType string

const (
	EntityCompany EntityType = "company"
	EntityContact EntityType = "contact"
)

// IsValid returns true if t is a known entity type
func (t EntityType) IsValid() bool {
	return t == EntityCompany || t == EntityContact
}

// ParseEntityType parses an entity type case-insensitively
func ParseEntityType(raw string) (EntityType, error) {
	t := EntityType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown entity type %q", raw)
	}
	return t, nil
}
