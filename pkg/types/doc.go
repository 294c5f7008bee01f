// Package types defines the Store interface, the Person and Phone entities,
// the connection Config, and the standard errors shared by every phonebook
// backend.
//
// Backends live under internal/ and are selected by Config.Backend through
// the phonebook.Open factory.
package types
