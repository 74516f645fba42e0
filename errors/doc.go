// Package errors defines the error taxonomy shared by reqkit packages.
// Every failure surfaced to callers is an *Error carrying a machine-readable
// Code, so callers can branch with the Is* helpers or CodeOf instead of
// matching on message text. Causes stay reachable through errors.Is/As.
package errors
