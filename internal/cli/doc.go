// Package cli implements the reqkit command line: one command per HTTP
// method, "wait" for polling an endpoint, and "profiles" for inspecting the
// configured request profiles.
package cli
