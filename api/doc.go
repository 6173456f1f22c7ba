// Package api
// Author: momentics <momentics@gmail.com>
//
// Shared interfaces and sentinel errors for the strictws engine.
// Everything here is dependency-free so that protocol, transport and
// server layers can agree on contracts without importing each other.
package api
