// Package domain contains the core business entities and errors for
// vinsearch: chunks, manifest entries, retrieval candidates, and the
// options that shape a retrieval request.
package domain
