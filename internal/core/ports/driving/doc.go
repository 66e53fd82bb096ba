// Package driving provides interfaces for actors that drive the
// application (primary/inbound ports), such as the CLI.
package driving
