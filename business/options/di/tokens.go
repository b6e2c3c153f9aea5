// Package di contains dependency injection tokens for the options
// bounded context.
package di

// DI tokens for the options module.
const (
	Registry    = "options.Registry"
	Coordinator = "options.Coordinator"
)
