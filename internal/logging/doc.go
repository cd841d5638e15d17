// Package logging configures the process logger and provides attribute
// helpers so every component logs with the same keys.
//
//	logger := logging.WithComponent(base, "runner")
//	logger.Info("cycle finished", logging.Count(3), logging.Err(err))
//
// Recipient addresses are never logged verbatim; Recipient anonymizes them
// with AnonymizeEmail.
package logging
