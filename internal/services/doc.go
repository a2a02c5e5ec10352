// Package services defines shared utilities consumed by the pipeline stages
// and the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, regions, and tiles for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (configuration, external tool, unreadable index, validation).
//
// The subpackages wrap one external tool each and translate configuration
// values into structured command specifications.
package services
