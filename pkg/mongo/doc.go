// Package mongo manages the MongoDB connection backing the optional
// telemetry archive writer.
package mongo
