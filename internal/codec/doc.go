// Package codec translates between bus payloads and typed domain values.
package codec
