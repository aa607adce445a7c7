// Package batch runs a tool operation over several ids and reports per-id
// outcomes, so that one failing event does not hide the others.
package batch
