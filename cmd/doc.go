// Package cmd implements the meetwise command-line interface.
//
// Commands:
//   - serve: run the MCP server over stdio or streamable HTTP
//   - find-slots: print meeting slots for a set of attendees
//   - conflicts: report double bookings, once or on a cron schedule
//   - onboard: run the calendar sharing web flow on its own
//   - config init: write the effective configuration file
//   - generate-docs: print markdown documentation for all MCP tools
//   - version: print version information
package cmd
