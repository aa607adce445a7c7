// Command meetwise finds common free time and double bookings across shared
// Google Calendars and exposes them as MCP tools.
package main

import (
	"github.com/teemow/meetwise/cmd"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
