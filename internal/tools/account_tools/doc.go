// Package account_tools provides the tools an MCP client uses to identify the
// server owner and to send new users to onboarding.
package account_tools
