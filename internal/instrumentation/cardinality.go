package instrumentation

import "strings"

// ExtractUserDomain returns the domain part of an email address, or "unknown".
// Metrics use it instead of the full address to bound label cardinality.
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
func ExtractUserDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "unknown"
	}
	return strings.ToLower(email[at+1:])
}

// Operation names for Calendar API metrics and spans.
const (
	OperationList     = "list"
	OperationGet      = "get"
	OperationCreate   = "create"
	OperationUpdate   = "update"
	OperationDelete   = "delete"
	OperationSearch   = "search"
	OperationFreeBusy = "freebusy"
	OperationShare    = "share"
)
