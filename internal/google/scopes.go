package google

const (
	// CalendarScope grants read/write access to calendars shared with the service account.
	CalendarScope = "https://www.googleapis.com/auth/calendar"

	// CalendarACLScope lets the onboarding flow share a user's calendar.
	CalendarACLScope = "https://www.googleapis.com/auth/calendar.acls"
)

// ServiceAccountScopes are requested by the service account for all calendar tools.
var ServiceAccountScopes = []string{CalendarScope}

// OnboardingScopes are requested from the user during onboarding. Only the ACL
// scope is needed: the flow inserts one sharing rule and never reads events.
var OnboardingScopes = []string{CalendarACLScope}
