// Package google loads the credentials meetwise uses to reach Google APIs.
//
// Calendar reads and writes run as a single service account. Users grant that
// account writer access to their primary calendar through the onboarding web
// flow, which in turn authenticates the user with an OAuth web client.
package google
