package cmd

import (
	"reflect"
	"testing"
)

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "single", input: "alice@example.com", want: []string{"alice@example.com"}},
		{name: "multiple", input: "alice@example.com,bob@example.com", want: []string{"alice@example.com", "bob@example.com"}},
		{name: "whitespace", input: " alice@example.com , bob@example.com ", want: []string{"alice@example.com", "bob@example.com"}},
		{name: "blank entries", input: "alice@example.com,,  ,bob@example.com", want: []string{"alice@example.com", "bob@example.com"}},
		{name: "only commas", input: ",,,", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCommaSeparatedList(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseCommaSeparatedList(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRunServeRejectsUnknownTransport(t *testing.T) {
	err := runServe(serveOptions{transport: "sse"})
	if err == nil {
		t.Fatal("expected an error for an unsupported transport")
	}
}
