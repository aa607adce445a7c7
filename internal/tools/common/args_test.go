package common

import (
	"testing"
	"time"
)

func TestOwnerFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"user_email", map[string]interface{}{"user_email": " a@example.com "}, "a@example.com"},
		{"owner fallback", map[string]interface{}{"owner": "b@example.com"}, "b@example.com"},
		{"user_email wins", map[string]interface{}{"user_email": "a@example.com", "owner": "b@example.com"}, "a@example.com"},
		{"blank user_email", map[string]interface{}{"user_email": "  ", "owner": "b@example.com"}, "b@example.com"},
		{"missing", map[string]interface{}{}, ""},
		{"wrong type", map[string]interface{}{"user_email": 42}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OwnerFromArgs(tt.args); got != tt.want {
				t.Errorf("OwnerFromArgs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListArg(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    []string
		wantErr bool
	}{
		{"comma string", "a@x.com, b@x.com,,", []string{"a@x.com", "b@x.com"}, false},
		{"array", []interface{}{"a@x.com", " b@x.com "}, []string{"a@x.com", "b@x.com"}, false},
		{"nil", nil, nil, false},
		{"bad element", []interface{}{"a", 1}, nil, true},
		{"bad type", 3.0, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ListArg(map[string]interface{}{"k": tt.value}, "k")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ListArg() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListArg() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ListArg()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestIntArg(t *testing.T) {
	n, ok, err := IntArg(map[string]interface{}{"d": 30.0}, "d")
	if err != nil || !ok || n != 30 {
		t.Errorf("IntArg(30.0) = %d, %v, %v", n, ok, err)
	}
	if _, ok, _ := IntArg(map[string]interface{}{}, "d"); ok {
		t.Error("expected absent argument")
	}
	if _, _, err := IntArg(map[string]interface{}{"d": 1.5}, "d"); err == nil {
		t.Error("expected error for fractional value")
	}
	if _, _, err := IntArg(map[string]interface{}{"d": "30"}, "d"); err == nil {
		t.Error("expected error for string value")
	}
}

func TestTimeArg(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)

	got, ok, err := TimeArg(map[string]interface{}{"start": "2026-10-12T10:00:00Z"}, "start", ist)
	if err != nil || !ok || !got.Equal(time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("RFC3339: got %v, %v, %v", got, ok, err)
	}

	got, _, err = TimeArg(map[string]interface{}{"start": "2026-10-12T10:00:00"}, "start", ist)
	if err != nil || !got.Equal(time.Date(2026, 10, 12, 10, 0, 0, 0, ist)) {
		t.Errorf("floating: got %v, %v", got, err)
	}

	if _, ok, _ := TimeArg(map[string]interface{}{}, "start", ist); ok {
		t.Error("expected absent argument")
	}
	if _, _, err := TimeArg(map[string]interface{}{"start": "tomorrow"}, "start", ist); err == nil {
		t.Error("expected parse error")
	}
}
