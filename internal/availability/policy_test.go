package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkingHoursPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *WorkingHoursPolicy)
		wantErr bool
	}{
		{name: "default", mutate: func(p *WorkingHoursPolicy) {}},
		{name: "end of day at midnight", mutate: func(p *WorkingHoursPolicy) { p.DayEndHour = 24 }},
		{name: "missing location", mutate: func(p *WorkingHoursPolicy) { p.Location = nil }, wantErr: true},
		{name: "inverted hours", mutate: func(p *WorkingHoursPolicy) { p.DayStartHour = 18; p.DayEndHour = 9 }, wantErr: true},
		{name: "empty window", mutate: func(p *WorkingHoursPolicy) { p.DayEndHour = p.DayStartHour }, wantErr: true},
		{name: "start hour out of range", mutate: func(p *WorkingHoursPolicy) { p.DayStartHour = -1 }, wantErr: true},
		{name: "end hour out of range", mutate: func(p *WorkingHoursPolicy) { p.DayEndHour = 25 }, wantErr: true},
		{name: "zero horizon", mutate: func(p *WorkingHoursPolicy) { p.SearchHorizonDays = 0 }, wantErr: true},
		{name: "zero cap", mutate: func(p *WorkingHoursPolicy) { p.MaxResults = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy(time.UTC)
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPolicy)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWorkingHoursPolicy_WindowAcrossMonthEnd(t *testing.T) {
	p := DefaultPolicy(time.UTC)
	start, end := p.window(time.Date(2025, 1, 31, 15, 0, 0, 0, time.UTC), 1)
	assert.Equal(t, time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 2, 1, 18, 0, 0, 0, time.UTC), end)
}
