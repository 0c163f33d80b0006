package model

import (
	"encoding/json"
	"testing"
)

func TestResolutionString(t *testing.T) {
	tests := []struct {
		name string
		res  Resolution
		want string
	}{
		{
			name: "focused title match",
			res:  Resolution{Target: "work:0.1", Session: "work", Match: MatchTitle, Focused: true},
			want: "work:0.1 (by title)",
		},
		{
			name: "unfocused process match",
			res:  Resolution{Target: "work:2.0", Session: "work", Match: MatchProcess},
			want: "work:2.0 (by process, not focused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolutionJSON(t *testing.T) {
	data, err := json.Marshal(Resolution{Target: "s:0.0", Session: "s", Match: MatchProcess})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"target":"s:0.0","session":"s","match":"process","focused":false}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}
