package styles

import (
	"errors"
	"testing"
)

func TestStateOf(t *testing.T) {
	failed := errors.New("boom")
	tests := []struct {
		open, ready bool
		err         error
		want        LinkState
	}{
		{true, true, nil, LinkReady},
		{true, false, nil, LinkBlocked},
		{true, true, failed, LinkReady},
		{false, false, failed, LinkFailed},
		{false, false, nil, LinkClosed},
	}

	for _, tt := range tests {
		if got := StateOf(tt.open, tt.ready, tt.err); got != tt.want {
			t.Errorf("StateOf(%v, %v, %v) = %s, want %s", tt.open, tt.ready, tt.err, got, tt.want)
		}
	}
}
