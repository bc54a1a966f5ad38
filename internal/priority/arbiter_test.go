package priority

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewArbiter_NormalActive(t *testing.T) {
	a := NewArbiter()
	if got := a.Highest(); got != Normal {
		t.Fatalf("Highest() = %v, want normal", got)
	}
	if !a.IsActive(Normal) {
		t.Error("Normal should be active on a fresh arbiter")
	}
	for _, l := range []Level{Critical, Locked, Alternate} {
		if a.IsActive(l) {
			t.Errorf("%v should not be active on a fresh arbiter", l)
		}
	}
}

func TestArbiter_ActivateDeactivate(t *testing.T) {
	tests := []struct {
		name     string
		activate []Level
		remove   []Level
		want     Level
	}{
		{"alternate over normal", []Level{Alternate}, nil, Alternate},
		{"critical wins", []Level{Alternate, Critical, Locked}, nil, Critical},
		{"remove highest", []Level{Alternate, Locked}, []Level{Locked}, Alternate},
		{"remove shadowed", []Level{Alternate, Locked}, []Level{Alternate}, Locked},
		{"remove all", []Level{Critical, Locked, Alternate}, []Level{Critical, Locked, Alternate}, Normal},
		{"normal cannot be removed", nil, []Level{Normal}, Normal},
		{"double activate", []Level{Locked, Locked}, []Level{Locked}, Normal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewArbiter()
			for _, l := range tt.activate {
				a.Activate(l)
			}
			for _, l := range tt.remove {
				a.Deactivate(l)
			}
			if got := a.Highest(); got != tt.want {
				t.Errorf("Highest() = %v, want %v", got, tt.want)
			}
			if !a.IsActive(Normal) {
				t.Error("Normal must always be active")
			}
		})
	}
}

func TestArbiter_InvalidLevelsIgnored(t *testing.T) {
	a := NewArbiter()
	a.Activate(Alternate)

	for _, l := range []Level{-1, Level(Count), Level(MaxLevels), 200} {
		if got := a.Activate(l); got != Alternate {
			t.Errorf("Activate(%d) = %v, want alternate", l, got)
		}
		if got := a.Deactivate(l); got != Alternate {
			t.Errorf("Deactivate(%d) = %v, want alternate", l, got)
		}
		if a.IsActive(l) {
			t.Errorf("IsActive(%d) = true, want false", l)
		}
	}
}

func TestArbiter_HighestIsMinimumActive(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := NewArbiter()
	active := map[Level]bool{Normal: true}

	for i := 0; i < 1000; i++ {
		l := Level(rng.Intn(Count))
		if rng.Intn(2) == 0 {
			a.Activate(l)
			active[l] = true
		} else {
			a.Deactivate(l)
			if l != Normal {
				delete(active, l)
			}
		}

		want := Normal
		for lvl := range active {
			if lvl < want {
				want = lvl
			}
		}
		if got := a.Highest(); got != want {
			t.Fatalf("step %d: Highest() = %v, want %v (active %v)", i, got, want, a.Active())
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", Normal, false},
		{"normal", Normal, false},
		{"ALTERNATE", Alternate, false},
		{"Locked", Locked, false},
		{"critical", Critical, false},
		{"urgent", Normal, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknown) {
				t.Errorf("Parse(%q) error = %v, want ErrUnknown", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevel_String(t *testing.T) {
	if Alternate.String() != "alternate" {
		t.Errorf("Alternate.String() = %q", Alternate.String())
	}
	if Level(42).String() != "INVALID" {
		t.Errorf("Level(42).String() = %q, want INVALID", Level(42).String())
	}
}
