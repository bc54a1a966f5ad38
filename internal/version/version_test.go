package version

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Name != Name {
		t.Errorf("Name = %q, want %q", info.Name, Name)
	}
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if !strings.Contains(info.Platform, "/") {
		t.Errorf("Platform = %q, want os/arch", info.Platform)
	}
}

func TestStrings(t *testing.T) {
	if got := UserAgent(); got != "ledd/"+Version {
		t.Errorf("UserAgent() = %q, want %q", got, "ledd/"+Version)
	}
	if got := String(); !strings.HasPrefix(got, "ledd "+Version) {
		t.Errorf("String() = %q, want prefix %q", got, "ledd "+Version)
	}
}
