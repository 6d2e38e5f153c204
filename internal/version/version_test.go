package version

import "testing"

func TestCurrent(t *testing.T) {
	build := Current()
	if build.Version != "dev" || build.Commit != "unknown" || build.Date != "unknown" {
		t.Fatalf("unexpected default build: %+v", build)
	}
	if got := build.String(); got != "version=dev commit=unknown date=unknown" {
		t.Fatalf("unexpected string: %s", got)
	}
}
