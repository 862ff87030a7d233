package main

import (
	"bytes"
	"strings"
	"testing"

	"govkernel/internal/api"
)

// resetDemo rebuilds the demo manager/kernel fresh for each test, since
// bootDemo registers global singletons in internal/api.
func resetDemo(t *testing.T) {
	t.Helper()
	api.ResetForTesting()
	t.Cleanup(api.ResetForTesting)
	if err := bootDemo(); err != nil {
		t.Fatalf("bootDemo: %v", err)
	}
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("executing %v: %v", args, err)
	}
	return out.String()
}

func TestListModulesShowsInstalledModules(t *testing.T) {
	resetDemo(t)
	out := run(t, "list", "modules")
	if !strings.Contains(out, "billing") || !strings.Contains(out, "notifications") {
		t.Fatalf("expected both sample modules in output, got:\n%s", out)
	}
}

func TestListInstancesRejectsUnknownModule(t *testing.T) {
	resetDemo(t)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"list", "instances", "does-not-exist"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected an error for an unknown module")
	}
}

func TestListInstancesRequiresExactlyOneArg(t *testing.T) {
	resetDemo(t)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"list", "instances"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected an error when no module argument is given")
	}
}

func TestStatsShowsPlaceholderRowsBeforeAnyTraffic(t *testing.T) {
	resetDemo(t)
	out := run(t, "stats")
	if !strings.Contains(out, "billing") || !strings.Contains(out, "notifications") {
		t.Fatalf("expected both sample modules in stats output, got:\n%s", out)
	}
}
