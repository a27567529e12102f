package main

import "testing"

func TestRootShowsHelp(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("root command: %v", err)
	}
	requireContains(t, out, "autosub")
	requireContains(t, out, "Available Commands")
}

func TestUnknownCommandFails(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"definitely-not-a-command"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
}
