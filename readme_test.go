package main

import (
	"os"
	"strings"
	"testing"
)

func TestREADMEDocumentsEveryCommand(t *testing.T) {
	content, err := os.ReadFile("README.md")
	if err != nil {
		t.Fatalf("Failed to read README.md: %v", err)
	}

	readmeText := string(content)

	// Every user-facing command must be documented.
	commands := []string{
		"hive status",
		"hive send",
		"hive ask",
		"hive do",
		"hive broadcast",
		"hive workers",
		"hive routes",
		"hive session",
		"hive logs",
		"hive dash",
	}

	for _, cmd := range commands {
		if !strings.Contains(readmeText, cmd) {
			t.Errorf("README.md missing documentation for %q", cmd)
		}
	}

	// The config walkthrough must show both halves of the format.
	for _, section := range []string{"workers:", "routing:", "default_worker:"} {
		if !strings.Contains(readmeText, section) {
			t.Errorf("README.md config example missing %q", section)
		}
	}
}
