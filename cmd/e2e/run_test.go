package main

import (
	"io"
	"strings"
	"testing"

	"github.com/cucumber/godog"
)

func TestSequential(t *testing.T) {
	for _, in := range []int{-1, 0, 1} {
		opts := godog.Options{Concurrency: in}
		if err := sequential(&opts); err != nil {
			t.Fatalf("sequential(%d) error = %v", in, err)
		}
		if opts.Concurrency != 1 {
			t.Fatalf("sequential(%d) concurrency = %d; want 1", in, opts.Concurrency)
		}
	}

	opts := godog.Options{Concurrency: 3}
	err := sequential(&opts)
	if err == nil || !strings.Contains(err.Error(), "--godog.concurrency=3") {
		t.Fatalf("sequential(3) error = %v; want concurrency error", err)
	}
}

func TestRunRejectsParallelScenarios(t *testing.T) {
	cmd := newRunCommand()
	cmd.SetArgs([]string{"--godog.concurrency=4"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	if err == nil {
		t.Fatal("Execute() error = nil; want concurrency error")
	}
	if !strings.Contains(err.Error(), "--godog.concurrency=4") {
		t.Fatalf("Execute() error = %v; want it to name the flag", err)
	}
}
