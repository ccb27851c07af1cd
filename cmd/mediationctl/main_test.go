package main

import (
	"testing"

	"github.com/tradepost/go-mediation/models"
)

func TestExitCode(t *testing.T) {
	tests := map[string]struct {
		outcome  models.Outcome
		expected int
	}{
		"timeout":  {outcome: models.Failed(models.ErrorKind_Timeout, ""), expected: 75},
		"conflict": {outcome: models.Failed(models.ErrorKind_Conflict, ""), expected: 1},
		"unknown":  {outcome: models.Failed(models.ErrorKind_Unknown, ""), expected: 1},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := exitCode(test.outcome); got != test.expected {
				t.Errorf("found=%d, expected=%d", got, test.expected)
			}
		})
	}
}
