package models

import (
	"fmt"
	"strings"
)

type Action string

const (
	Action_Claim    Action = "claim"
	Action_Complete Action = "complete"
	Action_Cancel   Action = "cancel"
	Action_Reopen   Action = "reopen"
)

var Actions = []Action{
	Action_Claim,
	Action_Complete,
	Action_Cancel,
	Action_Reopen,
}

func ParseAction(s string) (Action, error) {
	action := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range Actions {
		if a == action {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}
