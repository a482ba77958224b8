package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"remindd/internal/rule"
)

// Rules persist twice: the JSON form the engine reads back, and an RFC
// 5545 RRULE rendering so calendar tooling can consume the table
// directly. An importer may fill only the RRULE column; decoding falls
// back to it when the JSON column is blank.

func ruleColumns(r rule.Rule) (ruleJSON, rruleStr string, err error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", "", err
	}
	rr, err := r.RRule()
	if err != nil {
		return "", "", fmt.Errorf("encode repeat rule: %w", err)
	}
	return string(b), rr, nil
}

func decodeRule(ruleJSON, rruleStr string) (rule.Rule, error) {
	if s := strings.TrimSpace(ruleJSON); s == "" || s == "null" {
		return rule.FromRRule(rruleStr)
	}
	var ru rule.Rule
	if err := json.Unmarshal([]byte(ruleJSON), &ru); err != nil {
		return rule.Rule{}, fmt.Errorf("decode repeat rule: %w", err)
	}
	return ru, nil
}
