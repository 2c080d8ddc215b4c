package handlers

import "testing"

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		name     string
		from     string
		to       string
		expected bool
	}{
		{name: "accept pending", from: "PENDING", to: "ACCEPTED", expected: true},
		{name: "reject pending", from: "PENDING", to: "REJECTED", expected: true},
		{name: "pending cannot skip to ready", from: "PENDING", to: "READY", expected: false},
		{name: "preparing to ready", from: "PREPARING", to: "READY", expected: true},
		{name: "ready completes", from: "READY", to: "COMPLETED", expected: true},
		{name: "completed is terminal", from: "COMPLETED", to: "PENDING", expected: false},
		{name: "rejected is terminal", from: "REJECTED", to: "ACCEPTED", expected: false},
		{name: "unknown status", from: "BOGUS", to: "ACCEPTED", expected: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := transitionAllowed(tc.from, tc.to); got != tc.expected {
				t.Fatalf("transitionAllowed(%s, %s) = %v, expected %v", tc.from, tc.to, got, tc.expected)
			}
		})
	}
}
