// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/jllopis/ethos/pkg/lint"
)

func TestParseSeverity(t *testing.T) {
	cases := []struct {
		input   string
		want    lint.Severity
		wantErr bool
	}{
		{"error", lint.SeverityError, false},
		{"ERROR", lint.SeverityError, false},
		{"warn", lint.SeverityWarn, false},
		{"warning", lint.SeverityWarn, false},
		{"info", lint.SeverityInfo, false},
		{"fatal", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := parseSeverity(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseSeverity(%q): expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseSeverity(%q): unexpected error %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseSeverity(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}
