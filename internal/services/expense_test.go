package services

import "testing"

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"receipt.pdf":                 "receipt.pdf",
		"../../etc/passwd":            "passwd",
		`C:\Users\jo\receipt (1).pdf`: "receipt__1_.pdf",
		"lukisan ünïcode.jpg":         "lukisan__n_code.jpg",
		"":                            "file",
		"/":                           "file",
		"weekly report final v2.xlsx": "weekly_report_final_v2.xlsx",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): got %q want %q", in, got, want)
		}
	}
}
