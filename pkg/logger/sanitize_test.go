package logger

import "testing"

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ana@mopc.gob.do", "a**@****.***.do"},
		{"x@y.com", "x@*.com"},
		{"not-an-email", "[invalid-email]"},
	}

	for _, tt := range tests {
		if got := SanitizedEmail(tt.input); got != tt.want {
			t.Errorf("SanitizedEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizedCedula(t *testing.T) {
	if got := SanitizedCedula("001-1234567-8"); got != "*******5678" {
		t.Errorf("SanitizedCedula() = %q", got)
	}
	if got := SanitizedCedula("12"); got != "[invalid-cedula]" {
		t.Errorf("SanitizedCedula() on short input = %q", got)
	}
}

func TestSanitizeQueryString(t *testing.T) {
	if !SanitizeQueryString("password=hunter2") {
		t.Error("expected password parameter to be flagged")
	}
	if !SanitizeQueryString("cedula=00112345678") {
		t.Error("expected cedula parameter to be flagged")
	}
	if SanitizeQueryString("status=active&limit=20") {
		t.Error("benign query string should not be flagged")
	}
}
