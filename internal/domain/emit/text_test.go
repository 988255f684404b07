package emit

import "testing"

func TestDeindent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips common indentation",
			in:   "    a\n        b\n    c",
			want: "a\n    b\nc",
		},
		{
			name: "drops one leading blank line",
			in:   "\n    a",
			want: "a",
		},
		{
			name: "keeps blank lines inside",
			in:   "    a\n\n    b",
			want: "a\n\nb",
		},
		{
			name: "line indented less keeps its own text",
			in:   "        a\n    b",
			want: "a\nb",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Deindent(tt.in); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestReprC(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "true", in: true, want: "true"},
		{name: "false", in: false, want: "false"},
		{name: "nil", in: nil, want: "none"},
		{name: "whole float", in: 3.0, want: "3"},
		{name: "fractional float", in: 2.5, want: "2.5"},
		{name: "int", in: 42, want: "42"},
		{name: "string passes through", in: "0x1F", want: "0x1F"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReprC(tt.in); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
