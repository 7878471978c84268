package util

import "testing"

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "plain integer", input: "12", want: 12},
		{name: "fullwidth digits", input: "１５００", want: 1500},
		{name: "decimal dot", input: "3.5", want: 3.5},
		{name: "decimal comma", input: "1,5", want: 1.5},
		{name: "thousand with space", input: "1 000", want: 1000},
		{name: "thousand dot", input: "1.000", want: 1000},
		{name: "padded", input: " 2 ", want: 2},
		{name: "empty", input: "", want: 0},
		{name: "garbage", input: "たくさん", want: 0},
		{name: "unit suffix not accepted", input: "3個", want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseQuantity(tc.input); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}
