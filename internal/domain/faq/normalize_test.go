package faq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{name: "trims whitespace", in: "  Hello World  ", out: "hello world"},
		{name: "removes punctuation", in: "What's, the distance?", out: "whats the distance"},
		{name: "collapses inner spaces", in: "where   is\tthe\noffice", out: "where is the office"},
		{name: "keeps digits", in: "Room ENG-340A!", out: "room eng340a"},
		{name: "keeps non ascii punctuation", in: "Café «open»?", out: "café «open»"},
		{name: "punctuation only", in: "?!...", out: ""},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.out {
			t.Fatalf("%s: expected %q got %q", tc.name, tc.out, got)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Where is your OFFICE located??",
		"  a  -  b  ",
		"It's 9 a.m. -- don't be late!",
		"tabs\tand\nnewlines",
		"ÉCOLE d'ingénieurs, 2024",
		"{[(<>)]}",
	}
	for _, in := range inputs {
		once := Normalize(in)
		require.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  []string
	}{
		{name: "words", in: "where is your office", out: []string{"where", "is", "your", "office"}},
		{name: "punctuation tokens", in: "open today?", out: []string{"open", "today", "?"}},
		{name: "contraction kept", in: "don't panic", out: []string{"don't", "panic"}},
		{name: "trailing apostrophe split", in: "students' lounge", out: []string{"students", "'", "lounge"}},
		{name: "empty", in: "   ", out: []string{}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.out, Tokenize(tc.in), tc.name)
	}
}
