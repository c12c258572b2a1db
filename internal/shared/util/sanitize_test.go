package util

import (
	"errors"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "photo.png", want: "photo.png"},
		{in: " a/b.png ", want: "a_b.png"},
		{in: `a\b.png`, want: "a_b.png"},
		{in: "../etc/passwd", wantErr: true},
		{in: `a\..\b.png`, wantErr: true},
		{in: "..", wantErr: true},
		{in: "my..photo.jpg", want: "my..photo.jpg"},
		{in: "a/..b.png", want: "a_..b.png"},
		{in: "   ", wantErr: true},
		{in: "ta\x00b.jpg", want: "tab.jpg"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := SanitizeFileName(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidFileName) {
					t.Fatalf("expected ErrInvalidFileName, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSafeName(t *testing.T) {
	cases := map[string]string{
		"cat.jpg":            "cat.jpg",
		"":                   "image.jpg",
		"..":                 "image.jpg",
		"my..photo.jpg":      "my..photo.jpg",
		"../x..y.png":        "x..y.png",
		"/tmp/uploads/x.png": "x.png",
		`C:\photos\y.png`:    "y.png",
		"dir/":               "dir",
	}
	for in, want := range cases {
		if got := SafeName(in, "image.jpg"); got != want {
			t.Fatalf("SafeName(%q) = %q, want %q", in, got, want)
		}
	}
}
