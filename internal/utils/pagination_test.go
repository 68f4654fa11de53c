package utils

import "testing"

func TestParsePage(t *testing.T) {
	cases := []struct {
		limit, offset string
		want          Page
		wantErr       bool
	}{
		{"", "", Page{Limit: 50}, false},
		{"2", "4", Page{Limit: 2, Offset: 4}, false},
		{" 10 ", " 3 ", Page{Limit: 10, Offset: 3}, false},
		{"0", "", Page{Limit: 50}, false},
		{"9999", "", Page{Limit: 500}, false},
		{"-1", "", Page{}, true},
		{"", "-5", Page{}, true},
		{"abc", "", Page{}, true},
		{"", "1.5", Page{}, true},
	}
	for _, tc := range cases {
		got, err := ParsePage(tc.limit, tc.offset, 50, 500)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParsePage(%q,%q) err=%v; wantErr=%v", tc.limit, tc.offset, err, tc.wantErr)
		}
		if err == nil && got != tc.want {
			t.Fatalf("ParsePage(%q,%q) = %+v; want %+v", tc.limit, tc.offset, got, tc.want)
		}
	}
}
