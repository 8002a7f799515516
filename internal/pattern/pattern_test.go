package pattern

import "testing"

func TestMatch(t *testing.T) {
	m := NewMatcher()
	tests := []struct {
		name   string
		ok     bool
		want   Date
		dayDir string
	}{
		{name: "IMG_2020-05-01_120000.jpg", ok: true, want: Date{2020, 5, 1, "IMG"}, dayDir: "2020-05-01"},
		{name: "VID_1999-12-31_235959.mp4", ok: true, want: Date{1999, 12, 31, "VID"}, dayDir: "1999-12-31"},
		{name: "2011-01-09_000000.png", ok: true, want: Date{2011, 1, 9, ""}, dayDir: "2011-01-09"},
		{name: "IMG_2020-05-01_120000-copy.jpg", ok: true, want: Date{2020, 5, 1, "IMG"}, dayDir: "2020-05-01"},
		{name: "/some/dir/IMG_2020-05-01_120000-1.JPG", ok: true, want: Date{2020, 5, 1, "IMG"}, dayDir: "2020-05-01"},
		{name: "note.txt"},
		{name: "IMG_2020-05-01.jpg"},
		{name: "IMG_3020-05-01_120000.jpg"},
		{name: "IMG_2020-25-01_120000.jpg"},
		{name: "IMG_2020-05-41_120000.jpg"},
		{name: "PIC_2020-05-01_120000.jpg"},
		{name: "x2020-05-01_120000.jpg"},
		{name: "IMG_2020-05-01_12000.jpg"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := m.Match(tc.name)
			if ok != tc.ok {
				t.Fatalf("Match(%q) ok = %v, want %v", tc.name, ok, tc.ok)
			}
			if !ok {
				return
			}
			if got != tc.want {
				t.Fatalf("Match(%q) = %+v, want %+v", tc.name, got, tc.want)
			}
			if got.DayDir() != tc.dayDir || got.YearDir() != tc.dayDir[:4] {
				t.Fatalf("partition dirs = %s/%s", got.YearDir(), got.DayDir())
			}
		})
	}
}
