package relocator

import (
	"github.com/rwcarlsen/goexif/exif"
	"github.com/spf13/afero"

	"mediasort/internal/pattern"
)

// ExifDate returns the capture date recorded in the EXIF block of path.
// Files without readable EXIF data report false.
func ExifDate(fsys afero.Fs, path string) (pattern.Date, bool) {
	f, err := fsys.Open(path)
	if err != nil {
		return pattern.Date{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return pattern.Date{}, false
	}
	taken, err := x.DateTime()
	if err != nil || taken.IsZero() {
		return pattern.Date{}, false
	}
	return pattern.Date{Year: taken.Year(), Month: int(taken.Month()), Day: taken.Day()}, true
}
