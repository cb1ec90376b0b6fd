package ftdcfile

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/arloliu/ftdcunwind/errs"
)

const (
	// FilePrefix starts every chunk file name.
	FilePrefix = "metrics."
	// TimeLayout is the timestamp layout embedded in chunk file names.
	TimeLayout = "2006-01-02T15-04-05Z"

	maxSeq = 99999
)

// FileInfo is a chunk file recognized in a directory listing.
type FileInfo struct {
	Name string
	Time time.Time
	Seq  int
}

// FileName returns the chunk file name for ts. A zero seq omits the suffix.
func FileName(ts time.Time, seq int) string {
	name := FilePrefix + ts.UTC().Format(TimeLayout)
	if seq > 0 {
		name += fmt.Sprintf("-%05d", seq)
	}

	return name
}

// ParseFileName extracts the timestamp and sequence suffix of a chunk file
// name.
func ParseFileName(name string) (time.Time, int, error) {
	rest, ok := strings.CutPrefix(name, FilePrefix)
	if !ok {
		return time.Time{}, 0, fmt.Errorf("%w: %q lacks %q prefix", errs.ErrInvalidFileName, name, FilePrefix)
	}

	stamp, suffix, hasSuffix := strings.Cut(rest, "Z-")
	if hasSuffix {
		stamp += "Z"
	}

	ts, err := time.Parse(TimeLayout, stamp)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: %q: %w", errs.ErrInvalidFileName, name, err)
	}

	seq := 0
	if hasSuffix {
		if len(suffix) != 5 {
			return time.Time{}, 0, fmt.Errorf("%w: %q has a malformed suffix", errs.ErrInvalidFileName, name)
		}
		if seq, err = strconv.Atoi(suffix); err != nil || seq < 0 {
			return time.Time{}, 0, fmt.Errorf("%w: %q has a malformed suffix", errs.ErrInvalidFileName, name)
		}
	}

	return ts.UTC(), seq, nil
}

// ListFiles returns the chunk files in dir ordered by timestamp and suffix,
// plus the names of the entries that are not chunk files.
func ListFiles(fs afero.Fs, dir string) ([]FileInfo, []string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, nil, err
	}

	var (
		files   []FileInfo
		foreign []string
	)

	for _, entry := range entries {
		if entry.IsDir() {
			foreign = append(foreign, entry.Name())
			continue
		}

		ts, seq, err := ParseFileName(entry.Name())
		if err != nil {
			foreign = append(foreign, entry.Name())
			continue
		}
		files = append(files, FileInfo{Name: entry.Name(), Time: ts, Seq: seq})
	}

	slices.SortFunc(files, func(a, b FileInfo) int {
		if c := a.Time.Compare(b.Time); c != 0 {
			return c
		}

		return a.Seq - b.Seq
	})

	return files, foreign, nil
}
