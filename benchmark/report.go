package benchmark

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
)

// ParseScale maps a unit name to a display scale. The empty string defaults
// to milliseconds.
func ParseScale(unit string) (time.Duration, error) {
	switch unit {
	case "ns":
		return time.Nanosecond, nil
	case "us":
		return time.Microsecond, nil
	case "ms", "":
		return time.Millisecond, nil
	case "s":
		return time.Second, nil
	}
	return 0, fmt.Errorf("%w: unknown scale %q", ErrInvalidConfig, unit)
}

func scaleName(scale time.Duration) string {
	switch scale {
	case time.Nanosecond:
		return "ns"
	case time.Microsecond:
		return "us"
	case time.Second:
		return "s"
	}
	return "ms"
}

func inScale(d time.Duration, scale time.Duration) float64 {
	return float64(d) / float64(scale)
}

func formatScaled(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func headerFields(scale time.Duration) []string {
	unit := scaleName(scale)
	return []string{
		"Benchmark",
		"Count",
		"Mean (" + unit + ")",
		"Min (" + unit + ")",
		"Max (" + unit + ")",
		"P50 (" + unit + ")",
		"P90 (" + unit + ")",
		"P99 (" + unit + ")",
	}
}

func rowFields(name string, st *Stats, scale time.Duration) []string {
	return []string{
		name,
		strconv.Itoa(st.Count()),
		formatScaled(st.mean / float64(scale)),
		formatScaled(inScale(st.Min(), scale)),
		formatScaled(inScale(st.Max(), scale)),
		formatScaled(inScale(st.P50(), scale)),
		formatScaled(inScale(st.P90(), scale)),
		formatScaled(inScale(st.P99(), scale)),
	}
}

// writeTable renders res as an aligned text table. A nil or empty result
// still renders the header so the output is well-formed either way.
func writeTable(w io.Writer, res *Result, scale time.Duration, sanitize bool) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headerFields(scale), "\t"))
	if res != nil {
		for _, name := range res.names {
			st := res.stats[name]
			if sanitize {
				st = st.Sanitize(SanitizeThreshold)
			}
			fmt.Fprintln(tw, strings.Join(rowFields(name, st, scale), "\t"))
		}
	}
	return tw.Flush()
}

// writeCSV renders res as CSV. Fields containing the separator are quoted
// by the encoder, so every record splits back into exactly eight fields.
func writeCSV(w io.Writer, res *Result, scale time.Duration, sanitize bool, sep rune) error {
	cw := csv.NewWriter(w)
	if sep != 0 {
		cw.Comma = sep
	}
	if err := cw.Write(headerFields(scale)); err != nil {
		return err
	}
	if res != nil {
		for _, name := range res.names {
			st := res.stats[name]
			if sanitize {
				st = st.Sanitize(SanitizeThreshold)
			}
			if err := cw.Write(rowFields(name, st, scale)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveData dumps every benchmark's raw samples under dir: one file per
// benchmark carrying its name, one value per line converted to scale.
// Files that cannot be written are logged and skipped; an error comes back
// only when the directory is unusable or nothing at all could be written.
func SaveData(res *Result, dir string, scale time.Duration) error {
	if res == nil || res.Len() == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ReportError{Path: dir, Err: err}
	}
	written := 0
	for _, name := range res.names {
		path := filepath.Join(dir, name)
		if err := writeSamples(path, res.stats[name], scale); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to save benchmark data")
			continue
		}
		written++
	}
	if written == 0 {
		return &ReportError{Path: dir, Err: errors.New("no benchmark data written")}
	}
	return nil
}

func writeSamples(path string, st *Stats, scale time.Duration) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, d := range st.samples {
		fmt.Fprintln(w, strconv.FormatFloat(inScale(d, scale), 'f', -1, 64))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
