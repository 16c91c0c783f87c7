package report

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/store"
)

var printer = message.NewPrinter(language.English)

// Count formats n with thousands separators: 1234567 -> "1,234,567".
func Count(n int64) string {
	return printer.Sprintf("%d", n)
}

// Percent returns part as a percentage of total, or 0 when total is 0.
func Percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// FormatPercent renders a percentage with exactly three decimals.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.3f%%", p)
}

// PairedRow is one line of a red/speed listing.
type PairedRow struct {
	Key   string `json:"key" yaml:"key"`
	Red   int64  `json:"red" yaml:"red"`
	Speed int64  `json:"speed" yaml:"speed"`
}

// PairRows combines two independently grouped lists by position: row i
// takes its key and red count from red[i] and its speed count from
// speed[i]. Only min(len(red), len(speed)) rows are produced and keys are
// never compared, so lists with different groups pair up misaligned.
func PairRows(red, speed []store.NamedCount) []PairedRow {
	n := min(len(red), len(speed))
	rows := make([]PairedRow, n)
	for i := 0; i < n; i++ {
		rows[i] = PairedRow{Key: red[i].Name, Red: red[i].Count, Speed: speed[i].Count}
	}
	return rows
}

func writePairedRows(w io.Writer, rows []PairedRow) {
	for _, r := range rows {
		fmt.Fprintf(w, "%s: %d Red, %d Speed\n", r.Key, r.Red, r.Speed)
	}
}

func writeCameras(w io.Writer, cameras []store.Camera) {
	for _, c := range cameras {
		fmt.Fprintf(w, " %d : %s\n", c.ID, c.Address)
	}
}

// textWriter remembers the first write error so layouts can be written
// without checking every line.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) Write(p []byte) (int, error) {
	if t.err != nil {
		return 0, t.err
	}
	n, err := t.w.Write(p)
	t.err = err
	return n, err
}
