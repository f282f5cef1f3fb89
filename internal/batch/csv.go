package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// readCSV keeps blank lines between records as empty records, which
// encoding/csv would otherwise skip.
func readCSV(ctx context.Context, r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var (
		records  [][]string
		lastLine int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}

		start, _ := cr.FieldPos(0)
		if lastLine > 0 {
			for range start - lastLine - 1 {
				records = append(records, nil)
			}
		}
		end, _ := cr.FieldPos(len(rec) - 1)
		lastLine = end + strings.Count(rec[len(rec)-1], "\n")

		records = append(records, rec)
	}
}
