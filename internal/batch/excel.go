package batch

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

func readXLSX(ctx context.Context, r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.GetRows(sheets[0])
}

// readXLS converts panics from the legacy decoder on malformed files into
// errors.
func readXLS(ctx context.Context, r io.Reader) (records [][]string, err error) {
	defer func() {
		if p := recover(); p != nil {
			records, err = nil, fmt.Errorf("xls: %v", p)
		}
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrNoHeader
	}

	records = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := sheet.Row(i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		rec := make([]string, row.LastCol())
		for j := range rec {
			rec[j] = row.Col(j)
		}
		records = append(records, rec)
	}
	return records, nil
}
