package batch_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sensiq/coldmail/internal/batch"
)

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]batch.Format{
		"leads.csv":  batch.FormatCSV,
		"LEADS.XLSX": batch.FormatXLSX,
		"old.xls":    batch.FormatXLS,
	} {
		got, err := batch.DetectFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}

	_, err := batch.DetectFormat("leads.pdf")
	assert.ErrorIs(t, err, batch.ErrInvalidFormat)
}

func TestRows_CSVKeepsBlankRows(t *testing.T) {
	t.Parallel()

	in := "\ufeffEmail , Company\na@x.com,Acme\n\nb@x.com,Beta\n\n"
	rows, err := batch.Rows(context.Background(), "leads.csv", strings.NewReader(in), "Email", []string{"Company"})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "a@x.com", rows[0].Email)
	assert.Equal(t, "Acme", rows[0].Fields["Company"])
	assert.True(t, rows[1].Blank())
	assert.Equal(t, 2, rows[1].Line)
	assert.Equal(t, "b@x.com", rows[2].Email)
	assert.Equal(t, "Beta", rows[2].Fields["Company"])
}

func TestRows_CSVBlankEmailCell(t *testing.T) {
	t.Parallel()

	in := "name,email\nAnn,a@x.com\nNobody,\nBob,b@x.com\n"
	rows, err := batch.Rows(context.Background(), "leads.csv", strings.NewReader(in), "email", nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[1].Blank())
	assert.Nil(t, rows[0].Fields)
}

func TestRows_MultilineQuotedField(t *testing.T) {
	t.Parallel()

	in := "email,notes\na@x.com,\"line one\nline two\"\nb@x.com,ok\n"
	rows, err := batch.Rows(context.Background(), "leads.csv", strings.NewReader(in), "email", []string{"notes"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "line one\nline two", rows[0].Fields["notes"])
	assert.Equal(t, "b@x.com", rows[1].Email)
}

func TestRows_MissingColumn(t *testing.T) {
	t.Parallel()

	in := "email,company\na@x.com,Acme\n"

	_, err := batch.Rows(context.Background(), "leads.csv", strings.NewReader(in), "mail", nil)
	assert.ErrorIs(t, err, batch.ErrMissingColumn)

	_, err = batch.Rows(context.Background(), "leads.csv", strings.NewReader(in), "email", []string{"city"})
	assert.ErrorIs(t, err, batch.ErrMissingColumn)
	assert.Contains(t, err.Error(), "city")
}

func TestColumns_EmptyFile(t *testing.T) {
	t.Parallel()

	_, err := batch.Columns(context.Background(), "leads.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, batch.ErrNoHeader)
}

func TestRows_XLSX(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]string{"Email", "City"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]string{"a@x.com", "Dubai"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]string{"b@x.com", "Riyadh"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cols, err := batch.Columns(context.Background(), "leads.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Email", "City"}, cols)

	rows, err := batch.Rows(context.Background(), "leads.xlsx", bytes.NewReader(buf.Bytes()), "Email", []string{"City"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "a@x.com", rows[0].Email)
	assert.True(t, rows[1].Blank())
	assert.Equal(t, "Riyadh", rows[2].Fields["City"])
}

func TestRead_CorruptSpreadsheet(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"leads.xlsx", "leads.xls"} {
		_, err := batch.Columns(context.Background(), name, strings.NewReader("not a spreadsheet"))
		assert.ErrorIs(t, err, batch.ErrInvalidFormat, name)
	}
}

func TestRead_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := batch.Columns(ctx, "leads.csv", strings.NewReader("email\na@x.com\n"))
	assert.ErrorIs(t, err, context.Canceled)
}
