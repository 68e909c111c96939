package main

import (
	"context"
	"encoding/csv"
	"io"
	"sort"

	log "github.com/sirupsen/logrus"
)

// RowFunc is called for every data row of a billing report. line is the
// row's 1-based line number within its report file.
type RowFunc func(line int, header, row []string) error

// ReadCSV reads a billing report CSV from r. The first row is the header;
// fn is called for each row after it.
func ReadCSV(r io.Reader, fn RowFunc) error {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1 // some lines have fewer fields than the header
	header, err := csvReader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	line := 1
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line++
		if err := fn(line, header, row); err != nil {
			return err
		}
	}
}

// ConcatCSV writes every row of src to w as one CSV with a single header
// row, the header of the first report file. Rows of later reports are
// rearranged into that header's column order by name. Their columns the
// first header doesn't have are dropped with a warning, and columns they
// lack are left empty.
func ConcatCSV(ctx context.Context, src RowSource, w io.Writer) error {
	csvWriter := csv.NewWriter(w)
	var (
		columns []string
		current []string
		layout  []int
	)
	err := src.EachRow(ctx, func(_ int, header, row []string) error {
		if columns == nil {
			columns = header
			if err := csvWriter.Write(columns); err != nil {
				return err
			}
		}
		if !sameColumns(header, current) {
			current = header
			layout = columnLayout(columns, header)
		}
		out := make([]string, len(columns))
		for i, j := range layout {
			if j >= 0 && j < len(row) {
				out[i] = row[j]
			}
		}
		return csvWriter.Write(out)
	})
	if err != nil {
		return err
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// columnLayout returns, for each of columns, its index in header or -1.
func columnLayout(columns, header []string) []int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	layout := make([]int, len(columns))
	for i, name := range columns {
		src, ok := index[name]
		if !ok {
			src = -1
		}
		layout[i] = src
		delete(index, name)
	}
	if len(index) > 0 {
		dropped := make([]string, 0, len(index))
		for name := range index {
			dropped = append(dropped, name)
		}
		sort.Strings(dropped)
		log.WithField("columns", dropped).Warn("Dropping columns missing from the first report's header")
	}
	return layout
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
