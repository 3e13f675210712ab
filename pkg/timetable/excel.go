package timetable

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/xuri/excelize/v2"
)

// LoadWorkbook reads the first sheet of an xlsx workbook into a raw cell grid
// for ParseGrid. Only the first sheet is read; that is where the reps keep the
// timetable.
func LoadWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// LoadWorkbookFile is LoadWorkbook for a file on disk.
func LoadWorkbookFile(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// Fetch downloads a workbook over HTTP (e.g. a Google Sheet exported as xlsx)
// and returns its grid.
func Fetch(url string) ([][]string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch workbook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch workbook: bad status %s", resp.Status)
	}
	return LoadWorkbook(resp.Body)
}
