// Package fixtures loads CSV-backed test data.
package fixtures

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Case is a single question with an optional expected answer.
type Case struct {
	Input          string
	ExpectedOutput string
}

// LoadCases reads {input_text, expected_output} rows from a CSV file with a
// header row.
func LoadCases(path string) ([]Case, error) {
	rows, header, err := readAll(path)
	if err != nil {
		return nil, err
	}

	inputCol, ok := header["input_text"]
	if !ok {
		return nil, fmt.Errorf("%s: missing required column 'input_text'", path)
	}
	expectedCol, hasExpected := header["expected_output"]

	cases := make([]Case, 0, len(rows))
	for _, row := range rows {
		c := Case{Input: row[inputCol]}
		if hasExpected {
			c.ExpectedOutput = row[expectedCol]
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// LoadTranscripts reads pre-recorded conversation transcripts from the
// 'Conversation' column of a CSV file with a header row.
func LoadTranscripts(path string) ([]string, error) {
	rows, header, err := readAll(path)
	if err != nil {
		return nil, err
	}

	col, ok := header["Conversation"]
	if !ok {
		return nil, fmt.Errorf("%s: missing required column 'Conversation'", path)
	}

	transcripts := make([]string, 0, len(rows))
	for _, row := range rows {
		transcripts = append(transcripts, row[col])
	}
	return transcripts, nil
}

// readAll reads a CSV file and returns its data rows plus a column-name index
// built from the header row.
func readAll(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open fixture file: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)

	headerRow, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%s: empty fixture file", path)
	} else if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	header := make(map[string]int, len(headerRow))
	for i, name := range headerRow {
		header[name] = i
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, header, nil
}
