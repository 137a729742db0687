package draft

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/lessongen/internal/lesson"
)

// CSVImporter turns a CSV file into one table block. The first record holds
// the headers; data rows are grouped in batches of 20.
type CSVImporter struct{}

const csvBatchSize = 20

func (p *CSVImporter) Import(r io.Reader, filename string) (*lesson.Lesson, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := NewBuilder(baseTitle(filename))
	if len(records) == 0 {
		return b.Lesson(), nil
	}

	headers := records[0]
	block := lesson.Block{Type: lesson.Table, Headers: headers}
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := i + csvBatchSize
		if end > len(dataRows) {
			end = len(dataRows)
		}
		g := lesson.TableGroup{
			Group: fmt.Sprintf("Rows %d-%d", i+2, end+1), // 1-indexed, skip header
			Items: append([][]string(nil), dataRows[i:end]...),
		}
		block.Rows = append(block.Rows, fitRows(g, len(headers)))
	}
	if block.Rows == nil {
		block.Rows = []lesson.TableGroup{fitRows(lesson.TableGroup{}, len(headers))}
	}

	b.Section(baseTitle(filename))
	b.Add(block)
	return b.Lesson(), nil
}
