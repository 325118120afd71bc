package exports

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes every table as rows prefixed with the group title. The
// header is written once, taken from the first table.
func WriteCSV(w io.Writer, data ExportData) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	if len(data.Tables) > 0 {
		if err := writer.Write(append([]string{"Kategorie"}, data.Tables[0].Header...)); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	for _, table := range data.Tables {
		for _, row := range table.Body {
			if err := writer.Write(append([]string{table.Title}, row...)); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
