package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/agrigate/agrigate/internal/warehouse"
)

type EncodeResult struct {
	Data        []byte
	RecordCount int64
}

// Result rows keep their source schema inside a JSON payload so one
// parquet layout serves every warehouse table shape.
type resultRow struct {
	InvocationID string `parquet:"invocation_id"`
	RowIndex     int64  `parquet:"row_index"`
	PayloadJSON  string `parquet:"payload_json"`
}

func EncodeResultToParquet(invocationID string, table warehouse.Table) (EncodeResult, error) {
	if strings.TrimSpace(invocationID) == "" {
		return EncodeResult{}, fmt.Errorf("invocation id is required")
	}

	rows := make([]resultRow, 0, len(table.Rows))
	for i, values := range table.Rows {
		if len(values) != len(table.Columns) {
			return EncodeResult{}, fmt.Errorf("row %d has %d values for %d columns", i, len(values), len(table.Columns))
		}
		payload := make(map[string]any, len(table.Columns))
		for j, column := range table.Columns {
			payload[column] = values[j]
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			return EncodeResult{}, fmt.Errorf("encode row %d: %w", i, err)
		}
		rows = append(rows, resultRow{
			InvocationID: invocationID,
			RowIndex:     int64(i),
			PayloadJSON:  string(encoded),
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[resultRow](buf)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return EncodeResult{}, fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return EncodeResult{}, fmt.Errorf("close parquet writer: %w", err)
	}

	return EncodeResult{Data: buf.Bytes(), RecordCount: int64(len(rows))}, nil
}
