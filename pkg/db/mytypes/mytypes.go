package mytypes

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/f1data/telemetry-service/pkg/model"
)

// JSONDocument maps a jsonb column for use with bob/database/sql scanning.
type JSONDocument model.Document

func (h *JSONDocument) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*h = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("value is not []byte")
	}
	// rows are scanned into the same target, keys of a previous row must not survive
	var doc JSONDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*h = doc
	return nil
}

func (h JSONDocument) Value() (driver.Value, error) {
	if h == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(h)
}
