package features

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/valpere/slovnyk/internal/finalize"
)

// ReadRecords loads raw records from a JSON or YAML file. The file is
// either a list of records or a finalized dictionary, whose entries are
// attributed to source.
func ReadRecords(path, source string) ([]RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var probe any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	switch doc := probe.(type) {
	case map[string]any:
		if _, ok := doc["entries"]; !ok {
			return nil, fmt.Errorf("%s: expected a record list or a dictionary with entries", path)
		}
		a, err := finalize.Read(path)
		if err != nil {
			return nil, err
		}
		records := make([]RawRecord, 0, len(a.Entries))
		for _, e := range a.Entries {
			records = append(records, FromEntry(e, source))
		}
		return records, nil
	case []any:
		var records []RawRecord
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to parse records in %s: %w", path, err)
		}
		return records, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%s: expected a record list or a dictionary with entries", path)
	}
}
