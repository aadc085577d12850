package lookup

import (
	"agentdash/domain/core"
	"agentdash/domain/dataset"
)

// ExtractEntities returns the distinct values of column in first-occurrence
// order. Values are compared by their text form; blank cells are kept as a
// single empty entity, matching how the column would be deduplicated in a
// spreadsheet.
func ExtractEntities(ds *dataset.Dataset, column string) ([]Entity, error) {
	if ds == nil {
		return nil, core.ErrNoDataset
	}
	col, err := ds.Column(column)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, col.Len())
	entities := make([]Entity, 0)
	for _, v := range col.Values {
		key := v.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		entities = append(entities, Entity{Column: column, Value: key})
	}
	return entities, nil
}
