package sankhya

import (
	"encoding/json"
	"fmt"
)

// Record is one decoded row, keyed by the real field names announced in the
// page metadata.
type Record map[string]interface{}

// wrapped is Sankhya's scalar envelope: every value on the wire travels as
// {"$": value}.
type wrapped struct {
	Value interface{} `json:"$"`
}

// genericEntity is one row as Sankhya sends it: positional keys f0, f1, ...
// each holding a wrapped scalar.
type genericEntity map[string]wrapped

// entityList tolerates Sankhya answering a single-row page as a bare object
// instead of a one-element array.
type entityList []genericEntity

func (e *entityList) UnmarshalJSON(data []byte) error {
	var many []genericEntity
	if err := json.Unmarshal(data, &many); err == nil {
		*e = many
		return nil
	}
	var one genericEntity
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*e = entityList{one}
	return nil
}

// metadata is the sideband field-order descriptor that accompanies each
// loadRecords page. Descriptor i names the field behind positional key f{i}.
// It is only valid for the page it came with.
type metadata struct {
	Fields struct {
		Field []fieldDescriptor `json:"field"`
	} `json:"fields"`
}

type fieldDescriptor struct {
	Name string `json:"name"`
}

// decodeEntities maps positional keys back to field names. Decoding is
// best-effort: a missing wrapper or value yields a nil entry, never an error,
// so partial metadata cannot fail a whole page.
func decodeEntities(entities []genericEntity, md metadata) []Record {
	fields := md.Fields.Field
	records := make([]Record, 0, len(entities))
	for _, entity := range entities {
		record := make(Record, len(fields))
		for i, field := range fields {
			if field.Name == "" {
				continue
			}
			record[field.Name] = entity[fmt.Sprintf("f%d", i)].Value
		}
		records = append(records, record)
	}
	return records
}
