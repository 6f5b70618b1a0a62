package marketplace

import (
	"bytes"
	"encoding/json"

	"github.com/angelmondragon/packfinderz-discovery/pkg/models"
)

// decodeCatalog accepts a bare array, {"products": [...]}, or {"content": [...]}.
// Any other well-formed JSON decodes to an empty catalog. Records that cannot be
// read are dropped without failing the rest of the catalog.
func decodeCatalog(body []byte) ([]models.Product, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []models.Product{}, nil
	}

	switch trimmed[0] {
	case '[':
		return decodeProductArray(trimmed)
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		for _, key := range []string{"products", "content"} {
			raw, ok := envelope[key]
			if !ok {
				continue
			}
			raw = bytes.TrimSpace(raw)
			if len(raw) > 0 && raw[0] == '[' {
				return decodeProductArray(raw)
			}
		}
		return []models.Product{}, nil
	default:
		if !json.Valid(trimmed) {
			var discard any
			return nil, json.Unmarshal(trimmed, &discard)
		}
		return []models.Product{}, nil
	}
}

func decodeProductArray(raw []byte) ([]models.Product, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(records))
	for _, record := range records {
		record = bytes.TrimSpace(record)
		if len(record) == 0 || record[0] != '{' {
			continue
		}
		var product models.Product
		if err := json.Unmarshal(record, &product); err != nil {
			continue
		}
		products = append(products, product)
	}
	return products, nil
}
