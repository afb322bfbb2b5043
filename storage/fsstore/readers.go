package fsstore

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/poiesic/eventsift/storage"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readJSON decodes a JSON file and normalizes its shape. Numbers are kept as
// json.Number so large identifiers survive unchanged.
func readJSON(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return storage.NormalizeItems(raw)
}

// readCSV reads a CSV file whose header row names the fields. Every value is
// a string; empty cells are omitted.
func readCSV(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []map[string]any{}, nil
		}
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], string(utf8BOM))
	}

	items := []map[string]any{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		item := make(map[string]any, len(header))
		for i, value := range row {
			if i >= len(header) || value == "" {
				continue
			}
			item[strings.TrimSpace(header[i])] = value
		}
		if len(item) > 0 {
			items = append(items, item)
		}
	}
	return items, nil
}
