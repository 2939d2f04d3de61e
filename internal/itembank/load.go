package itembank

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// bankFile is the wire shape of an item bank JSON file.
type bankFile struct {
	Items    []bankFileItem    `json:"items"`
	Exposure *bankFileExposure `json:"exposure,omitempty"`
}

type bankFileItem struct {
	ID             string  `json:"id"`
	Domain         string  `json:"domain"`
	Discrimination float64 `json:"discrimination"`
	Difficulty     float64 `json:"difficulty"`
	Guessing       float64 `json:"guessing,omitempty"`
}

type bankFileExposure struct {
	Sessions int64            `json:"sessions"`
	Counts   map[string]int64 `json:"counts"`
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// compiledBankSchema compiles the embedded bank file schema once.
func compiledBankSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The jsonschema library expects a parsed JSON value (any), not raw
		// bytes. Marshal then unmarshal to get a clean any representation.
		raw, err := json.Marshal(bankFileSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		const schemaURL = "schema://item-bank.json"
		if err := c.AddResource(schemaURL, parsed); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}

// Parse validates raw JSON against the bank file schema and builds a Bank.
func Parse(data []byte) (*Bank, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	schema, err := compiledBankSchema()
	if err != nil {
		return nil, fmt.Errorf("compile bank schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("bank file schema validation failed: %w", err)
	}

	var bf bankFile
	if err := json.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("decode bank file: %w", err)
	}

	items := make([]Item, len(bf.Items))
	for i, fi := range bf.Items {
		items[i] = Item{
			ID:             fi.ID,
			Domain:         Domain(fi.Domain),
			Discrimination: fi.Discrimination,
			Difficulty:     fi.Difficulty,
			Guessing:       fi.Guessing,
		}
	}

	bank, err := NewBank(items)
	if err != nil {
		return nil, err
	}
	if bf.Exposure != nil {
		bank.SeedExposure(bf.Exposure.Counts, bf.Exposure.Sessions)
	}
	return bank, nil
}

// LoadFile reads and parses an item bank JSON file.
func LoadFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank file: %w", err)
	}
	bank, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bank, nil
}
