package itembank

// bankFileSchema defines the JSON schema for item bank files.
// Range checks here mirror validateItems so malformed files are rejected
// with schema-level messages before calibration validation runs.
var bankFileSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"items": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":      "string",
						"minLength": 1,
					},
					"domain": map[string]any{
						"type": "string",
						"enum": []any{"verbal", "numerical", "spatial", "logical", "memory"},
					},
					"discrimination": map[string]any{
						"type":             "number",
						"exclusiveMinimum": 0,
					},
					"difficulty": map[string]any{
						"type": "number",
					},
					"guessing": map[string]any{
						"type":             "number",
						"minimum":          0,
						"exclusiveMaximum": 1,
					},
				},
				"required":             []any{"id", "domain", "discrimination", "difficulty"},
				"additionalProperties": false,
			},
		},
		"exposure": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sessions": map[string]any{
					"type":    "integer",
					"minimum": 0,
				},
				"counts": map[string]any{
					"type": "object",
					"additionalProperties": map[string]any{
						"type":    "integer",
						"minimum": 0,
					},
				},
			},
			"additionalProperties": false,
		},
	},
	"required":             []any{"items"},
	"additionalProperties": false,
}
