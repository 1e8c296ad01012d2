package schema

// Schemas for the HTTP request bodies. Lengths are applied after the handler
// trims whitespace and drops empty definitions.

const (
	maxWordLength       = 100
	maxDefinitionLength = 2000
	maxDefinitions      = 50
)

var word = map[string]any{"type": "string", "minLength": 1, "maxLength": maxWordLength}

var definition = map[string]any{"type": "string", "minLength": 1, "maxLength": maxDefinitionLength}

// NewWord is the body of POST /words. At least one definition is required.
var NewWord = map[string]any{
	"type":     "object",
	"required": []any{"word", "definitions"},
	"properties": map[string]any{
		"word": word,
		"definitions": map[string]any{
			"type":     "array",
			"minItems": 1,
			"maxItems": maxDefinitions,
			"items":    definition,
		},
	},
	"additionalProperties": false,
}

// EditWord is the body of PUT /words/{id}. Definitions may be empty.
var EditWord = map[string]any{
	"type":     "object",
	"required": []any{"word", "definitions"},
	"properties": map[string]any{
		"id":   map[string]any{"type": "string"},
		"word": word,
		"definitions": map[string]any{
			"type":     "array",
			"maxItems": maxDefinitions,
			"items":    definition,
		},
	},
	"additionalProperties": false,
}

// AppendDefinition is the body of POST /words/definitions.
var AppendDefinition = map[string]any{
	"type":     "object",
	"required": []any{"word", "definition"},
	"properties": map[string]any{
		"word":       word,
		"definition": definition,
	},
	"additionalProperties": false,
}

// Capture is the body of POST /capture. Either a raw transcript or a
// reviewed word list is accepted.
var Capture = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"transcript": map[string]any{"type": "string"},
		"words": map[string]any{
			"type":     "array",
			"maxItems": 200,
			"items":    word,
		},
	},
	"additionalProperties": false,
}

// CaptureArticle is the body of POST /capture/article.
var CaptureArticle = map[string]any{
	"type":     "object",
	"required": []any{"url"},
	"properties": map[string]any{
		"url": map[string]any{"type": "string", "minLength": 1},
	},
	"additionalProperties": false,
}
