package domain

import _ "embed" // for the default few-shot examples

// DefaultFewShotExamples is a worked observation/headline example for Brand
// Growth Study decks, offered when the user asks for the built-in examples.
//
//go:embed fewshot_default.md
var DefaultFewShotExamples string
