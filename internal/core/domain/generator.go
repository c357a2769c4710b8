package domain

// DefaultGeneratorID identifies the built-in fallback generator.
const DefaultGeneratorID = "bgs_default"

// GeneratorDescriptor describes a server-defined generation profile.
type GeneratorDescriptor struct {
	// ID uniquely identifies the generator.
	ID string `json:"id"`
	// Name is the human-readable label.
	Name string `json:"name"`
	// ExamplePrompt is a suggested prompt for this generator.
	ExamplePrompt string `json:"example_prompt"`
}

// DefaultGenerator returns the descriptor used when the catalog cannot be
// fetched, so the workflow is never blocked by catalog unavailability.
func DefaultGenerator() GeneratorDescriptor {
	return GeneratorDescriptor{
		ID:   DefaultGeneratorID,
		Name: "Brand Growth Study (Default)",
	}
}
