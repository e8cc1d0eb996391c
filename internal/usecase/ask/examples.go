package ask

// exampleQueries helps users phrase research questions the index can answer.
var exampleQueries = []string{
	"What methods are used for volatility analysis in financial markets?",
	"What are GARCH models and how are they applied?",
	"What factors influence stock volatility?",
	"Compare different approaches to volatility forecasting",
	"What metrics are used to assess portfolio risk?",
	"How do neural networks perform in volatility prediction?",
	"What is the relationship between market microstructure and volatility?",
	"Describe the main volatility clustering phenomena",
}

// ExampleQueries returns sample questions for the configured index.
func ExampleQueries() []string {
	out := make([]string, len(exampleQueries))
	copy(out, exampleQueries)
	return out
}
