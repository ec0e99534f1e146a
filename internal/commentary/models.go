package commentary

// Provider and model constants
const (
	ProviderGrok       = "grok"
	ProviderOpenAI     = "openai"
	ProviderTemplate   = "template"
	DefaultProvider    = ProviderGrok
	DefaultGrokModel   = "grok-3"
	DefaultOpenAIModel = "gpt-4o"
	DefaultMaxTokens   = 300

	xaiBaseURL = "https://api.x.ai/v1"
)
