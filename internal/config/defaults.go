package config

// DefaultConfig returns the default pipeline configuration.
//
// The pixel threshold is deliberately high (2M px) so big logos and
// letterheads on vector pages do not trip the scanned-page path.
func DefaultConfig() Config {
	return Config{
		Classifier: ClassifierConfig{
			ImagePixelThreshold: 2_000_000,
		},
		Render: RenderConfig{
			VectorScale:       2.5,
			MaxImageDimension: 4000,
		},
		Model: ModelConfig{
			Name:            "gpt-4o",
			APIKey:          "${OPENAI_API_KEY}",
			MaxOutputTokens: 16384,
			MaxRetries:      2,
			RetryDelayMS:    1000,
			TimeoutSeconds:  120,
		},
	}
}
