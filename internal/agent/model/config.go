package model

// ================ Config ================

// AgentConfig bounds the SQL retry loop.
type AgentConfig struct {
	MaxIterations int `envconfig:"AGENT_MAX_ITERATIONS" default:"3"`
}

// ConversationConfig controls history cropping and session persistence.
type ConversationConfig struct {
	MaxHistoryMessages int    `envconfig:"CONVERSATION_MAX_HISTORY_MESSAGES" default:"20"`
	SessionTTL         string `envconfig:"CONVERSATION_SESSION_TTL" default:"720h"`
}

type RouterModelConfig struct {
	Model     string `envconfig:"ROUTER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens int    `envconfig:"ROUTER_MAX_TOKENS" default:"2000"`
}

type QAModelConfig struct {
	Model       string  `envconfig:"QA_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"QA_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"QA_TEMPERATURE" default:"0.4"`
}

type SQLModelConfig struct {
	Model     string `envconfig:"SQL_MODEL" default:"gemini-2.5-flash"`
	MaxTokens int    `envconfig:"SQL_MAX_TOKENS" default:"2000"`
}

type SynthesizerModelConfig struct {
	Model       string  `envconfig:"SYNTHESIZER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"SYNTHESIZER_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"SYNTHESIZER_TEMPERATURE" default:"0.4"`
}
