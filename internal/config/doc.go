// Package config provides configuration loading for chat-relay.
//
// # Configuration File
//
// Configuration is a YAML file. Environment variables in ${VAR_NAME}
// format are expanded before parsing, so secrets stay out of the file:
//
//	server:
//	  http_addr: "localhost:8000"
//
//	llm:
//	  provider: "groq"              # groq | gemini
//	  model: "llama-3.1-8b-instant"
//	  api_key: "${GROQ_API_KEY}"
//	  timeout: "30s"
//
//	memory:
//	  mem0_url: "https://api.mem0.ai"
//	  api_key: "${MEM0_API_KEY}"
//	  database_path: "data/memory.db"
//	  history_limit: 10
//	  timeout: "5s"
//
//	registry:
//	  url: ""                       # optional remote agent registry
//	  default_agent: "support-agent"
//
//	livekit:
//	  url: "wss://example.livekit.cloud"
//	  api_key: "${LIVEKIT_API_KEY}"
//	  api_secret: "${LIVEKIT_API_SECRET}"
//	  token_ttl: "6h"
//
//	logging:
//	  level: "info"                 # debug | info | warn | error
//	  format: "text"                # text | json
//
// # Durations
//
// Duration fields are written as Go duration strings ("30s", "6h") and
// parsed into time.Duration during Load.
//
// # Validation
//
// Load applies defaults for absent fields and then validates: the LLM
// provider must be a known value, the fallback database path is required,
// and LiveKit credentials must be configured as a key/secret pair or not
// at all.
package config
