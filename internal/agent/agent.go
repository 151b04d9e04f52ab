// ABOUTME: Agent persona type and the built-in fallback roster
// ABOUTME: Personas are immutable once loaded; the builtin table is the availability floor

package agent

// Agent is a named AI persona with a fixed system prompt and display metadata.
// Agents are immutable once loaded into a Registry.
type Agent struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// Builtin returns the fixed built-in persona roster, in display order.
// This list is the fallback whenever a remote registry is unreachable:
// the relay must always have agents to route to.
func Builtin() []Agent {
	return []Agent{
		{
			Name:        "support-agent",
			Role:        "Customer Support",
			Description: "Helps users with technical issues and questions",
			SystemPrompt: "You are a Customer Support agent for Attack Capital. " +
				"Your goal is to help users with technical issues and questions. " +
				"Be friendly, helpful, and provide clear instructions.",
		},
		{
			Name:        "sales-agent",
			Role:        "Sales Representative",
			Description: "Helps users with product information and purchases",
			SystemPrompt: "You are a Sales Representative for Attack Capital. " +
				"Your goal is to help users understand our products and make informed decisions. " +
				"Be persuasive but honest, highlighting the benefits of our offerings.",
		},
		{
			Name:        "advisor-agent",
			Role:        "Financial Advisor",
			Description: "Provides financial advice and investment strategies",
			SystemPrompt: "You are a Financial Advisor for Attack Capital. " +
				"Your goal is to help users with financial planning and investment strategies. " +
				"Provide thoughtful, personalized advice based on user goals and risk tolerance.",
		},
	}
}
