// Package llm defines the language-model client contract the planner speaks:
// given a bounded conversational context, the current user input and the set
// of advertised agent capabilities, a Client returns either a direct textual
// answer or an ordered plan of agent invocations. Provider adapters live in
// sub-packages (openai, anthropic); a scripted MockClient supports tests.
package llm
