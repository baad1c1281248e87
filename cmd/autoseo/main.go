// Autoseo fills draft content items with SEO categories and tags generated
// by an LLM provider.
//
// It provides:
//   - Category and tag generation through OpenAI, Anthropic, or Cohere
//   - Per-provider request ceilings shared across processes
//   - A persistent activity log with alerts on errors
//   - An administrative HTTP server with scheduled processing
//
// Usage:
//
//	# Process every draft item with the default provider
//	autoseo process
//
//	# Process at most 10 drafts with Anthropic
//	autoseo process --provider anthropic --limit 10
//
//	# Show the last 100 activity log lines
//	autoseo logs show --lines 100
//
//	# Raise the OpenAI ceiling to 90 requests per minute
//	autoseo ratelimit set openai 90
//
//	# Run the admin server and the scheduled jobs
//	autoseo serve --config /etc/autoseo/autoseo.yaml
package main

func main() {
	Execute()
}
