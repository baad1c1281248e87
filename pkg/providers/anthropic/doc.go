// Package anthropic implements the Anthropic text completion provider.
//
//	POST {base_url}/v1/complete
//	{"model":"claude-2.1","prompt":"...","max_tokens":150,"stop_sequences":["\n"]}
//
// The key is sent both as a bearer token and in x-api-key, together with the
// anthropic-version header. The generated text is read from completion.
package anthropic
