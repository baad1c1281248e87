// Package openai implements the OpenAI chat completions provider.
//
// A prompt is sent as a single user message:
//
//	POST {base_url}/chat/completions
//	{"model":"gpt-4o","messages":[{"role":"user","content":"..."}],"max_tokens":150,"n":1,"temperature":0.7}
//
// The generated text is read from choices[0].message.content.
package openai
