// Package cohere implements the Cohere generate provider.
//
//	POST {base_url}/generate
//	{"model":"command","prompt":"...","maxTokens":150,"temperature":0.7}
//
// The generated text is read from generations[0].text.
package cohere
