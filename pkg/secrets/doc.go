// Package secrets resolves ${secret:name} references in credential fields
// of the configuration.
//
// A reference is looked up in each provider in order and the first value
// found wins:
//
//	resolver := secrets.NewResolver(
//	    secrets.NewEnvProvider("AUTOSEO_SECRET_"),
//	    fileProvider, // one file per secret, e.g. /run/secrets/openai-api-key
//	)
//	key, err := resolver.Expand(ctx, "${secret:openai-api-key}")
//
// The environment provider maps "openai-api-key" to
// AUTOSEO_SECRET_OPENAI_API_KEY. The file provider reads
// <dir>/openai-api-key and refuses files readable by group or others.
package secrets
