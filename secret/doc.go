// Package secret resolves credentials referenced from configuration.
//
// A configuration value is first expanded strictly against the environment
// (see Expand), then any secret reference in it is replaced by the value a
// Provider returns for it:
//   - Full value:  secretref:file:/run/secrets/storefront_token
//   - Inline use:  Bearer secretref:env:SHOPIFY_STOREFRONT_TOKEN
//
// Built-in providers are "env" (a lookup function), "file" (file contents,
// trailing whitespace trimmed) and "dotenv" (a key of a .env file, ref
// "path#KEY"). Providers never log secret values.
package secret
