// Package storefront adapts the Shopify Storefront GraphQL API to the query
// package.
//
// Client is a query.Fetcher: it POSTs one document per call to
// https://<shop>/api/<version>/graphql.json, wrapped in "query { ... }",
// through a resilience.Guard. Humanize is a query.Shaper that unwraps
// GraphQL connections. The document builders produce the keys and requests
// used for products, metaobjects and videos, and FlattenMetaobject,
// NormalizeProduct and VideoURL turn the shaped payloads into plain values.
package storefront
