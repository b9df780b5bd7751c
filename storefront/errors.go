package storefront

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingShopDomain indicates no shop domain was configured.
	ErrMissingShopDomain = errors.New("storefront: shop domain is required")

	// ErrMissingToken indicates no storefront access token was configured.
	ErrMissingToken = errors.New("storefront: access token is required")

	// ErrInvalidConfig indicates a malformed configuration value.
	ErrInvalidConfig = errors.New("storefront: invalid configuration")

	// ErrStatus matches every *StatusError.
	ErrStatus = errors.New("storefront: unexpected status")

	// ErrDecode indicates the response body was not valid JSON.
	ErrDecode = errors.New("storefront: undecodable response")

	// ErrTooLarge indicates a response body over the read limit.
	ErrTooLarge = errors.New("storefront: response too large")

	// ErrNoData indicates a response without a data field.
	ErrNoData = errors.New("storefront: response has no data")

	// ErrGraphQL matches every *GraphQLError.
	ErrGraphQL = errors.New("storefront: graphql error")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string // first bytes of the response body
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("storefront: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("storefront: unexpected status %d: %s", e.Code, e.Body)
}

// Is reports whether target is ErrStatus.
func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// Temporary reports whether the status suggests an upstream problem rather
// than a bad request.
func (e *StatusError) Temporary() bool {
	return e.Code == 429 || e.Code >= 500
}

// GraphQLError reports the errors array of a GraphQL response.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "storefront: graphql: " + strings.Join(e.Messages, "; ")
}

// Is reports whether target is ErrGraphQL.
func (e *GraphQLError) Is(target error) bool { return target == ErrGraphQL }
