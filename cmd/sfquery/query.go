package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jonwraymond/sfquery/query"
	"github.com/jonwraymond/sfquery/storefront"
)

// Query kinds accepted by --kind.
const (
	kindRaw         = "raw"
	kindProduct     = "product"
	kindMetaobject  = "metaobject"
	kindMetaobjects = "metaobjects"
	kindVideo       = "video"
)

var errUsage = errors.New("sfquery: invalid arguments")

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "run a storefront query through the cache and print the shaped result",
		UsageText: "sfquery query --kind product --id gid://shopify/Product/1\nsfquery query --doc 'shop { name }'",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Usage: "raw, product, metaobject, metaobjects or video",
				Value: kindRaw,
			},
			&cli.StringSliceFlag{
				Name:  "id",
				Usage: "object id (or product handle with --handle); repeat for metaobjects",
			},
			&cli.StringSliceFlag{
				Name:  "doc",
				Usage: "GraphQL selection for --kind raw; repeat for a batch",
			},
			&cli.StringSliceFlag{
				Name:  "key",
				Usage: "query key parts for --kind raw; defaults to the documents",
			},
			&cli.BoolFlag{
				Name:  "handle",
				Usage: "select the product by handle",
			},
			&cli.BoolFlag{
				Name:  "images",
				Usage: "include images and metafield image references",
			},
			&cli.BoolFlag{
				Name:  "refetch",
				Usage: "fetch again after the first result, bypassing the cache",
			},
		},
		Action: queryAction,
	}
}

func queryAction(ctx context.Context, cmd *cli.Command) (err error) {
	q, err := buildQuery(cmd)
	if err != nil {
		return err
	}

	s, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close(context.WithoutCancel(ctx)))
	}()

	h := s.queries.Query(ctx, q.key, q.req)
	defer h.Close()

	state, err := h.Wait(ctx)
	if err != nil {
		return err
	}
	if !state.IsError && cmd.Bool("refetch") {
		h.Refetch()
		if state, err = h.Wait(ctx); err != nil {
			return err
		}
	}
	if state.IsError {
		return state.Err
	}

	return writeJSON(cmd.Root().Writer, q.present(state.Data))
}

// cliQuery is a parsed query invocation.
type cliQuery struct {
	key     query.Key
	req     query.Request
	present func(data any) any
}

func buildQuery(cmd *cli.Command) (cliQuery, error) {
	ids := cmd.StringSlice("id")
	images := cmd.Bool("images")

	firstID := func() (string, error) {
		if len(ids) != 1 {
			return "", fmt.Errorf("%w: --kind %s needs exactly one --id", errUsage, cmd.String("kind"))
		}
		return ids[0], nil
	}

	switch kind := cmd.String("kind"); kind {
	case kindRaw:
		return rawQuery(cmd.StringSlice("doc"), cmd.StringSlice("key"))

	case kindProduct:
		id, err := firstID()
		if err != nil {
			return cliQuery{}, err
		}
		opts := storefront.DefaultProductOptions()
		opts.ByHandle = cmd.Bool("handle")
		opts.IncludeProductImages = images
		opts.IncludeVariantImages = images
		opts.IncludeMetafieldImages = images
		key, req := storefront.ProductQuery(id, opts)
		return cliQuery{key: key, req: req, present: func(data any) any {
			return storefront.NormalizeProduct(field(data, "product"))
		}}, nil

	case kindMetaobject:
		id, err := firstID()
		if err != nil {
			return cliQuery{}, err
		}
		key, req := storefront.MetaobjectQuery(id, images)
		return cliQuery{key: key, req: req, present: func(data any) any {
			return storefront.FlattenMetaobject(field(data, "metaobject"))
		}}, nil

	case kindMetaobjects:
		if len(ids) == 0 {
			return cliQuery{}, fmt.Errorf("%w: --kind metaobjects needs at least one --id", errUsage)
		}
		key, req := storefront.MetaobjectsQuery(ids, images)
		return cliQuery{key: key, req: req, present: func(data any) any {
			list, _ := data.([]any)
			out := make([]any, len(list))
			for i, item := range list {
				out[i] = storefront.FlattenMetaobject(field(item, "metaobject"))
			}
			return out
		}}, nil

	case kindVideo:
		id, err := firstID()
		if err != nil {
			return cliQuery{}, err
		}
		key, req := storefront.VideoQuery(id)
		return cliQuery{key: key, req: req, present: func(data any) any {
			url, _ := storefront.VideoURL(data)
			return url
		}}, nil

	default:
		return cliQuery{}, fmt.Errorf("%w: unknown --kind %q", errUsage, kind)
	}
}

func rawQuery(docs, keyParts []string) (cliQuery, error) {
	if len(docs) == 0 {
		return cliQuery{}, fmt.Errorf("%w: --kind raw needs at least one --doc", errUsage)
	}

	documents := make([]query.Document, len(docs))
	for i, d := range docs {
		documents[i] = query.Document(strings.TrimSpace(d))
	}

	req := query.Single(documents[0])
	if len(documents) > 1 {
		req = query.Batch(documents...)
	}

	key := query.Key{kindRaw}
	if len(keyParts) > 0 {
		key = make(query.Key, len(keyParts))
		for i, p := range keyParts {
			key[i] = p
		}
	} else {
		for _, d := range documents {
			key = append(key, string(d))
		}
	}

	return cliQuery{key: key, req: req, present: func(data any) any { return data }}, nil
}

func field(v any, name string) any {
	m, _ := v.(map[string]any)
	return m[name]
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
