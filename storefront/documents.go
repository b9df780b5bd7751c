package storefront

import (
	"strconv"
	"strings"

	"github.com/jonwraymond/sfquery/query"
)

// Query key names.
const (
	KeyProductVariants = "productVariants"
	KeyMetaobject      = "metaobject"
	KeyMetaobjects     = "metaobjects"
	KeyVideo           = "video"
)

// ProductOptions selects what a product document asks for. The whole value
// is part of the query key, so two call sites with different options never
// share an entry.
type ProductOptions struct {
	ProductFields []string `json:"productFields"`
	VariantFields []string `json:"variantFields"`

	// Metafields are "namespace.key" pairs; a bare key uses the custom
	// namespace.
	Metafields []string `json:"metafields"`

	IncludeProductMetafields bool `json:"includeProductMetafields"`
	IncludeVariantMetafields bool `json:"includeVariantMetafields"`
	IncludeProductImages     bool `json:"includeProductImages"`
	IncludeVariantImages     bool `json:"includeVariantImages"`
	IncludeMetafieldImages   bool `json:"includeMetafieldImages"`

	// ByHandle selects the product by handle instead of by id.
	ByHandle bool `json:"byHandle"`
}

// DefaultProductOptions returns the options used by product pickers.
func DefaultProductOptions() ProductOptions {
	return ProductOptions{
		ProductFields:            []string{"id", "title", "availableForSale"},
		VariantFields:            []string{"id", "title", "price", "availableForSale"},
		IncludeProductMetafields: true,
		IncludeVariantMetafields: true,
	}
}

// ProductQuery returns the key and request for a product with its first 100
// variants. An empty id yields the zero request, which disables the query.
func ProductQuery(id string, opts ProductOptions) (query.Key, query.Request) {
	key := query.Key{KeyProductVariants, id, opts}
	if id == "" {
		return key, query.Request{}
	}

	selector := "product(id: " + strconv.Quote(id) + ")"
	if opts.ByHandle {
		selector = "product(handle: " + strconv.Quote(id) + ")"
	}

	var metafields string
	if len(opts.Metafields) > 0 {
		metafields = metafieldsSelection(opts.Metafields, opts.IncludeMetafieldImages)
	}

	var b strings.Builder
	b.WriteString(selector + " {\n")
	writeFields(&b, opts.ProductFields)
	if opts.IncludeProductMetafields {
		b.WriteString(metafields)
	}
	if opts.IncludeProductImages {
		b.WriteString("images(first: 10) {\nnodes {\nsrc\n}\n}\n")
	}
	b.WriteString("variants(first: 100) {\nedges {\nnode {\n")
	writeFields(&b, opts.VariantFields)
	if opts.IncludeVariantMetafields {
		b.WriteString(metafields)
	}
	if opts.IncludeVariantImages {
		b.WriteString("image {\nsrc\n}\n")
	}
	b.WriteString("}\n}\n}\n}")

	return key, query.Single(query.Document(b.String()))
}

// MetaobjectQuery returns the key and request for one metaobject's fields.
func MetaobjectQuery(id string, withImages bool) (query.Key, query.Request) {
	key := query.Key{KeyMetaobject, id}
	if id == "" {
		return key, query.Request{}
	}
	return key, query.Single(metaobjectDocument(id, withImages))
}

// MetaobjectsQuery returns the key and batch request for several
// metaobjects. The shaped result lists them in id order.
func MetaobjectsQuery(ids []string, withImages bool) (query.Key, query.Request) {
	key := make(query.Key, 0, len(ids)+1)
	key = append(key, KeyMetaobjects)
	for _, id := range ids {
		key = append(key, id)
	}
	if ids == nil {
		return key, query.Request{}
	}

	docs := make([]query.Document, len(ids))
	for i, id := range ids {
		docs[i] = metaobjectDocument(id, withImages)
	}
	return key, query.Batch(docs...)
}

// VideoQuery returns the key and request for a video's sources.
func VideoQuery(id string) (query.Key, query.Request) {
	key := query.Key{KeyVideo, id}
	if id == "" {
		return key, query.Request{}
	}
	doc := "node(id: " + strconv.Quote(id) + ") {\n... on Video {\nsources {\nurl\n}\n}\n}"
	return key, query.Single(query.Document(doc))
}

func metaobjectDocument(id string, withImages bool) query.Document {
	var b strings.Builder
	b.WriteString("metaobject(id: " + strconv.Quote(id) + ") {\n")
	b.WriteString(metaobjectFieldsSelection(withImages))
	b.WriteString("}")
	return query.Document(b.String())
}

func metaobjectFieldsSelection(withImages bool) string {
	s := "fields {\nkey\ntype\nvalue\n"
	if withImages {
		s += "reference {\n... on MediaImage {\nimage {\noriginalSrc\n}\n}\n}\n"
	}
	return s + "}\n"
}

func metafieldsSelection(identifiers []string, withImages bool) string {
	ids := make([]string, len(identifiers))
	for i, ident := range identifiers {
		namespace, key, ok := strings.Cut(ident, ".")
		if !ok {
			namespace, key = "custom", ident
		}
		ids[i] = "{key: " + strconv.Quote(key) + ", namespace: " + strconv.Quote(namespace) + "}"
	}

	sub := "... on Metaobject {\n" + metaobjectFieldsSelection(withImages) + "}\n"

	var b strings.Builder
	b.WriteString("metafields(identifiers: [" + strings.Join(ids, ", ") + "]) {\n")
	b.WriteString("key\nnamespace\ntype\nvalue\n")
	b.WriteString("reference {\n" + sub + "}\n")
	b.WriteString("references(first: 100) {\nedges {\nnode {\n" + sub + "}\n}\n}\n")
	b.WriteString("}\n")
	return b.String()
}

// writeFields writes one field per line, expanding money fields into their
// amount and currency selection.
func writeFields(b *strings.Builder, fields []string) {
	for _, f := range fields {
		switch f {
		case "price", "compareAtPrice":
			b.WriteString(f + " {\namount\ncurrencyCode\n}\n")
		default:
			b.WriteString(f + "\n")
		}
	}
}
