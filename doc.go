// Package storefront is the composition root of the storefront catalog service.
//
// It connects the catalog mutation protocol (pkg/core) with the store adapters
// (local git working tree, GitHub repository, memory) and the media gateway.
//
// The catalog is a single JSON document. Every mutation fetches it together
// with a content-hash version token, computes the next document and commits
// it only if the token still matches. A concurrent writer therefore gets a
// conflict instead of silently losing an edit.
//
// Usage:
//
//	svc, err := storefront.New("./catalog",
//		storefront.WithAutoInit(true),
//		storefront.WithSecret(os.Getenv("ADMIN_API_KEY")),
//		storefront.WithLogger(logger),
//	)
//
//	id, err := svc.Create(ctx, key, core.DraftFrom(product))
package storefront
