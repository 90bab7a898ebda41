// Package pkg provides the libraries behind idplease, the 6529 Network
// digital passport generator.
//
// # Overview
//
// A passport is a 1200×800 PNG card showing a profile's handle, avatar,
// strongest reputation category, wallet-derived passport number, ENS name
// and a machine-readable zone. The pkg directory is organized into:
//
//  1. [integrations] - Remote clients (6529 API over HTTP, ENS over JSON-RPC)
//  2. [reputation], [passport] - Pure domain logic (aggregation, records, MRZ)
//  3. [render] - Avatar loading and card drawing
//  4. [pipeline] - Orchestration (resolve → build → render)
//  5. [cache], [session], [io] - Caching, the interactive latch, saved records
//
// # Architecture
//
//	6529 API (identity, rating logs, profile creation)   ENS (reverse + expiry)
//	         ↓                                                    ↓
//	    [pipeline] resolve ────────────────────────────────────────┘
//	         ↓
//	    [reputation] aggregate → [passport] build record with overrides
//	         ↓
//	    [render/passport] draw card (avatar via [render/avatar])
//	         ↓
//	    PNG (+ optional saved record via [io])
//
// # Quick Start
//
//	runner, _ := pipeline.NewRunner(fileCache, nil, logger)
//	defer runner.Close()
//
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Handle:    "punk6529",
//	    Overrides: passport.Overrides{Authority: "6529 Museum"},
//	})
//	if err != nil {
//	    return err // errors.Is(err, errors.ErrCodeNotFound): identity unknown
//	}
//	os.WriteFile(result.Filename, result.PNG, 0o644)
//
// [integrations]: https://pkg.go.dev/github.com/matzehuels/idplease/pkg/integrations
// [reputation]: https://pkg.go.dev/github.com/matzehuels/idplease/pkg/reputation
// [passport]: https://pkg.go.dev/github.com/matzehuels/idplease/pkg/passport
// [render]: https://pkg.go.dev/github.com/matzehuels/idplease/pkg/render
// [render/passport]: https://pkg.go.dev/github.com/matzehuels/idplease/pkg/render/passport
// [render/avatar]: https://pkg.go.dev/github.com/matzehuels/idplease/pkg/render/avatar
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/idplease/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/idplease/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/idplease/pkg/session
// [io]: https://pkg.go.dev/github.com/matzehuels/idplease/pkg/io
package pkg
