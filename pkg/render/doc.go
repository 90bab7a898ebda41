// Package render groups the raster output of idplease.
//
//   - [avatar] loads profile pictures from files, URLs and ipfs:// references
//   - [passport] draws the passport card onto a 1200×800 canvas
//
// [avatar]: https://pkg.go.dev/github.com/matzehuels/idplease/pkg/render/avatar
// [passport]: https://pkg.go.dev/github.com/matzehuels/idplease/pkg/render/passport
package render
