// Package integrations provides the HTTP plumbing shared by the remote API
// clients of idplease.
//
// # Overview
//
// Each upstream has its own subpackage:
//
//   - [seize]: the 6529 identity and profile-log API
//   - [ens]: ENS reverse resolution and registrar expiry over JSON-RPC
//
// # Client Pattern
//
// HTTP clients embed [Client], which handles:
//   - Request headers (User-Agent, Accept, client defaults)
//   - Response caching through a [cache.Cache] with a per-client namespace
//   - Retries of transient failures (transport errors, 429, 5xx)
//   - Observability hooks for every request
//
//	c := integrations.NewClient(fileCache, "seize:", 10*time.Minute, nil)
//	err := c.Cached(ctx, "identity:alice", false, &out, func() error {
//	    return c.Get(ctx, url, &out)
//	})
//
// # Errors
//
// [ErrNotFound] marks HTTP 404s; [ErrNetwork] marks every other failure.
// Callers decide how each outcome degrades; the 6529 identity lookup, for
// instance, collapses both into "identity not found".
//
// [seize]: github.com/matzehuels/idplease/pkg/integrations/seize
// [ens]: github.com/matzehuels/idplease/pkg/integrations/ens
// [cache.Cache]: github.com/matzehuels/idplease/pkg/cache.Cache
package integrations
