package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/idplease/pkg/cache"
	"github.com/matzehuels/idplease/pkg/observability"
	"github.com/matzehuels/idplease/pkg/passport"
	"github.com/matzehuels/idplease/pkg/render/avatar"
	cardrender "github.com/matzehuels/idplease/pkg/render/passport"
)

// Avatar states recorded in artifact keys when there are no source bytes.
const (
	avatarNone   = "none"
	avatarFailed = "failed"
)

// render loads the avatar and paints rec, consulting the artifact cache.
// A failed avatar load never fails the stage; it is returned as avatarErr
// and the placeholder is drawn.
func (r *Runner) render(ctx context.Context, runID string, rec passport.Record, src avatar.Source, logger *log.Logger) (png []byte, hit bool, avatarErr error, err error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, runID)
	began := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, runID, len(png), time.Since(began), err) }()

	in := cardrender.Input{Record: rec}
	avatarKey := avatarNone
	if !src.Empty() {
		av, loadErr := r.Avatars.Load(ctx, src)
		switch {
		case loadErr != nil:
			if ctx.Err() != nil {
				return nil, false, nil, canceled(ctx, ctx.Err())
			}
			logger.Warn("avatar unavailable, drawing placeholder", "avatar", src.String(), "error", loadErr)
			in.AvatarFailed = true
			avatarErr = loadErr
			avatarKey = avatarFailed
		default:
			in.Avatar = av.Image
			avatarKey = av.Digest
		}
	}

	// In-memory avatars have no digest and are never cached.
	cacheable := avatarKey != ""
	var key string
	if cacheable {
		recordData, _ := json.Marshal(rec)
		opts := r.RenderSettings
		opts.Format = FormatPNG
		opts.Width = cardrender.Width
		opts.Height = cardrender.Height
		opts.AvatarHash = avatarKey
		key = r.Keyer.ArtifactKey(cache.Hash(recordData), opts)

		if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return data, true, avatarErr, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	png, err = r.Renderer.RenderPNG(ctx, in)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, avatarErr, canceled(ctx, err)
		}
		return nil, false, avatarErr, err
	}

	if cacheable {
		if err := r.Cache.Set(ctx, key, png, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(png))
		}
	}
	return png, false, avatarErr, nil
}
