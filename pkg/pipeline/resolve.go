package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/matzehuels/idplease/pkg/errors"
	"github.com/matzehuels/idplease/pkg/integrations"
	"github.com/matzehuels/idplease/pkg/integrations/ens"
	"github.com/matzehuels/idplease/pkg/integrations/seize"
	"github.com/matzehuels/idplease/pkg/observability"
	"github.com/matzehuels/idplease/pkg/passport"
	"github.com/matzehuels/idplease/pkg/reputation"
)

// resolve fetches everything known about handle. The identity, rating
// logs and creation date are fetched concurrently; the ENS lookup follows
// the identity because it needs the wallet. Only the identity lookup can
// fail the stage.
func (r *Runner) resolve(ctx context.Context, handle string, refresh bool, logger *log.Logger) (res *Resolution, err error) {
	handle = strings.TrimSpace(handle)
	if err := apperrors.ValidateHandle(handle); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	hooks := observability.Pipeline()
	hooks.OnResolveStart(ctx, runID, handle)
	began := time.Now()
	defer func() { hooks.OnResolveComplete(ctx, runID, handle, time.Since(began), err) }()

	logger = logger.With("run", runID[:8], "handle", handle)
	logger.Debug("resolving identity")

	var (
		identity *seize.Identity
		logs     []seize.LogEntry
		created  time.Time
		names    ens.Resolution
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		id, err := r.Seize.FetchIdentity(gctx, handle, refresh)
		if err != nil {
			return err
		}
		identity = id
		logger.Info("resolved identity", "wallet", id.PrimaryWallet)

		if r.Names != nil && id.PrimaryWallet != "" {
			names = r.Names.Resolve(gctx, id.PrimaryWallet, refresh)
			if !names.Empty() {
				logger.Info("resolved ens", "name", names.Name, "expiry", names.Expiry)
			}
		}
		return nil
	})
	g.Go(func() error {
		entries, err := r.Seize.FetchAllLogs(gctx, handle, refresh)
		logs = entries
		if err != nil {
			logger.Debug("rating logs interrupted", "collected", len(entries), "error", err)
		}
		return nil
	})
	g.Go(func() error {
		t, err := r.Seize.FetchProfileCreated(gctx, handle, refresh)
		if err != nil {
			logger.Warn("profile creation date unavailable", "error", err)
			return nil
		}
		created = t
		return nil
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, canceled(ctx, err)
		}
		if errors.Is(err, integrations.ErrNotFound) || apperrors.Is(err, apperrors.ErrCodeNotFound) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeNotFound, err, "identity %s not found", handle)
	}

	rep := reputation.Aggregate(ReputationEntries(logs), handle)
	logger.Debug("aggregated reputation", "entries", len(logs), "categories", len(rep.Categories), "highest", rep.Highest)

	res = &Resolution{
		RunID:      runID,
		Identity:   identity,
		LogCount:   len(logs),
		Reputation: rep,
		ENS:        names,
		Resolved: passport.Resolved{
			Handle:     handle,
			Wallet:     identity.PrimaryWallet,
			TokenID:    identity.PFPTokenID.String(),
			Avatar:     integrations.RewriteIPFS(identity.PFP, r.Gateway),
			Reputation: rep.Highest,
			LineNumber: rep.LineNumber(),
			ENSName:    names.Name,
			ENSExpiry:  names.Expiry,
			Created:    created,
		},
	}
	return res, nil
}

// ReputationEntries converts API log entries to aggregation input.
func ReputationEntries(logs []seize.LogEntry) []reputation.Entry {
	out := make([]reputation.Entry, 0, len(logs))
	for _, l := range logs {
		out = append(out, reputation.Entry{
			Target:       l.TargetProfileHandle,
			Category:     l.Contents.RatingCategory,
			Delta:        int64(l.Contents.NewRating),
			ChangeReason: l.Contents.ChangeReason,
		})
	}
	return out
}
