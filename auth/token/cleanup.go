package token

import (
	"time"

	log "github.com/stephnangue/gatekeeper/logger"
	"github.com/stephnangue/gatekeeper/tree"
)

// shouldSample gates cleanup on the first character of the freshly
// generated token, a hexadecimal digit: it passes for roughly the lower
// one-eighth of the range, so about 1 in 8 issuances pay the cleanup cost
// without needing a separate random source.
func shouldSample(token string) bool {
	return token != "" && token[0] < '2'
}

// recordExpiredBefore reports whether a record's expiry lies before the
// given instant. A record without a readable expiry counts as expired.
func recordExpiredBefore(node tree.Node, at time.Time) bool {
	raw, ok := node.Property(ExpProp)
	if !ok {
		return true
	}
	ms, ok := raw.(int64)
	if !ok {
		return true
	}
	return time.UnixMilli(ms).Before(at)
}

// cleanupExpired prunes expired records from the container after a
// successful issuance. It only runs when a cleanup threshold is configured
// and the sampling gate passes; the container size is counted with an
// early-exit bound so a below-threshold container costs next to nothing.
// Expiry is judged against the single issuance timestamp, not re-read per
// child. All removals go into one commit; a conflict abandons the pass
// entirely, since correctness does not depend on cleanup making progress
// every time.
func (p *Provider) cleanupExpired(identityID string, parent tree.Node, issuedAt time.Time, token string) {
	threshold := p.config.CleanupThreshold
	if threshold <= NoCleanupThreshold || !shouldSample(token) {
		return
	}

	start := time.Now()
	var active, expired int

	if parent.ChildrenCount(threshold) >= threshold {
		for _, child := range parent.Children() {
			if recordExpiredBefore(child, issuedAt) {
				expired++
				child.Remove()
			} else {
				active++
			}
		}
	}

	if p.root.HasPendingChanges() {
		outcome, err := p.root.Commit(tree.InternalMarker())
		if outcome != tree.Committed {
			p.logger.Debug("failed to cleanup expired token records",
				log.String("outcome", outcome.String()),
				log.Err(err))
			p.root.Refresh()
			return
		}
	}

	if active+expired > 0 && p.logger.IsLevelEnabled(log.DebugLevel) {
		p.logger.Debug("token cleanup completed",
			log.String("identity_id", identityID),
			log.Duration("took", time.Since(start)),
			log.Int("removed", expired),
			log.Int("scanned", active+expired))
	}
}
