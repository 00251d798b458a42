package token

import (
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	log "github.com/stephnangue/gatekeeper/logger"
	"github.com/stephnangue/gatekeeper/tree"
)

// record is the internal property set of a token node.
type record struct {
	KeyHash   string `mapstructure:"auth:token.key"`
	ExpiresAt int64  `mapstructure:"auth:token.exp"`
}

// Info is a handle onto one stored token record. The attribute maps are
// owned by the handle; they are snapshots taken at resolution time.
type Info struct {
	provider *Provider

	token      string
	path       string
	id         string
	identityID string

	expiresAt time.Time
	keyHash   string

	mandatory map[string]string
	public    map[string]string
}

func newInfo(p *Provider, node tree.Node, token, identityID string) *Info {
	props := node.Properties()

	var rec record
	if err := mapstructure.Decode(props, &rec); err != nil {
		p.logger.Debug("malformed token record properties",
			log.String("path", node.Path()),
			log.Err(err))
	}

	mandatory, public := classifyAttributes(props)

	return &Info{
		provider:   p,
		token:      token,
		path:       node.Path(),
		id:         node.ID(),
		identityID: identityID,
		expiresAt:  time.UnixMilli(rec.ExpiresAt),
		keyHash:    rec.KeyHash,
		mandatory:  mandatory,
		public:     public,
	}
}

// Token returns the full token string.
func (i *Info) Token() string {
	return i.token
}

// UserID returns the id of the identity the token was issued for.
func (i *Info) UserID() string {
	return i.identityID
}

// ExpiresAt returns the absolute expiry.
func (i *Info) ExpiresAt() time.Time {
	return i.expiresAt
}

// MandatoryAttributes returns a copy of the mandatory attributes.
func (i *Info) MandatoryAttributes() map[string]string {
	out := make(map[string]string, len(i.mandatory))
	for k, v := range i.mandatory {
		out[k] = v
	}
	return out
}

// PublicAttributes returns a copy of the public attributes.
func (i *Info) PublicAttributes() map[string]string {
	out := make(map[string]string, len(i.public))
	for k, v := range i.public {
		out[k] = v
	}
	return out
}

// IsExpired reports whether the token is expired at the given time.
func (i *Info) IsExpired(now time.Time) bool {
	return now.After(i.expiresAt)
}

// Matches validates presented token credentials against this record. The
// secret is everything after the last delimiter of the presented token
// string. The key hash comparison does not leak timing information
// proportional to the mismatch position. Every mandatory attribute must be
// present with an exactly equal value. On success, public attributes are
// copied onto the credentials without overwriting values the caller
// already set.
func (i *Info) Matches(creds *TokenCredentials) bool {
	if creds == nil {
		return false
	}

	secret := creds.Token()
	if pos := strings.LastIndexByte(secret, Delimiter); pos >= 0 {
		secret = secret[pos+1:]
	}
	if !Verify(i.keyHash, secret+i.identityID) {
		return false
	}

	for name, expected := range i.mandatory {
		if actual, ok := creds.Attribute(name); !ok || actual != expected {
			return false
		}
	}

	for name, value := range i.public {
		if _, ok := creds.Attribute(name); !ok {
			creds.SetAttribute(name, value)
		}
	}
	return true
}

// RefreshExpiration slides the expiry to now+ttl. It only writes when the
// remaining validity is at most half the configured time-to-live, which
// amortizes writes across many logins; otherwise it returns false without
// touching storage. A commit conflict is abandoned, not retried: a future
// login will refresh again.
func (i *Info) RefreshExpiration(now time.Time) bool {
	p := i.provider
	if !p.config.Refresh {
		p.logger.Debug("token refresh disabled by configuration")
		return false
	}

	node := p.root.Tree(i.path)
	if !node.Exists() {
		return false
	}
	if i.IsExpired(now) {
		p.logger.Debug("attempt to refresh an expired token",
			log.String("path", i.path))
		return false
	}
	if i.expiresAt.Sub(now) > p.config.Expiration/2 {
		return false
	}

	expiresAt := now.Add(p.config.Expiration)
	node.SetProperty(ExpProp, expiresAt.UnixMilli())

	outcome, err := p.root.Commit(tree.InternalMarker())
	if outcome != tree.Committed {
		p.logger.Debug("failed to refresh token expiration",
			log.String("outcome", outcome.String()),
			log.Err(err))
		p.root.Refresh()
		return false
	}

	i.expiresAt = expiresAt
	p.logger.Debug("token expiration refreshed",
		log.Time("expires_at", expiresAt))
	return true
}

// Revoke removes the token record. It returns false when the record no
// longer exists or the commit fails; revocation is never retried.
func (i *Info) Revoke() bool {
	p := i.provider

	node := p.root.Tree(i.path)
	if !node.Exists() || !node.Remove() {
		return false
	}

	outcome, err := p.root.Commit(tree.InternalMarker())
	if outcome != tree.Committed {
		p.logger.Debug("failed to revoke token",
			log.String("outcome", outcome.String()),
			log.Err(err))
		p.root.Refresh()
		return false
	}
	return true
}
