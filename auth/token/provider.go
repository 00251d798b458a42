package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-uuid"

	"github.com/stephnangue/gatekeeper/config"
	"github.com/stephnangue/gatekeeper/helper"
	"github.com/stephnangue/gatekeeper/identity"
	log "github.com/stephnangue/gatekeeper/logger"
	"github.com/stephnangue/gatekeeper/tree"
)

var (
	// ErrIdentityNotFound is returned when the identity is unknown, a
	// group, or disabled.
	ErrIdentityNotFound = errors.New("identity not found or not active")

	// ErrContainerUnavailable is returned when the per-identity token
	// container could not be provisioned. This blocks all further
	// issuance for that identity.
	ErrContainerUnavailable = errors.New("unable to provision token container")

	// ErrStorageFailure is returned for backend faults, including an
	// exhausted conflict retry.
	ErrStorageFailure = errors.New("failed to commit token record")
)

// Provider issues and resolves login tokens persisted as records in a
// shared versioned tree. It wraps a single snapshot root; callers that need
// isolation from each other take one Provider per session and rely on the
// store's conflict detection, not on in-process locking.
type Provider struct {
	root   tree.Root
	dir    identity.Directory
	config *Config
	logger log.Logger
}

// NewProvider creates a token provider on top of the given snapshot root
// and identity directory.
func NewProvider(root tree.Root, dir identity.Directory, cfg *Config, logger log.Logger) *Provider {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Provider{
		root:   root,
		dir:    dir,
		config: cfg,
		logger: logger.WithSubsystem("token"),
	}
}

// ShouldIssue reports whether the credentials explicitly request a new
// token: they carry the token attribute with an empty value. It has no side
// effects.
func (p *Provider) ShouldIssue(creds *Credentials) bool {
	if creds == nil {
		return false
	}
	attr, ok := creds.Attribute(TokenAttribute)
	return ok && attr == ""
}

// IssueForCredentials issues a token for the user the credentials identify
// and writes the token string back onto them, without overwriting anything
// the caller set.
func (p *Provider) IssueForCredentials(creds *Credentials) (*Info, error) {
	if creds == nil || creds.UserID == "" {
		return nil, ErrIdentityNotFound
	}
	info, err := p.Issue(creds.UserID, creds.Attributes())
	if err != nil {
		return nil, err
	}
	creds.SetAttribute(TokenAttribute, info.Token())
	return info, nil
}

// Issue mints a new token record for the given identity. The record
// carries the salted key hash, the absolute expiry and all non-reserved
// attributes. Record creation is retried exactly once with a fresh random
// name when the commit loses a race; container creation is never retried
// since it is idempotent by path.
func (p *Provider) Issue(identityID string, attributes map[string]string) (*Info, error) {
	ident, err := p.dir.ByID(identityID)
	if err != nil || !ident.Loginable() {
		p.logger.Debug("cannot issue token: no active identity",
			log.String("identity_id", identityID))
		return nil, ErrIdentityNotFound
	}

	parent := p.tokenContainer(ident)
	if parent == nil {
		p.logger.Error("unable to get or create token container",
			log.String("identity_id", identityID))
		return nil, ErrContainerUnavailable
	}

	issuedAt := time.Now()
	expiresAt := issuedAt.Add(p.expirationFor(attributes))

	info, outcome, err := p.createRecord(parent, ident, expiresAt, attributes)
	if outcome == tree.Conflict {
		// Lost the race against another writer: refresh and retry once
		// under a fresh random name.
		p.logger.Debug("conflict while committing token record, retrying",
			log.String("identity_id", identityID))
		p.root.Refresh()
		info, outcome, err = p.createRecord(parent, ident, expiresAt, attributes)
	}
	if outcome != tree.Committed {
		p.logger.Error("failed to create login token",
			log.String("identity_id", identityID),
			log.String("outcome", outcome.String()),
			log.Err(err))
		return nil, fmt.Errorf("%w: %s", ErrStorageFailure, outcome)
	}

	p.cleanupExpired(ident.ID, parent, issuedAt, info.Token())

	return info, nil
}

// Resolve maps a presented token string to its stored record. The record
// identity is everything before the first delimiter. It returns nil when
// the record is missing, structurally invalid, or its owning identity does
// not resolve to an active identity. Resolve never mutates the tree.
func (p *Provider) Resolve(token string) *Info {
	nodeID := token
	if pos := strings.IndexByte(token, Delimiter); pos >= 0 {
		nodeID = token[:pos]
	}

	node := p.root.NodeByID(nodeID)
	if !isValidRecordNode(node) {
		return nil
	}

	identityPath := node.Parent().Parent().Path()
	ident, err := p.dir.ByPath(identityPath)
	if err != nil || !ident.Loginable() {
		p.logger.Debug("cannot resolve token: owning identity not active",
			log.String("path", identityPath))
		return nil
	}

	return newInfo(p, node, token, ident.ID)
}

// expirationFor returns the time-to-live for a new token, honoring an
// explicit override attribute. A malformed override falls back to the
// configured default.
func (p *Provider) expirationFor(attributes map[string]string) time.Duration {
	if raw, ok := attributes[config.OptTokenExpiration]; ok {
		return config.ParseDuration(raw, p.config.Expiration)
	}
	return p.config.Expiration
}

// tokenContainer returns the identity's token container, creating it lazily.
// A commit conflict means another caller created it concurrently: refresh
// the snapshot and use theirs instead of retrying the creation.
func (p *Provider) tokenContainer(ident *identity.Identity) tree.Node {
	identityNode := p.root.Tree(ident.Path)
	if !identityNode.Exists() {
		p.logger.Debug("identity node missing in tree",
			log.String("path", ident.Path))
		return nil
	}

	container, err := tree.GetOrAddChild(identityNode, ContainerName, ContainerKind)
	if err != nil {
		p.logger.Debug("error while creating token container",
			log.Err(err))
		return nil
	}

	outcome, err := p.root.Commit(tree.InternalMarker())
	switch outcome {
	case tree.Committed:
		return container
	case tree.Conflict:
		p.logger.Debug("conflict while creating token container, re-fetching")
		p.root.Refresh()
		refreshed := p.root.Tree(container.Path())
		if refreshed.Exists() {
			return refreshed
		}
		return nil
	default:
		p.logger.Debug("failed to commit token container",
			log.Err(err))
		return nil
	}
}

// createRecord stages one token record under parent and attempts a single
// commit.
func (p *Provider) createRecord(parent tree.Node, ident *identity.Identity, expiresAt time.Time, attributes map[string]string) (*Info, tree.Outcome, error) {
	name, err := uuid.GenerateUUID()
	if err != nil {
		return nil, tree.Fatal, err
	}

	node, err := parent.AddChild(name, RecordKind)
	if err != nil {
		return nil, tree.Fatal, err
	}

	secret := helper.GenerateSecret(p.config.KeyLength)
	keyHash, err := Hash(secret+ident.ID, p.config.Hash)
	if err != nil {
		return nil, tree.Fatal, err
	}

	node.SetProperty(KeyProp, keyHash)
	node.SetProperty(ExpProp, expiresAt.UnixMilli())
	for attrName, value := range attributes {
		if !isReservedAttribute(attrName) {
			node.SetProperty(attrName, value)
		}
	}

	outcome, err := p.root.Commit(tree.InternalMarker())
	if outcome != tree.Committed {
		return nil, outcome, err
	}

	token := node.ID() + string(Delimiter) + secret
	return newInfo(p, node, token, ident.ID), tree.Committed, nil
}

// isValidRecordNode checks that the node exists, is a token record, and
// lives inside a token container.
func isValidRecordNode(node tree.Node) bool {
	return node.Exists() &&
		node.Kind() == RecordKind &&
		node.Parent().Name() == ContainerName
}
