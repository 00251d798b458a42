package token

// Delimiter separates the record identity from the secret in the token
// wire format <recordIdentity>_<secretHex>. Resolution splits on the first
// occurrence, secret extraction on the last.
const Delimiter = '_'

const (
	// TokenAttribute is the credentials attribute requesting token
	// issuance when empty. It doubles as the name prefix of mandatory
	// attributes.
	TokenAttribute = ".token"

	// KeyProp holds the salted hash of secret+identityID on a record.
	KeyProp = "auth:token.key"

	// ExpProp holds the record's absolute expiry in unix milliseconds.
	ExpProp = "auth:token.exp"

	// ContainerName is the name of the per-identity container node.
	ContainerName = ".tokens"

	// RecordKind is the node kind of token records.
	RecordKind = "auth:token"

	// ContainerKind is the node kind of token containers.
	ContainerKind = "auth:tokens"
)

// reservedAttributes never leave the record: they are not classified, not
// matched and not copied onto credentials.
var reservedAttributes = map[string]struct{}{
	TokenAttribute: {},
	KeyProp:        {},
	ExpProp:        {},
}

// reservedNamespaces are internal bookkeeping namespaces; properties with
// these prefixes are not exposed as public attributes.
var reservedNamespaces = map[string]struct{}{
	"auth": {},
	"sys":  {},
}

func isReservedAttribute(name string) bool {
	_, ok := reservedAttributes[name]
	return ok
}
