package token

// Credentials are login credentials carrying a user id and free-form
// attributes. The attribute map is owned by the instance.
type Credentials struct {
	UserID     string
	attributes map[string]string
}

// NewCredentials creates credentials for the given user id.
func NewCredentials(userID string) *Credentials {
	return &Credentials{
		UserID:     userID,
		attributes: make(map[string]string),
	}
}

// SetAttribute sets an attribute.
func (c *Credentials) SetAttribute(name, value string) {
	c.attributes[name] = value
}

// Attribute returns an attribute value and whether it is set.
func (c *Credentials) Attribute(name string) (string, bool) {
	v, ok := c.attributes[name]
	return v, ok
}

// Attributes returns a copy of all attributes.
func (c *Credentials) Attributes() map[string]string {
	out := make(map[string]string, len(c.attributes))
	for k, v := range c.attributes {
		out[k] = v
	}
	return out
}

// TokenCredentials present an already issued token string, plus the
// attributes the caller supplied alongside it.
type TokenCredentials struct {
	token      string
	attributes map[string]string
}

// NewTokenCredentials creates token credentials for the given token string.
func NewTokenCredentials(token string) *TokenCredentials {
	return &TokenCredentials{
		token:      token,
		attributes: make(map[string]string),
	}
}

// Token returns the presented token string.
func (c *TokenCredentials) Token() string {
	return c.token
}

// SetAttribute sets an attribute.
func (c *TokenCredentials) SetAttribute(name, value string) {
	c.attributes[name] = value
}

// Attribute returns an attribute value and whether it is set.
func (c *TokenCredentials) Attribute(name string) (string, bool) {
	v, ok := c.attributes[name]
	return v, ok
}

// Attributes returns a copy of all attributes.
func (c *TokenCredentials) Attributes() map[string]string {
	out := make(map[string]string, len(c.attributes))
	for k, v := range c.attributes {
		out[k] = v
	}
	return out
}
