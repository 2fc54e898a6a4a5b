package dynamo

// Config holds configuration for Source and CacheEngine.
type Config struct {
	// CacheTable is the name of the table backing CacheEngine.
	// Default: "barrel_cache"
	CacheTable string

	// KeyAttribute is the partition key attribute of the cache table.
	// Default: "pk"
	KeyAttribute string

	// DocumentAttribute holds the cached document as a map attribute.
	// Default: "doc"
	DocumentAttribute string

	// MaxKeyLength bounds cache keys in bytes. Longer keys are shortened
	// with a digest suffix.
	// Default: 1024
	// Max: 2048 (DynamoDB partition key limit)
	MaxKeyLength int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheTable:        "barrel_cache",
		KeyAttribute:      "pk",
		DocumentAttribute: "doc",
		MaxKeyLength:      1024,
	}
}

// validate fills unset values and clamps MaxKeyLength.
func (c *Config) validate() {
	if c.CacheTable == "" {
		c.CacheTable = "barrel_cache"
	}
	if c.KeyAttribute == "" {
		c.KeyAttribute = "pk"
	}
	if c.DocumentAttribute == "" {
		c.DocumentAttribute = "doc"
	}
	if c.MaxKeyLength < 1 {
		c.MaxKeyLength = 1024
	}
	if c.MaxKeyLength > 2048 {
		c.MaxKeyLength = 2048
	}
}
