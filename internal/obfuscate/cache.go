package obfuscate

type cacheKey struct {
	table  string
	column string
	value  string
}

// Cache memoizes obfuscated values per (table, column, original value)
// for the lifetime of one run. The key always includes table and
// column, so the same literal value in two different columns may
// obfuscate differently.
type Cache struct {
	entries map[cacheKey]string
}

func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]string)}
}

// GetOrCompute returns the cached obfuscation for the triple, invoking
// compute and storing the result on a miss.
func (c *Cache) GetOrCompute(table, column, value string, compute func(string) string) string {
	key := cacheKey{table: table, column: column, value: value}
	if v, ok := c.entries[key]; ok {
		return v
	}
	v := compute(value)
	c.entries[key] = v
	return v
}

// Len returns the number of distinct values obfuscated so far.
func (c *Cache) Len() int {
	return len(c.entries)
}
