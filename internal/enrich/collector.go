package enrich

import "strconv"

// Tag is one collected key/value pair.
type Tag struct {
	Key   string
	Value string
}

// Collector is the write-only tag sink handed to enrichers. The pipeline
// creates one per record and discards it after the tags are merged, so a
// Collector is never shared between goroutines.
//
// Insertion order is preserved. The first write to a key wins: later writes
// to the same key are ignored, so a static tag cannot change value partway
// through building one record no matter how many enrichers touch the key.
type Collector struct {
	tags []Tag
	seen map[string]struct{}
}

// NewCollector creates an empty tag collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[string]struct{})}
}

// Put records one key/value pair. Empty keys and empty values are ignored:
// an unset configuration field is omitted rather than emitted as an empty tag.
// A key that was already written keeps its original value.
func (c *Collector) Put(key, value string) {
	if key == "" || value == "" {
		return
	}
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.tags = append(c.tags, Tag{Key: key, Value: value})
}

// PutInt records an integer value under key.
func (c *Collector) PutInt(key string, value int) {
	c.Put(key, strconv.Itoa(value))
}

// Tags returns the collected pairs in insertion order.
func (c *Collector) Tags() []Tag {
	out := make([]Tag, len(c.tags))
	copy(out, c.tags)
	return out
}

// Len returns the number of collected pairs.
func (c *Collector) Len() int {
	return len(c.tags)
}
