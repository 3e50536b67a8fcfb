package local

import "encoding/binary"

const (
	// BucketMeta holds one schema version entry per container
	BucketMeta = "meta"
)

// IndexedFields are the secondary lookups kept next to the container.
var IndexedFields = []string{"recordId", "displayName"}

// ContainerBucket returns the bucket holding the records, keyed by recordId
func ContainerBucket(name string) []byte {
	return []byte(name)
}

// IndexBucket returns the bucket for a secondary index on field
func IndexBucket(name, field string) []byte {
	return []byte(name + ".idx." + field)
}

// VersionKey returns the meta key storing the container's schema version
func VersionKey(name string) []byte {
	return []byte(name + ".version")
}

// IndexKey returns uvarint(len(value)) value recordID, so the entries of one
// value never share a prefix with those of another.
func IndexKey(value, recordID string) []byte {
	return append(IndexPrefix(value), recordID...)
}

// IndexPrefix returns the key prefix of every entry for value
func IndexPrefix(value string) []byte {
	k := make([]byte, 0, binary.MaxVarintLen64+len(value))
	k = binary.AppendUvarint(k, uint64(len(value)))
	return append(k, value...)
}

// RecordIDFromIndexKey extracts the record id from an index key
func RecordIDFromIndexKey(key []byte) (string, bool) {
	n, w := binary.Uvarint(key)
	if w <= 0 || uint64(len(key)-w) < n {
		return "", false
	}
	return string(key[w+int(n):]), true
}
