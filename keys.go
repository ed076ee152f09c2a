package graphrag

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultOwner is the sentinel owner assigned to documents whose storage
// key carries no owner path segment. Mis-keyed uploads are accepted under
// this partition rather than rejected.
const DefaultOwner = "default_user"

// keyPrefix is the first path segment of every storage key.
const keyPrefix = "documents"

// OwnerFromKey derives the owner id from a storage key of the form
// documents/{ownerID}/{uniqueID}_{filename}. Keys without an owner segment
// fall back to DefaultOwner.
func OwnerFromKey(storageKey string) string {
	parts := strings.Split(storageKey, "/")
	if len(parts) < 2 || parts[1] == "" {
		return DefaultOwner
	}
	return parts[1]
}

// MakeStorageKey builds a fresh storage key for an upload. The unique
// prefix keeps same-named uploads from colliding; spaces in the filename
// are replaced so the key stays a single path segment.
func MakeStorageKey(ownerID, filename string) string {
	if ownerID == "" {
		ownerID = DefaultOwner
	}
	unique := uuid.NewString()[:8]
	safe := strings.ReplaceAll(filename, " ", "_")
	return fmt.Sprintf("%s/%s/%s_%s", keyPrefix, ownerID, unique, safe)
}

// ChunkRecordID derives the deterministic vector record id for one chunk
// slot. Re-ingesting the same document overwrites the same ids.
func ChunkRecordID(sourceKey string, index int) string {
	return fmt.Sprintf("%s_%d", sourceKey, index)
}
