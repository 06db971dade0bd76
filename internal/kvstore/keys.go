package kvstore

const (
	// keyNamespace prefixes every key written by this application.
	keyNamespace = "techtrack"

	// KeyTechnologies is the logical key holding the per-user override
	// document.
	KeyTechnologies = "technologies"
)

// UserKey builds the storage key for a logical key scoped to a user.
// Partitioning by user means switching users switches partitions with no
// cross-contamination.
func UserKey(username, logical string) string {
	return keyNamespace + "_" + username + "_" + logical
}

// UserPrefix returns the prefix covering every key of a user, used for
// clearing all user data.
func UserPrefix(username string) string {
	return keyNamespace + "_" + username + "_"
}
