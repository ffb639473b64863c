package cache

// KeyPrefix namespaces every offline cache key.
const KeyPrefix = "blurt:cache:"

// LastUserKey holds the id of the most recently signed-in user.
const LastUserKey = KeyPrefix + "last-user-id"

// SessionsKey is the cached session list of one user.
func SessionsKey(userID string) string {
	return KeyPrefix + "sessions:" + userID
}

// TemplatesKey is the cached template list of one user.
func TemplatesKey(userID string) string {
	return KeyPrefix + "templates:" + userID
}
