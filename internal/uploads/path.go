package uploads

import (
	"fmt"
	"regexp"
	"time"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeFilename replaces every character outside [A-Za-z0-9.-] with an
// underscore so uploaded names cannot escape their storage prefix or carry
// shell-hostile characters.
func SanitizeFilename(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// BuildPath returns the per-user, timestamp-namespaced storage key for an
// upload: tracks/<userID>/<unixMillis>_<safeName>.
func BuildPath(userID, filename string, now time.Time) string {
	return fmt.Sprintf("tracks/%s/%d_%s", userID, now.UnixMilli(), SanitizeFilename(filename))
}
