package block

import (
	"os"
	"path/filepath"
	"strings"
)

// IDFromArgument resolves a caller-supplied hex prefix against the blocks
// persisted under workDir. It succeeds iff exactly one persisted block id
// has that prefix; a full-length argument matches only itself. Ambiguity or
// no match reports ok == false.
func IDFromArgument(workDir, prefix string) (id string, ok bool) {
	dir := filepath.Join(workDir, "blocks")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	var match string
	count := 0
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, prefix) {
			match = name
			count++
			if count > 1 {
				return "", false
			}
		}
	}
	if count != 1 {
		return "", false
	}
	return match, true
}
