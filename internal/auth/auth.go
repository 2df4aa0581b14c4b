// Package auth loads the optional credential file and implements the
// connection trust gate: once a credential file is loaded (even one with no
// valid entries), a connection must authenticate before any other command
// is accepted.
//
// The file format is grounded on the original C implementation's
// mx_create_auth_table: one "user pass" pair per line, first whitespace
// run splits the two fields, blank lines and lines whose first non-blank
// character is '#' are skipped.
package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Table is a read-only-after-load mapping from username to shared secret.
type Table struct {
	credentials map[string]string
}

// Load parses a credential file in the "user pass" line format. An empty
// path means authentication is disabled entirely; callers should check
// path == "" before calling Load.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening auth file: %w", err)
	}
	defer f.Close()

	t := &Table{credentials: make(map[string]string)}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		t.credentials[fields[0]] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading auth file: %w", err)
	}

	return t, nil
}

// Verify reports whether user/pass matches a loaded credential.
func (t *Table) Verify(user, pass string) bool {
	if t == nil {
		return false
	}
	want, ok := t.credentials[user]
	return ok && want == pass
}

// Len reports how many credentials were loaded.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.credentials)
}
