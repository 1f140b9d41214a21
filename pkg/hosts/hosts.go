// Package hosts idempotently manages roost's block in the OS hosts file:
// one "127.0.0.1 <domain>" / "::1 <domain>" pair per registered Domain,
// bracketed by sentinel comments, with the rest of the file left untouched.
package hosts

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/roostdev/roost/pkg/rooterr"
	"github.com/roostdev/roost/pkg/trust"
)

const (
	beginMarker = "# BEGIN ROOST"
	endMarker   = "# END ROOST"
)

func defaultPath() string {
	if v := os.Getenv("ROOST_HOSTS_FILE"); v != "" {
		return v
	}
	return "/etc/hosts"
}

// File manages the roost-owned block of a single hosts file.
type File struct {
	path string
	exec trust.PrivilegedExec
}

// New returns a File for the current platform's hosts path (or
// ROOST_HOSTS_FILE, if set), using exec for privileged writes.
func New(exec trust.PrivilegedExec) *File {
	return &File{path: defaultPath(), exec: exec}
}

// Ensure rewrites the roost block so it contains exactly the given domains,
// sorted and de-duplicated, leaving the rest of the file untouched.
func (f *File) Ensure(domains []string) error {
	return f.withLock(func() error {
		lines, err := f.readLines()
		if err != nil {
			return err
		}
		newLines := replaceBlock(lines, sortedUnique(domains))
		return f.write(newLines)
	})
}

// Remove deletes a single domain from the roost block, if present.
func (f *File) Remove(domain string) error {
	return f.withLock(func() error {
		lines, err := f.readLines()
		if err != nil {
			return err
		}
		current := blockDomains(lines)
		filtered := current[:0]
		for _, d := range current {
			if d != domain {
				filtered = append(filtered, d)
			}
		}
		newLines := replaceBlock(lines, filtered)
		return f.write(newLines)
	})
}

// Clear empties the roost block entirely.
func (f *File) Clear() error {
	return f.withLock(func() error {
		lines, err := f.readLines()
		if err != nil {
			return err
		}
		return f.write(replaceBlock(lines, nil))
	})
}

// Domains returns the domains currently present in the roost block.
func (f *File) Domains() ([]string, error) {
	lines, err := f.readLines()
	if err != nil {
		return nil, err
	}
	return blockDomains(lines), nil
}

func (f *File) readLines() ([]string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read hosts file: %w", err)
	}
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, nil
}

// replaceBlock returns lines with the roost-marked block replaced by one
// "127.0.0.1 <domain>" / "::1 <domain>" pair per domain. If no marker is
// present, the block is appended after a single blank line.
func replaceBlock(lines []string, domains []string) []string {
	begin, end := findBlock(lines)

	var block []string
	block = append(block, beginMarker)
	for _, d := range domains {
		block = append(block, fmt.Sprintf("127.0.0.1 %s", d))
		block = append(block, fmt.Sprintf("::1 %s", d))
	}
	block = append(block, endMarker)

	if begin < 0 {
		out := make([]string, 0, len(lines)+len(block)+1)
		out = append(out, lines...)
		if len(out) > 0 && out[len(out)-1] != "" {
			out = append(out, "")
		}
		out = append(out, block...)
		return out
	}

	out := make([]string, 0, len(lines)-(end-begin+1)+len(block))
	out = append(out, lines[:begin]...)
	out = append(out, block...)
	out = append(out, lines[end+1:]...)
	return out
}

func findBlock(lines []string) (begin, end int) {
	begin, end = -1, -1
	for i, line := range lines {
		if strings.TrimSpace(line) == beginMarker {
			begin = i
		}
		if strings.TrimSpace(line) == endMarker && begin >= 0 {
			end = i
			break
		}
	}
	if begin >= 0 && end < 0 {
		end = len(lines) - 1
	}
	return begin, end
}

func blockDomains(lines []string) []string {
	begin, end := findBlock(lines)
	if begin < 0 {
		return nil
	}
	seen := map[string]bool{}
	var domains []string
	for _, line := range lines[begin+1 : end] {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		if !seen[fields[1]] {
			seen[fields[1]] = true
			domains = append(domains, fields[1])
		}
	}
	return domains
}

func sortedUnique(domains []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range domains {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

// write stages the new content in a temp file, then asks the PrivilegedExec
// backend to copy it over the real hosts path, requesting OS elevation.
func (f *File) write(lines []string) error {
	content := strings.Join(lines, "\n")
	if len(content) == 0 || content[len(content)-1:] != "\n" {
		content += "\n"
	}

	tmp, err := os.CreateTemp("", "roost-hosts-*")
	if err != nil {
		return fmt.Errorf("create temp hosts file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp hosts file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp hosts file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp hosts file: %w", err)
	}

	if err := f.exec.Run(elevateCommand(), elevateArgs(tmp.Name(), f.path)...); err != nil {
		return fmt.Errorf("%w: %v", rooterr.ErrPermissionDenied, err)
	}
	return nil
}

// withLock serializes read-modify-write across concurrent roost processes
// using a platform-specific advisory lock on a sibling lock file beside the
// hosts path (see hosts_unix.go / hosts_windows.go).
func (f *File) withLock(fn func() error) error {
	lockPath := f.path + ".roost.lock"
	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open hosts lock file: %w", err)
	}
	defer lock.Close()

	if err := lockFile(lock); err != nil {
		return fmt.Errorf("lock hosts file: %w", err)
	}
	defer unlockFile(lock)

	return fn()
}
