// Package objectkey maps local file paths to bucket keys.
package objectkey

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Layout describes how local files are arranged in the bucket.
type Layout struct {
	// TargetFolder is the key prefix every upload goes under.
	TargetFolder string
	// UseDatePaths inserts year=Y/month=M/day=D after the target folder.
	UseDatePaths bool
	// NoLocalFileParent drops the directory directly holding each file.
	NoLocalFileParent bool
	// NoMainLocalFolder drops the top-level local directory.
	NoMainLocalFolder bool
	// Sanitize replaces characters that are not S3-safe in every segment.
	Sanitize bool
}

// Object is the bucket location of one local file.
type Object struct {
	Dir  string
	Name string
}

// Key is the full object key.
func (o Object) Key() string {
	if o.Dir == "" {
		return o.Name
	}
	return o.Dir + "/" + o.Name
}

// DatePath formats the run date partition. Month and day are not zero
// padded, matching the existing bucket layout.
func DatePath(t time.Time) string {
	return fmt.Sprintf("year=%d/month=%d/day=%d", t.Year(), int(t.Month()), t.Day())
}

// Prefix is the part of every key that comes before the local directories.
func (l Layout) Prefix(runDate time.Time) string {
	parts := segments(l.TargetFolder)
	if l.UseDatePaths {
		parts = append(parts, strings.Split(DatePath(runDate), "/")...)
	}
	return strings.Join(parts, "/")
}

// Object computes where localPath is stored for a run on runDate.
func (l Layout) Object(localPath string, runDate time.Time) (Object, error) {
	dir, name := filepath.Split(filepath.Clean(localPath))
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return Object{}, fmt.Errorf("invalid file path: %q", localPath)
	}

	local := segments(filepath.ToSlash(dir))
	if l.NoLocalFileParent && len(local) > 0 {
		local = local[:len(local)-1]
	}
	if l.NoMainLocalFolder && len(local) > 0 {
		local = local[1:]
	}

	parts := segments(l.Prefix(runDate))
	parts = append(parts, local...)
	if l.Sanitize {
		for i := range parts {
			parts[i] = Sanitize(parts[i])
		}
		name = Sanitize(name)
	}
	return Object{Dir: strings.Join(parts, "/"), Name: name}, nil
}

// MetadataKey is the monthly catalogue object under the target folder.
func MetadataKey(targetFolder string, runDate time.Time) string {
	name := fmt.Sprintf("metadata-%d-%d.csv", runDate.Year(), int(runDate.Month()))
	return path.Join(append(segments(targetFolder), name)...)
}

// Sanitize replaces characters that are not S3-safe with underscores.
// Allowed: alphanumeric, hyphen, underscore, period, equals.
func Sanitize(s string) string {
	var b strings.Builder
	for _, c := range s {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '_' || c == '.' || c == '=' {
			b.WriteRune(c)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// segments splits a slash path dropping empty, "." and ".." elements.
func segments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s == "" || s == "." || s == ".." {
			continue
		}
		out = append(out, s)
	}
	return out
}
