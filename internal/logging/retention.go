package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanupOldLogs removes osmworld-*.log files in dir older than retentionDays.
// A non-positive retention keeps everything. The returned count covers files
// actually removed; failures to remove individual files are collected.
func CleanupOldLogs(dir string, retentionDays int, now time.Time) (int, error) {
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read log directory: %w", err)
	}

	cutoff := now.Add(-time.Duration(retentionDays) * 24 * time.Hour)
	removed := 0
	var failures []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "osmworld-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			failures = append(failures, name)
			continue
		}
		removed++
	}
	if len(failures) > 0 {
		return removed, fmt.Errorf("remove old logs: %s", strings.Join(failures, ", "))
	}
	return removed, nil
}
