package media

import (
	"fmt"

	"golang.org/x/sys/unix"

	"autosub/internal/services"
)

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (free uint64, err error)

var statfs statfsFunc = realStatfs

// CheckFreeSpace verifies that dir sits on a filesystem with at least
// minBytes available before a download is attempted.
func CheckFreeSpace(dir string, minBytes int64) error {
	if minBytes <= 0 {
		return nil
	}
	free, err := statfs(dir)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "media", "preflight",
			fmt.Sprintf("statfs %s", dir), err)
	}
	if free < uint64(minBytes) {
		return services.Wrap(services.ErrConfiguration, "media", "preflight",
			fmt.Sprintf("insufficient free space in %s: %d bytes available, %d required", dir, free, minBytes), nil)
	}
	return nil
}

func realStatfs(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
