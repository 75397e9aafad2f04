package monitoring

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// DiskStatus describes the filesystem holding a directory.
type DiskStatus struct {
	Path        string  `json:"path"`
	TotalBytes  uint64  `json:"totalBytes"`
	FreeBytes   uint64  `json:"freeBytes"`
	UsedPercent float64 `json:"usedPercent"`
}

// DiskUsage reads the usage of the volume that contains dir.
func DiskUsage(ctx context.Context, dir string) (DiskStatus, error) {
	u, err := disk.UsageWithContext(ctx, dir)
	if err != nil {
		return DiskStatus{}, fmt.Errorf("failed to read disk usage of %s: %w", dir, err)
	}
	return DiskStatus{
		Path:        dir,
		TotalBytes:  u.Total,
		FreeBytes:   u.Free,
		UsedPercent: u.UsedPercent,
	}, nil
}
