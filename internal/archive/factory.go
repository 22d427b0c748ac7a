package archive

import (
	"context"
	"fmt"
	"os"

	"tiercore/internal/infra/archive/fs"
	"tiercore/internal/infra/archive/memory"
	"tiercore/internal/infra/archive/s3"
)

// Open selects an archive.Store implementation using environment variables.
//
//	TIERCORE_ARCHIVE_DRIVER: fs|s3|memory (default fs)
//	TIERCORE_ARCHIVE_FS_ROOT: directory root when driver=fs (default ./snapshots)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("TIERCORE_ARCHIVE_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		root := os.Getenv("TIERCORE_ARCHIVE_FS_ROOT")
		return fs.New(root)
	case DriverS3:
		return s3.OpenFromEnv(ctx)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown archive driver %s", driver)
	}
}
