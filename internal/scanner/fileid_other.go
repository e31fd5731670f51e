//go:build !unix

package scanner

import "os"

func fileIdentity(info os.FileInfo) (dev, ino, nlink uint64, ok bool) {
	return 0, 0, 0, false
}
