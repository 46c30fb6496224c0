//go:build !windows
// +build !windows

package progressbar

import "os"

func enableVT(*os.File) {}
