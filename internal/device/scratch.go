package device

import (
	"path"

	"github.com/google/uuid"
)

// Scratch decides where transient files live on the device.
type Scratch struct {
	// Dir is the remote directory, e.g. /sdcard.
	Dir string

	// Unique gives each call its own file, removed afterwards. Without it the
	// same file is reused by every call and left in place.
	Unique bool
}

// DefaultScratch uses per-call files under /sdcard.
func DefaultScratch() Scratch {
	return Scratch{Dir: "/sdcard", Unique: true}
}

// ScreenshotPath returns the remote screenshot path and whether the caller
// should remove it when done.
func (s Scratch) ScreenshotPath() (string, bool) {
	return s.file("mcp_screenshot", ".png")
}

// DumpPath returns the remote UI dump path and whether the caller should
// remove it when done.
func (s Scratch) DumpPath() (string, bool) {
	return s.file("view", ".xml")
}

func (s Scratch) file(stem, ext string) (string, bool) {
	dir := s.Dir
	if dir == "" {
		dir = "/sdcard"
	}
	if !s.Unique {
		return path.Join(dir, stem+ext), false
	}
	return path.Join(dir, stem+"-"+uuid.NewString()+ext), true
}
