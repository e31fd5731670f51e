package platform

import "path/filepath"

// getMacOSInfo returns platform-specific information for macOS.
// The config directory follows the XDG layout so dotfiles stay portable.
func getMacOSInfo(homeDir, username string) *Info {
	return &Info{
		OS:        MacOS,
		HomeDir:   homeDir,
		Username:  username,
		ConfigDir: userConfigDir(homeDir),
		ProtectedPaths: []string{
			"/",
			"/bin",
			"/dev",
			"/etc",
			"/sbin",
			"/usr",
			"/var",
			"/System",
			"/Applications",
			"/Library/System",
			filepath.Join(homeDir, "Library"),
		},
	}
}
