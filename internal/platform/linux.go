package platform

// getLinuxInfo returns platform-specific information for Linux
func getLinuxInfo(homeDir, username string) *Info {
	return &Info{
		OS:        Linux,
		HomeDir:   homeDir,
		Username:  username,
		ConfigDir: userConfigDir(homeDir),
		ProtectedPaths: []string{
			"/",
			"/bin",
			"/boot",
			"/dev",
			"/etc",
			"/lib",
			"/lib64",
			"/proc",
			"/root",
			"/run",
			"/sbin",
			"/sys",
			"/usr",
			"/var",
		},
	}
}
