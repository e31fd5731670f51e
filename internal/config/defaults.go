package config

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		Scan: ScanConfig{
			ExcludePatterns: []string{
				".git",
				".hg",
				".svn",
				"node_modules",
				".DS_Store",
			},
			MinSize:   "1B",
			ChunkSize: "64KB",
		},
		Interactive: InteractiveConfig{
			DryRun: false,
		},
		Output: OutputConfig{
			Format: "summary",
		},
		Log: LogConfig{
			Level: "warn",
		},
		ProtectedPaths: []string{
			"/System",
			"/Applications",
			"/Library/System",
			"/bin",
			"/sbin",
			"/usr",
			"/etc",
			"/boot",
			"/lib",
			"/lib64",
			"/proc",
			"/sys",
			"/dev",
		},
	}
}

// GetExampleConfig returns an example configuration with comments
func GetExampleConfig() string {
	return `# dupsweep configuration
# Location: ~/.config/dupsweep/config.yaml (a .toml file works too)

scan:
  # Glob patterns matched against the base name or the full path.
  # Matching directories are not descended into.
  exclude_patterns:
    - ".git"
    - ".hg"
    - ".svn"
    - "node_modules"
    - ".DS_Store"
  min_size: "1B"       # empty files are never reported
  max_size: ""         # empty means unlimited
  skip_hidden: false
  chunk_size: "64KB"   # read size while hashing
  workers: 0           # 0 picks a default from the CPU count
  verify: false        # byte-compare members after hashing

interactive:
  dry_run: false       # evaluate every guard but delete nothing
  manifest_path: ""    # write a record of deleted files here
  tui: false           # full-screen selector instead of line prompts

output:
  format: "summary"    # summary, table, json or yaml
  no_color: false
  verbose: false

log:
  level: "warn"        # debug, info, warn or error
  file: ""             # JSON log file, always at debug level

# Deletions inside these trees' top level are always refused
protected_paths:
  - "/usr"
  - "/etc"
`
}
