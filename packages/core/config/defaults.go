package config

const (
	DefaultWorkspaceDir = ".hitdesk"
	DefaultHistoryDB    = "history.db"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		WorkspaceDir:    DefaultWorkspaceDir,
		Timeout:         30000, // 30 seconds
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    10,
		ValidateSSL:     BoolPtr(true),
		HistoryDB:       DefaultHistoryDB,
		LogLevel:        "info",
		Bail:            BoolPtr(false),
		NoColor:         BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.WorkspaceDir == defaults.WorkspaceDir &&
		c.DefaultEnvironment == defaults.DefaultEnvironment &&
		c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == defaults.Proxy &&
		len(c.Headers) == 0 &&
		c.HistoryDB == defaults.HistoryDB &&
		c.LogFile == defaults.LogFile &&
		c.LogLevel == defaults.LogLevel &&
		c.RunRate == defaults.RunRate &&
		c.GetBail() == defaults.GetBail() &&
		c.GetNoColor() == defaults.GetNoColor()
}
