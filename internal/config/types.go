package config

// Config is the merged paramsel configuration.
type Config struct {
	Directory DirectoryConfig `yaml:"directory" json:"directory"`
	Selector  SelectorConfig  `yaml:"selector" json:"selector"`
	UI        UIConfig        `yaml:"ui" json:"ui"`
	Log       LogConfig       `yaml:"log" json:"log"`
}

// DirectoryConfig selects and tunes the directory source.
type DirectoryConfig struct {
	Catalog  string `yaml:"catalog" json:"catalog"`
	URL      string `yaml:"url" json:"url"`
	PageSize int    `yaml:"page_size" json:"page_size"`
	Timeout  string `yaml:"timeout" json:"timeout"`
	Filter   string `yaml:"filter" json:"filter"`
	Latency  string `yaml:"latency" json:"latency"`
}

// SelectorConfig controls which parts of a parameter name are offered.
type SelectorConfig struct {
	EnableFields     bool   `yaml:"enable_fields" json:"enable_fields"`
	EnableProtocols  bool   `yaml:"enable_protocols" json:"enable_protocols"`
	NoProtocolOption string `yaml:"no_protocol_option" json:"no_protocol_option"`
}

// UIConfig tunes the interactive selector.
type UIConfig struct {
	NoColor    bool `yaml:"no_color" json:"no_color"`
	ListHeight int  `yaml:"list_height" json:"list_height"`
}

// LogConfig sets the log verbosity (0 = info, 1 = debug).
type LogConfig struct {
	Level int `yaml:"level" json:"level"`
}
