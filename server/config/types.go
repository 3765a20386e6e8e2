package config

// Configuration object extracted from YAML configuration file.
type Configuration struct {
	Server Server              `mapstructure:"server"`
	Game   Game                `mapstructure:"game"`
	User   User                `mapstructure:"user"`
	Redis  *RedisConfiguration `mapstructure:"redis"`
	Argon2 Argon2Password      `mapstructure:"argon2"`
}

type Server struct {
	Port int `mapstructure:"port"`
}

// Game represents the round timing and history settings (durations in milliseconds).
type Game struct {
	BettingDuration   int `mapstructure:"betting_duration"`
	PreparingDuration int `mapstructure:"preparing_duration"`
	CrashedDuration   int `mapstructure:"crashed_duration"`
	TickInterval      int `mapstructure:"tick_interval"`
	HistorySize       int `mapstructure:"history_size"`
}

type User struct {
	DefaultBalance int64 `mapstructure:"defaultBalance"` // 新用户初始余额(分)
	MinWithdrawal  int64 `mapstructure:"minWithdrawal"`  // 最低提款金额(分)
}

// Argon2Password represents the argon2 hashing settings.
type Argon2Password struct {
	Variant     string `mapstructure:"variant"`
	Iterations  int    `mapstructure:"iterations"`
	Memory      int    `mapstructure:"memory"`
	Parallelism int    `mapstructure:"parallelism"`
	KeyLength   int    `mapstructure:"key_length"`
	SaltLength  int    `mapstructure:"salt_length"`
}

// RedisConfiguration represents the configuration related to the redis history mirror.
type RedisConfiguration struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	DatabaseIndex int    `mapstructure:"database_index"`
}
