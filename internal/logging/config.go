package logging

type Level string

const (
	LevelTrace Level = "trace"
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

type Config struct {
	Level  Level  `yaml:"level" env:"GROWTHFIT_LOG_LEVEL" validate:"required,oneof=trace debug info warn error fatal"`
	Format Format `yaml:"format" env:"GROWTHFIT_LOG_FORMAT" validate:"required,oneof=json console"`
}

func DefaultConfig() Config {
	return Config{Level: LevelInfo, Format: FormatConsole}
}
