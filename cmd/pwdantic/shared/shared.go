package shared

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/Graph3x/pwdantic/internal/drivers"
)

const configFileName = ".pwdantic.yaml"

type Flags struct {
	LogFormat   *string
	Database    *string
	Driver      *string
	ConfigFile  *string
	Snapshots   *string
	SQLLogLevel *string
}

type Config struct {
	Database    string    `yaml:"database"`
	Driver      string    `yaml:"driver"`
	LogFormat   LogFormat `yaml:"log_format"`
	Snapshots   string    `yaml:"snapshots"`
	SQLLogLevel string    `yaml:"sql_log_level"`
}

type StateT struct {
	Flags  Flags
	Config Config
}

var State StateT //nolint:gochecknoglobals

// Parse loads the configuration file, if one is found.
func (state *StateT) Parse() error {
	cf := state.Configfile()
	if !cf.IsSet() {
		return nil
	}
	contents, err := os.ReadFile(cf.Value())
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(contents, &state.Config); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (state StateT) Configfile() Variable[string] {
	return NewVariable(
		"configfile",
		flagValue(state.Flags.ConfigFile),
		os.Getenv("PWDANTIC_CONFIGFILE"),
		CheckPath(configFileName),   // in cwd
		ProjectPath(configFileName), // next to go.mod
		"",
	)
}

func (state StateT) Database() Variable[string] {
	return NewVariable(
		"database",
		flagValue(state.Flags.Database),
		os.Getenv("DATABASE_URL"),
		state.Config.Database,
		DotEnv(".env", "DATABASE_URL"),
		"",
	)
}

func (state StateT) Driver() Variable[string] {
	return NewVariable(
		"driver",
		flagValue(state.Flags.Driver),
		os.Getenv("PWDANTIC_DRIVER"),
		state.Config.Driver,
		"sqlite",
	).OneOf(drivers.Names...)
}

func (state StateT) LogFormat() Variable[LogFormat] {
	return NewVariable(
		"log-format",
		LogFormat(flagValue(state.Flags.LogFormat)),
		LogFormat(os.Getenv("PWDANTIC_LOG_FORMAT")),
		state.Config.LogFormat,
		LogFormatText,
	).OneOf(LogFormatText, LogFormatJSON)
}

func (state StateT) Snapshots() Variable[string] {
	return NewVariable(
		"snapshots",
		flagValue(state.Flags.Snapshots),
		os.Getenv("PWDANTIC_SNAPSHOTS"),
		state.Config.Snapshots,
		"",
	)
}

func (state StateT) SQLLogLevel() Variable[string] {
	return NewVariable(
		"sql-log-level",
		flagValue(state.Flags.SQLLogLevel),
		os.Getenv("PWDANTIC_SQL_LOG_LEVEL"),
		state.Config.SQLLogLevel,
		"silent",
	).OneOf("silent", "error", "warn", "info")
}

func (state StateT) Logger() (*log.Logger, LogAdapter, error) {
	format := state.LogFormat()
	if err := Validate(format); err != nil {
		return nil, LogAdapter{}, err
	}
	return NewLogger(os.Stderr, format.Value())
}

// DatabaseDriver returns the driver named by the driver variable.
func (state StateT) DatabaseDriver() (drivers.DatabaseDriver, error) {
	driver := state.Driver()
	if err := Validate(driver); err != nil {
		return nil, err
	}
	return drivers.DriverFor(driver.Value())
}

func flagValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ProjectPath looks for p in the closest parent directory holding a go.mod.
func ProjectPath(p string) string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	root, err := findProjectRoot(wd)
	if err != nil {
		return ""
	}
	return CheckPath(filepath.Join(root, p))
}

func CheckPath(p string) string {
	p, err := filepath.Abs(p)
	if err != nil {
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func findProjectRoot(startPath string) (string, error) {
	currentPath := startPath
	for {
		if _, err := os.Stat(filepath.Join(currentPath, "go.mod")); err == nil {
			return currentPath, nil
		}

		parent := filepath.Dir(currentPath)
		if parent == currentPath {
			return "", fmt.Errorf("could not find go.mod file")
		}
		currentPath = parent
	}
}

// DotEnv reads key from a KEY=value file, returning "" if either is
// missing.
func DotEnv(path, key string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if value, ok := strings.CutPrefix(line, key+"="); ok {
			return strings.Trim(value, `"'`)
		}
	}
	return ""
}

// CLIHelp trims the indentation newlines off a raw string literal.
func CLIHelp(s string) string {
	return strings.TrimSpace(s)
}
