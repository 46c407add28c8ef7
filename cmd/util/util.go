package util

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/qmx/lib/common"
	"github.com/ValentinKolb/qmx/lib/manager"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// DateLayout is the layout of all date arguments
	DateLayout = "2006-01-02"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// SetupDatabaseFlags adds the flags shared by all commands working on a data dir
func SetupDatabaseFlags(cmd *cobra.Command) {
	key := "data-dir"
	cmd.PersistentFlags().String(key, common.DefaultDataDir, WrapString("Directory holding the database and uid counter files"))

	key = "auto-save"
	cmd.PersistentFlags().Bool(key, false, WrapString("Save after every single mutation instead of once when the command finished"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("The level at which logs will be output (debug, info, warn, error)"))

	key = "output"
	cmd.PersistentFlags().String(key, "json", WrapString("Output format of records and reports (json, yaml)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("qmx")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetConfig reads the database configuration from viper
func GetConfig() common.Config {
	cfg := common.DefaultConfig()
	if dir := viper.GetString("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	cfg.AutoSave = viper.GetBool("auto-save")
	if level := viper.GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// OpenManager binds the flags of cmd, initializes the loggers and opens the
// configured database
func OpenManager(cmd *cobra.Command) (*manager.Manager, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}
	cfg := GetConfig()
	if err := common.InitLoggers(cfg.LogLevel); err != nil {
		return nil, err
	}
	return manager.New(cfg)
}

// Commit saves m unless every mutation was already saved by auto-save
func Commit(m *manager.Manager) error {
	if m == nil || m.Config().AutoSave {
		return nil
	}
	return m.Save()
}

// --------------------------------------------------------------------------
// Output
// --------------------------------------------------------------------------

// Print writes v to stdout in the configured output format
func Print(v any) error {
	return Fprint(os.Stdout, viper.GetString("output"), v)
}

// Fprint writes v to w as indented json or yaml
func Fprint(w io.Writer, format string, v any) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid output format %s", format)
	}
}

// --------------------------------------------------------------------------
// Argument parsing
// --------------------------------------------------------------------------

// ParseID parses a record identifier argument
func ParseID(name, s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", name, s)
	}
	return id, nil
}

// ParseDate parses a YYYY-MM-DD argument as midnight UTC
func ParseDate(name, s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date in the form %s: %w", name, DateLayout, err)
	}
	return t.UTC(), nil
}

// Entry pairs a record with its identifier, which the record encoding omits
type Entry struct {
	ID     uint64 `json:"id" yaml:"id"`
	Record any    `json:"record" yaml:"record"`
}
