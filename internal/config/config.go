// SPDX-License-Identifier: MPL-2.0

package config

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/clai-dev/clai/internal/issue"
	"github.com/clai-dev/clai/pkg/platform"
	"github.com/clai-dev/clai/pkg/types"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/literal"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "clai"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides (CLAI_MODULE, CLAI_UI_VERBOSE, ...).
	EnvPrefix = "CLAI"

	// DefaultEnvFlag is the variable set by virtualenv activation scripts.
	DefaultEnvFlag = "VIRTUAL_ENV"
	// DefaultModule is the downstream entry point.
	DefaultModule = "CLAI.start_shell"
	// DefaultWorkDir is the downstream working directory relative to the anchor.
	DefaultWorkDir = ".."
	// DefaultMinInterpreterVersion is the oldest interpreter the downstream supports.
	DefaultMinInterpreterVersion = ">= 3.10"

	maxConfigFileSize = 1 << 20
)

// Output formats accepted by Encode.
const (
	FormatCUE  = "cue"
	FormatTOML = "toml"
	FormatJSON = "json"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the clai configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FilePath returns the default config file path inside ConfigDir.
func FilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// DefaultConfig returns the built-in configuration for the host platform.
func DefaultConfig() *Config {
	return &Config{
		Anchor:                AnchorExecutable,
		EnvFlag:               DefaultEnvFlag,
		ActivationScript:      types.FilesystemPath(platform.DefaultActivationScript(runtime.GOOS, "venv")),
		Activation:            ActivationVirtual,
		WorkDir:               DefaultWorkDir,
		Module:                DefaultModule,
		Interpreter:           platform.DefaultInterpreter(runtime.GOOS),
		ForwardCallerDir:      true,
		Handoff:               HandoffWait,
		VerifyInterpreter:     false,
		MinInterpreterVersion: DefaultMinInterpreterVersion,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("anchor", defaults.Anchor)
	v.SetDefault("anchor_dir", defaults.AnchorDir)
	v.SetDefault("env_flag", defaults.EnvFlag)
	v.SetDefault("activation_script", defaults.ActivationScript)
	v.SetDefault("activation", defaults.Activation)
	v.SetDefault("work_dir", defaults.WorkDir)
	v.SetDefault("module", defaults.Module)
	v.SetDefault("interpreter", defaults.Interpreter)
	v.SetDefault("forward_caller_dir", defaults.ForwardCallerDir)
	v.SetDefault("handoff", defaults.Handoff)
	v.SetDefault("verify_interpreter", defaults.VerifyInterpreter)
	v.SetDefault("min_interpreter_version", defaults.MinInterpreterVersion)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'clai config init' to create a default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", cueLoadError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir := opts.ConfigDirPath
		if cfgDir == "" {
			var err error
			if cfgDir, err = ConfigDir(); err != nil {
				return nil, "", err
			}
		}

		candidates := []string{
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
			ConfigFileName + "." + ConfigFileExt,
		}
		for _, path := range candidates {
			if !fileExists(path) {
				continue
			}
			if err := loadCUEIntoViper(v, path); err != nil {
				return nil, "", cueLoadError(path, err)
			}
			resolvedPath = path
			break
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// CLAI_* overrides bypass the CUE schema, so validate the merged result.
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check CLAI_* environment overrides as well as the config file").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func cueLoadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'clai config show' for the effective configuration").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		BuildError()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// formatCUEError flattens CUE errors into "<file>: <field.path>: <message>" lines.
func formatCUEError(err error, filePath string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		path := strings.Join(cueerrors.Path(e), ".")
		msg := e.Error()
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		if path != "" {
			lines = append(lines, path+": "+msg)
		} else {
			lines = append(lines, msg)
		}
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file if none exists and
// returns its path. An existing file is left untouched.
func CreateDefaultConfig() (string, error) {
	cfgPath, err := FilePath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// clai launcher configuration\n")
	sb.WriteString("// Every field is optional. Environment variables prefixed with CLAI_ override it.\n\n")

	str := func(field string, value any) {
		fmt.Fprintf(&sb, "%s: %s\n", field, literal.String.Quote(fmt.Sprint(value)))
	}

	str("anchor", cfg.Anchor)
	if cfg.AnchorDir != "" {
		str("anchor_dir", cfg.AnchorDir)
	}
	str("env_flag", cfg.EnvFlag)
	str("activation_script", cfg.ActivationScript)
	str("activation", cfg.Activation)
	str("work_dir", cfg.WorkDir)
	str("module", cfg.Module)
	str("interpreter", cfg.Interpreter)
	fmt.Fprintf(&sb, "forward_caller_dir: %v\n", cfg.ForwardCallerDir)
	str("handoff", cfg.Handoff)
	fmt.Fprintf(&sb, "verify_interpreter: %v\n", cfg.VerifyInterpreter)
	str("min_interpreter_version", cfg.MinInterpreterVersion)

	sb.WriteString("\nui: {\n\t")
	str("color_scheme", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

// Encode renders the configuration in the requested format (cue, toml, json).
func Encode(cfg *Config, format string) ([]byte, error) {
	switch format {
	case FormatCUE, "":
		return []byte(GenerateCUE(cfg)), nil
	case FormatTOML:
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to encode config as toml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode config as json: %w", err)
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (valid: %s, %s, %s)", format, FormatCUE, FormatTOML, FormatJSON)
	}
}
