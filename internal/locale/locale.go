package locale

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const fallback = "en_US"

//go:embed locales/*.toml
var builtin embed.FS

// Dir is where user-provided locale files override the built-in ones.
var Dir = filepath.Join("config", "locales")

// L is the active locale. It holds the built-in English messages until
// Load succeeds.
var L = mustBuiltin(fallback)

type CliFlags struct {
	Config  string `toml:"config"`
	Archive string `toml:"archive"`
	Locale  string `toml:"locale"`
	Only    string `toml:"only"`
	Mode    string `toml:"mode"`
	Excel   string `toml:"excel"`
	Latest  string `toml:"latest"`
	ShowSQL string `toml:"show_sql"`
	Cron    string `toml:"cron"`
}

type CliCommands struct {
	Run      string `toml:"run"`
	List     string `toml:"list"`
	Check    string `toml:"check"`
	Export   string `toml:"export"`
	Schedule string `toml:"schedule"`
}

type CliArgs struct {
	Export string `toml:"export"`
}

type CliSection struct {
	Description string      `toml:"description"`
	Flags       CliFlags    `toml:"flags"`
	Commands    CliCommands `toml:"commands"`
	Args        CliArgs     `toml:"args"`
}

type StatusSection struct {
	Success      string `toml:"success"`
	Failure      string `toml:"failure"`
	Recovered    string `toml:"recovered"`
	Completed    string `toml:"completed"`
	Connected    string `toml:"connected"`
	DatabaseTime string `toml:"database_time"`
	Exported     string `toml:"exported"`
	Scheduled    string `toml:"scheduled"`
}

type ErrorsSection struct {
	ConnectionFailed  string `toml:"connection_failed"`
	UnknownQuery      string `toml:"unknown_query"`
	InvalidWriteMode  string `toml:"invalid_write_mode"`
	OutputFormatEmpty string `toml:"output_format_empty"`
	MissingArgument   string `toml:"missing_argument"`
	NoDataReturned    string `toml:"no_data_returned"`
}

type Locale struct {
	Name   string        `toml:"-"`
	CLI    CliSection    `toml:"cli"`
	Status StatusSection `toml:"status"`
	Errors ErrorsSection `toml:"errors"`
}

func DetectSystemLocale() string {
	lang := os.Getenv("LANG")
	if lang == "" || lang == "C" || lang == "POSIX" {
		return fallback
	}

	cleanLang := strings.Split(lang, ".")[0]

	return strings.ReplaceAll(cleanLang, "-", "_")
}

// Load resolves localeName ("auto" or empty detects it from LANG), makes it
// the active locale and returns it. A file in Dir wins over the built-in
// catalog of the same name; unknown names fall back to English. Keys missing
// from a catalog keep their English text.
func Load(localeName string) (*Locale, error) {
	if localeName == "" || strings.ToLower(localeName) == "auto" {
		localeName = DetectSystemLocale()
	}

	l := mustBuiltin(fallback)

	localePath := filepath.Join(Dir, fmt.Sprintf("%s.toml", localeName))
	data, err := os.ReadFile(localePath)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		data, err = builtin.ReadFile("locales/" + localeName + ".toml")
		if err != nil {
			L = l
			return l, nil
		}
	default:
		return nil, fmt.Errorf("failed to load locale file %s: %w", localePath, err)
	}

	if _, err := toml.Decode(string(data), l); err != nil {
		return nil, fmt.Errorf("failed to decode locale %s: %w", localeName, err)
	}
	l.Name = localeName

	L = l
	return l, nil
}

func mustBuiltin(name string) *Locale {
	data, err := builtin.ReadFile("locales/" + name + ".toml")
	if err != nil {
		panic(err)
	}

	l := &Locale{Name: name}
	if _, err := toml.Decode(string(data), l); err != nil {
		panic(fmt.Sprintf("locale %s: %v", name, err))
	}
	return l
}
