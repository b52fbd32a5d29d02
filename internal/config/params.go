package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is looked up in the working directory, then next to the
// executable, when no config file is given.
const ConfigFileName = "mindmap_config.txt"

// Languages supported by the editor.
var Languages = []string{"zh_CN", "zh_TW", "en", "ja", "pt", "ru"}

const (
	DefaultAddr     = "127.0.0.1"
	DefaultPort     = uint16(8081)
	DefaultLanguage = "en"
	DefaultOutpath  = "./mindmap"
)

// Flags are the command line values. A nil field was not given explicitly.
type Flags struct {
	Addr     *string
	Port     *uint16
	Language *string
	Outpath  *string
	Config   *string
}

func (f Flags) allExplicit() bool {
	return f.Addr != nil && f.Port != nil && f.Language != nil && f.Outpath != nil
}

// FileConfig is the config file record. Every key is required.
type FileConfig struct {
	Addr     *string `toml:"addr"`
	Port     *uint16 `toml:"port"`
	Language *string `toml:"language"`
	Outpath  *string `toml:"outpath"`
}

// Params are the resolved server parameters.
type Params struct {
	Addr     string `validate:"required,ipv4"`
	Octets   [4]byte
	Port     uint16
	Language string `validate:"required,oneof=zh_CN zh_TW en ja pt ru"`
	Outpath  string `validate:"required"`

	// ConfigFile is the file the parameters were merged from, if any.
	ConfigFile string
	Warnings   []string
}

// ListenAddr is the host:port the server binds and advertises to the editor.
func (p *Params) ListenAddr() string {
	return fmt.Sprintf("%s:%d", p.Addr, p.Port)
}

// ParamError is a fatal startup configuration error.
type ParamError struct {
	Param string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("Error - %s: %v", e.Param, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

var ErrConfigNotFound = errors.New("file does not exist")

var validate = validator.New()

// discoverConfig is replaced in tests.
var discoverConfig = DiscoverConfigFile

// Resolve merges flags over the config file over defaults, validates the
// result and creates the output directory.
func Resolve(flags Flags) (*Params, error) {
	p := &Params{
		Addr:     DefaultAddr,
		Port:     DefaultPort,
		Language: DefaultLanguage,
		Outpath:  DefaultOutpath,
	}

	if flags.allExplicit() {
		if flags.Config != nil {
			p.Warnings = append(p.Warnings, "Warning - the priority of -a/-p/-l/-o is higher than -c, your -c is useless.")
		}
	} else {
		path, err := configPath(flags.Config)
		if err != nil {
			return nil, err
		}
		if path != "" {
			fc, err := ReadConfigFile(path)
			if err != nil {
				return nil, err
			}
			p.ConfigFile = path
			p.Addr, p.Port, p.Language, p.Outpath = *fc.Addr, *fc.Port, *fc.Language, *fc.Outpath
		}
	}

	if flags.Addr != nil {
		p.Addr = *flags.Addr
	}
	if flags.Port != nil {
		p.Port = *flags.Port
	}
	if flags.Language != nil {
		p.Language = *flags.Language
	}
	if flags.Outpath != nil {
		p.Outpath = *flags.Outpath
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.Outpath, 0o755); err != nil {
		return nil, &ParamError{Param: "outpath", Err: fmt.Errorf("create %s: %w", p.Outpath, err)}
	}

	return p, nil
}

func configPath(explicit *string) (string, error) {
	if explicit == nil {
		return discoverConfig(), nil
	}
	info, err := os.Stat(*explicit)
	if err != nil || !info.Mode().IsRegular() {
		return "", &ParamError{Param: "config", Err: fmt.Errorf("%s: %w", *explicit, ErrConfigNotFound)}
	}
	return *explicit, nil
}

func (p *Params) validate() error {
	octets, err := ParseAddr(p.Addr)
	if err != nil {
		return err
	}
	p.Octets = octets

	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return describe(verrs[0], p)
		}
		return &ParamError{Param: "params", Err: err}
	}
	return nil
}

func describe(fe validator.FieldError, p *Params) error {
	switch fe.Field() {
	case "Language":
		return &ParamError{Param: "language", Err: fmt.Errorf("-l only support %s, not %s", strings.Join(Languages, ", "), p.Language)}
	case "Addr":
		return &ParamError{Param: "addr", Err: fmt.Errorf("-a ip address must be x.x.x.x format, not %s", p.Addr)}
	case "Outpath":
		return &ParamError{Param: "outpath", Err: errors.New("-o must not be empty")}
	}
	return &ParamError{Param: strings.ToLower(fe.Field()), Err: fmt.Errorf("failed on %q", fe.Tag())}
}

// ParseAddr splits a dotted quad into its four octets.
func ParseAddr(addr string) ([4]byte, error) {
	var octets [4]byte
	parts := strings.Split(addr, ".")
	if len(parts) != 4 {
		return octets, &ParamError{Param: "addr", Err: fmt.Errorf("-a ip address must be x.x.x.x format, not %s", addr)}
	}
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return octets, &ParamError{Param: "addr", Err: fmt.Errorf("parse %s -> u8: %w", part, err)}
		}
		octets[i] = byte(n)
	}
	return octets, nil
}

// ReadConfigFile decodes a TOML config file. Decode errors carry the line and
// column of the offending token.
func ReadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParamError{Param: "config", Err: err}
	}

	var fc FileConfig
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return nil, &ParamError{Param: "config", Err: positioned(path, err)}
	}

	var missing []string
	if fc.Addr == nil {
		missing = append(missing, "addr")
	}
	if fc.Port == nil {
		missing = append(missing, "port")
	}
	if fc.Language == nil {
		missing = append(missing, "language")
	}
	if fc.Outpath == nil {
		missing = append(missing, "outpath")
	}
	if len(missing) > 0 {
		return nil, &ParamError{Param: "config", Err: fmt.Errorf("parse %s: missing field(s) %s", path, strings.Join(missing, ", "))}
	}
	return &fc, nil
}

func positioned(path string, err error) error {
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		row, col := derr.Position()
		return fmt.Errorf("%s position: line=%d, column=%d", derr.Error(), row, col)
	}
	var serr *toml.StrictMissingError
	if errors.As(err, &serr) && len(serr.Errors) > 0 {
		first := serr.Errors[0]
		row, col := first.Position()
		return fmt.Errorf("unknown field %s position: line=%d, column=%d", strings.Join(first.Key(), "."), row, col)
	}
	return fmt.Errorf("parse %s: %w", path, err)
}

// DiscoverConfigFile returns ./mindmap_config.txt, else the file of that name
// next to the executable, else "".
func DiscoverConfigFile() string {
	if isRegularFile(ConfigFileName) {
		return ConfigFileName
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(filepath.Dir(exe), ConfigFileName)
	if isRegularFile(candidate) {
		return candidate
	}
	return ""
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
