package protoasm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reoring/protoasm/schema"
)

// Config is the YAML form of the assembly settings:
//
//	mode: compatible
//	resolver: heuristic
//	allowPartial: false
//	literals: json
//	read:
//	  maxDepth: 64
//	  maxBytes: 1048576
//	  duplicateKeys: error
//	naming:
//	  packageSeparator: dash
//	  shortRootNames: true
//	descriptorSets: [api.binpb]
//	log:
//	  level: info
type Config struct {
	Mode           string       `yaml:"mode"`     // strict (default) or compatible
	Resolver       string       `yaml:"resolver"` // conservative (default) or heuristic
	AllowPartial   bool         `yaml:"allowPartial"`
	Literals       string       `yaml:"literals"` // json, xml or yaml; empty lets each reader choose
	Read           ReadConfig   `yaml:"read"`
	Naming         NamingConfig `yaml:"naming"`
	DescriptorSets []string     `yaml:"descriptorSets"` // empty: generated types from the global registry
	Log            LogConfig    `yaml:"log"`
}

// ReadConfig holds reader limits.
type ReadConfig struct {
	MaxDepth      int    `yaml:"maxDepth"`
	MaxBytes      int64  `yaml:"maxBytes"`
	DuplicateKeys string `yaml:"duplicateKeys"` // ignore (default), warn or error
}

// NamingConfig controls serialized root names.
type NamingConfig struct {
	PackageSeparator string `yaml:"packageSeparator"` // dot (default), dash, colon or dollar
	ShortRootNames   bool   `yaml:"shortRootNames"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(b)
}

// ParseConfig decodes and validates YAML config. Unknown keys are rejected.
func ParseConfig(b []byte) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("protoasm: config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks every enumerated setting.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.mode(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.resolver(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.literals(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.duplicates(); err != nil {
		errs = append(errs, err)
	}
	if _, err := schema.ParseSeparator(c.Naming.PackageSeparator); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Log.zapLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Read.MaxDepth < 0 || c.Read.MaxBytes < 0 {
		errs = append(errs, errors.New("protoasm: read limits must not be negative"))
	}
	return errors.Join(errs...)
}

// Options projects the config onto Assembler options. Logger and Metrics are
// left for the caller.
func (c Config) Options() (Options, error) {
	mode, err := c.mode()
	if err != nil {
		return Options{}, err
	}
	res, err := c.resolver()
	if err != nil {
		return Options{}, err
	}
	lit, err := c.literals()
	if err != nil {
		return Options{}, err
	}
	return Options{Mode: mode, Resolver: res, Literals: lit, AllowPartial: c.AllowPartial}, nil
}

// ReadOpt projects the config onto reader options.
func (c Config) ReadOpt() (ReadOpt, error) {
	dup, err := c.duplicates()
	if err != nil {
		return ReadOpt{}, err
	}
	return ReadOpt{
		Strictness: Strictness{OnDuplicateKey: dup},
		MaxDepth:   c.Read.MaxDepth,
		MaxBytes:   c.Read.MaxBytes,
	}, nil
}

// Registry builds the schema registry named by DescriptorSets and Naming.
func (c Config) Registry() (*schema.Registry, error) {
	sep, err := schema.ParseSeparator(c.Naming.PackageSeparator)
	if err != nil {
		return nil, err
	}
	opts := []schema.Option{schema.WithSeparator(sep)}
	if c.Naming.ShortRootNames {
		opts = append(opts, schema.WithShortRootNames())
	}
	if len(c.DescriptorSets) == 0 {
		return schema.FromGlobal(opts...), nil
	}
	return schema.Load(c.DescriptorSets, opts...)
}

func (c Config) mode() (Mode, error) {
	switch c.Mode {
	case "", "strict":
		return Strict, nil
	case "compatible":
		return Compatible, nil
	}
	return 0, fmt.Errorf("protoasm: unknown mode %q", c.Mode)
}

func (c Config) resolver() (StringResolver, error) {
	switch c.Resolver {
	case "", "conservative":
		return ConservativeResolver{}, nil
	case "heuristic":
		return HeuristicResolver{}, nil
	}
	return nil, fmt.Errorf("protoasm: unknown resolver %q", c.Resolver)
}

func (c Config) literals() (Literals, error) {
	if c.Literals == "" {
		return nil, nil
	}
	if l, ok := LiteralsByName(c.Literals); ok {
		return l, nil
	}
	return nil, fmt.Errorf("protoasm: unknown literals %q", c.Literals)
}

func (c Config) duplicates() (Severity, error) {
	switch c.Read.DuplicateKeys {
	case "", "ignore":
		return Ignore, nil
	case "warn":
		return Warn, nil
	case "error":
		return Error, nil
	}
	return 0, fmt.Errorf("protoasm: unknown duplicateKeys policy %q", c.Read.DuplicateKeys)
}
