package suites

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phrazzld/txspec/internal/ciutil"
	"github.com/phrazzld/txspec/internal/config"
	"github.com/phrazzld/txspec/internal/platform/database"
)

// AdapterPrefix starts the name of a per-target adapter suite.
const AdapterPrefix = "adapter:"

// IntegrationTag is the build tag guarding tests that need a real server.
const IntegrationTag = "integration"

// ErrUnknownSuite is returned by Lookup for names not in the registry.
var ErrUnknownSuite = errors.New("unknown suite")

// Suite is a named group of test packages.
type Suite struct {
	Name        string
	Description string
	Packages    []string
	Tags        []string
	// Target is the configured target the suite needs, or "" when it runs
	// without one.
	Target string
	// Dialect of Target, when known.
	Dialect database.Dialect
}

// RunOptions are the go test switches exposed by the CLI.
type RunOptions struct {
	Race    bool
	Verbose bool
}

var builtin = []Suite{
	{
		Name:        "core",
		Description: "transaction scopes and test wrappers against mocked connections",
		Packages:    []string{"./internal/store/...", "./internal/testdb/..."},
	},
	{
		Name:        "plugin",
		Description: "non-transactional table cleanup against mocked connections",
		Packages:    []string{"./internal/cleanup/..."},
	},
	{
		Name:        "cli",
		Description: "the txspec command against a file-based SQLite database",
		Packages:    []string{"./cmd/txspec/..."},
	},
	{
		Name:        "integration",
		Description: "shared conformance specs against every configured target",
		Packages:    []string{"./internal/conformance/..."},
		Tags:        []string{IntegrationTag},
	},
}

var adapterPackages = map[database.Dialect][]string{
	database.Postgres: {"./internal/platform/postgres/...", "./internal/catalog/..."},
	database.SQLite:   {"./internal/platform/sqlite/...", "./internal/catalog/..."},
}

// List returns the built-in suites followed by one adapter suite per
// configured target, in target name order.
func List(cfg *config.Config) []Suite {
	all := make([]Suite, 0, len(builtin)+len(cfg.Targets))
	all = append(all, builtin...)
	for _, name := range cfg.TargetNames() {
		s, err := adapter(name, cfg)
		if err != nil {
			continue
		}
		all = append(all, s)
	}
	return all
}

// Lookup returns the named suite. adapter:<target> suites resolve the
// target's dialect from cfg, falling back to the target name.
func Lookup(name string, cfg *config.Config) (Suite, error) {
	if target, ok := strings.CutPrefix(name, AdapterPrefix); ok {
		return adapter(target, cfg)
	}
	for _, s := range builtin {
		if s.Name == name {
			return s, nil
		}
	}
	return Suite{}, fmt.Errorf("%w: %q", ErrUnknownSuite, name)
}

func adapter(target string, cfg *config.Config) (Suite, error) {
	if target == "" {
		return Suite{}, fmt.Errorf("%w: adapter suite needs a target name", ErrUnknownSuite)
	}

	var (
		dialect database.Dialect
		err     error
	)
	if t, ok := cfg.Target(target); ok {
		dialect, err = database.ResolveDialect(t)
	} else {
		dialect, err = database.ParseDialect(target)
	}
	if err != nil {
		return Suite{}, fmt.Errorf("%w: %s%s: %w", ErrUnknownSuite, AdapterPrefix, target, err)
	}

	s := Suite{
		Name:        AdapterPrefix + target,
		Description: fmt.Sprintf("%s adapter against target %q", dialect, target),
		Packages:    adapterPackages[dialect],
		Target:      target,
		Dialect:     dialect,
	}
	if dialect == database.Postgres {
		s.Tags = []string{IntegrationTag}
	}
	return s, nil
}

// Runnable reports whether the suite's target is configured, and the reason
// when it is not.
func (s Suite) Runnable(cfg *config.Config) (bool, string) {
	if s.Target == "" {
		return true, ""
	}
	if _, ok := cfg.Target(s.Target); !ok {
		return false, fmt.Sprintf("target %q is not configured (set %s)",
			s.Target, ciutil.TargetEnvVar(s.Target))
	}
	return true, ""
}

// Args returns the go test argument list, without the "go" itself.
func (s Suite) Args(opts RunOptions) []string {
	args := []string{"test", "-count=1"}
	if len(s.Tags) > 0 {
		args = append(args, "-tags", strings.Join(s.Tags, ","))
	}
	if opts.Race {
		args = append(args, "-race")
	}
	if opts.Verbose {
		args = append(args, "-v")
	}
	return append(args, s.Packages...)
}

// Env returns the environment for the child go test process: base plus the
// connection strings and flag variables from cfg. Later entries win. An
// adapter suite's target is also exported under its dialect's name, which is
// the target the adapter tests open.
func (s Suite) Env(cfg *config.Config, base []string) []string {
	env := append([]string(nil), base...)

	for _, name := range cfg.TargetNames() {
		t, _ := cfg.Target(name)
		env = append(env, ciutil.TargetEnvVar(name)+"="+t.URL)
	}
	if s.Target != "" && s.Dialect != "" {
		if t, ok := cfg.Target(s.Target); ok {
			env = append(env, ciutil.TargetEnvVar(s.Dialect.String())+"="+t.URL)
			if setup := cfg.SetupFileFor(s.Target); setup != "" {
				env = append(env, ciutil.EnvSetupFile+"="+absPath(setup))
			}
		}
	} else if cfg.Test.SetupFile != "" {
		env = append(env, ciutil.EnvSetupFile+"="+absPath(cfg.Test.SetupFile))
	}

	env = append(env,
		ciutil.EnvSkipWarn+"="+strconv.FormatBool(cfg.Test.SkipWarn),
		ciutil.EnvNoPending+"="+strconv.FormatBool(cfg.Test.NoPending),
		ciutil.EnvForeignKeys+"="+strconv.FormatBool(cfg.Test.ForeignKeys),
		ciutil.EnvSuite+"="+s.Name,
		// Children read everything from the environment, not the file.
		ciutil.EnvConfigFile+"=",
	)
	return env
}

// absPath resolves p against the working directory; the child process runs
// from the project root.
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
