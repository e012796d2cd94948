package wasi

import (
	"io"
	"os"

	"github.com/tetratelabs/wazero"
)

// Config configures a plugin's WASI environment. Use builder methods to set up.
type Config struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	args    []string
	environ []string
}

// New creates a Config that inherits the host process's argv, environment,
// and standard streams.
func New() *Config {
	return &Config{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		args:    os.Args,
		environ: os.Environ(),
	}
}

// InheritArgv resets the plugin's arguments to the host process's argv.
func (c *Config) InheritArgv() *Config {
	c.args = os.Args
	return c
}

// InheritEnv resets the plugin's environment to the host process's.
func (c *Config) InheritEnv() *Config {
	c.environ = os.Environ()
	return c
}

// InheritStdio points the plugin's standard streams at the host
// process's own.
func (c *Config) InheritStdio() *Config {
	c.stdin = os.Stdin
	c.stdout = os.Stdout
	c.stderr = os.Stderr
	return c
}

// WithArgs overrides the arguments passed to the plugin.
func (c *Config) WithArgs(args []string) *Config {
	c.args = args
	return c
}

// WithEnviron overrides the environment, as "key=value" pairs.
func (c *Config) WithEnviron(environ []string) *Config {
	c.environ = environ
	return c
}

// WithStdin overrides the plugin's standard input.
func (c *Config) WithStdin(r io.Reader) *Config {
	c.stdin = r
	return c
}

// WithStdout overrides the plugin's standard output.
func (c *Config) WithStdout(w io.Writer) *Config {
	c.stdout = w
	return c
}

// WithStderr overrides the plugin's standard error.
func (c *Config) WithStderr(w io.Writer) *Config {
	c.stderr = w
	return c
}

// Args returns the configured arguments.
func (c *Config) Args() []string {
	return c.args
}

// Environ returns the configured environment.
func (c *Config) Environ() []string {
	return c.environ
}

// ModuleConfig renders the Config into a wazero module configuration.
// Start functions are cleared so instantiation only binds the module;
// the host decides when (and whether) exports run.
func (c *Config) ModuleConfig() wazero.ModuleConfig {
	mc := wazero.NewModuleConfig().
		WithArgs(c.args...).
		WithStartFunctions()
	for _, kv := range c.environ {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				mc = mc.WithEnv(kv[:i], kv[i+1:])
				break
			}
		}
	}
	if c.stdin != nil {
		mc = mc.WithStdin(c.stdin)
	}
	if c.stdout != nil {
		mc = mc.WithStdout(c.stdout)
	}
	if c.stderr != nil {
		mc = mc.WithStderr(c.stderr)
	}
	return mc
}
