package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"

	"subburn/internal/client"
	"subburn/internal/config"
)

type commandContext struct {
	addressFlag *string
	configFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addressFlag, configFlag *string) *commandContext {
	return &commandContext{
		addressFlag: addressFlag,
		configFlag:  configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// daemonAddress resolves the API address: the --address flag wins, then the
// configured bind address, then the built-in default.
func (c *commandContext) daemonAddress() string {
	if c.addressFlag != nil {
		if addr := strings.TrimSpace(*c.addressFlag); addr != "" {
			return addr
		}
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		if addr := strings.TrimSpace(cfg.Paths.APIBind); addr != "" {
			return addr
		}
	}
	return config.Default().Paths.APIBind
}

func (c *commandContext) withClient(fn func(*client.Client) error) error {
	address := c.daemonAddress()
	cl, err := client.Dial(address)
	if err != nil {
		return err
	}
	if err := fn(cl); err != nil {
		return wrapDaemonError(err, address)
	}
	return nil
}

func wrapDaemonError(err error, address string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon at %s: connection refused; start the daemon with `subburnd`", address)
	}
	return err
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
