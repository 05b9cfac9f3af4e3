package main

import (
	"fmt"

	"github.com/nguyentantai21042004/course-flow/internal/config"
	"github.com/nguyentantai21042004/course-flow/internal/logger"
)

type commandContext struct {
	configFlag *string
	config     *config.Config
	log        logger.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	path := "config.yaml"
	if c.configFlag != nil && *c.configFlag != "" {
		path = *c.configFlag
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c.config = cfg
	return cfg, nil
}

func (c *commandContext) logger() logger.Logger {
	if c.log == nil {
		c.log = logger.NewWithFormat(c.config.Logging.Level, c.config.Logging.Format)
	}
	return c.log
}
