package config

import "errors"

var ErrFileDoesNotExist = errors.New("config file does not exist")
var ErrReadConfigFail = errors.New("failed to read config file")
var ErrConfigParsingFail = errors.New("failed to parse config file")
var ErrEnvParsingFail = errors.New("failed to parse environment overrides")
var ErrInvalidConfig = errors.New("invalid config")
