package config

import _ "embed"

// Default holds the built-in conf.yaml merged under any on-disk configuration.
//
//go:embed conf.yaml
var Default []byte

// Languages holds the built-in language catalogue.
//
//go:embed languages.yaml
var Languages []byte
