// Package config loads typed configuration structs from environment
// variables, with optional .env support for development. Each config
// type is parsed once per process and cached.
package config
