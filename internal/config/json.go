package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/cryptify/internal/flagx"
	"github.com/dmitrijs2005/cryptify/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent
// fields keep the value they had before parsing.
type JsonConfig struct {
	DatabaseDriver string          `json:"database_driver"`
	DatabaseDSN    string          `json:"database_dsn"`
	LogLevel       string          `json:"log_level"`
	LogFormat      string          `json:"log_format"`
	IdleTimeout    *timex.Duration `json:"idle_timeout"`
	KDFTime        uint32          `json:"kdf_time"`
	KDFMemoryKiB   uint32          `json:"kdf_memory_kib"`
	KDFThreads     uint8           `json:"kdf_threads"`
}

// parseJson overlays Config with values loaded from the file named by -c or
// -config. Without either flag it does nothing. Read and unmarshal errors
// panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setIf(&cfg.DatabaseDriver, jc.DatabaseDriver)
	setIf(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setIf(&cfg.LogLevel, jc.LogLevel)
	setIf(&cfg.LogFormat, jc.LogFormat)
	if jc.IdleTimeout != nil {
		cfg.IdleTimeout = jc.IdleTimeout.Duration
	}
	setIf(&cfg.KDF.Time, jc.KDFTime)
	setIf(&cfg.KDF.MemoryKiB, jc.KDFMemoryKiB)
	setIf(&cfg.KDF.Threads, jc.KDFThreads)
}

func setIf[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
