package config

import (
	"encoding/json"
	"os"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/flagx"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "24h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr          string         `json:"endpoint_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	SessionTTL            timex.Duration `json:"session_ttl"`
	AdminAddresses        []string       `json:"admin_addresses"`
	FallbackAuthorAddress *string        `json:"fallback_author_address"`
	AllowedOrigins        []string       `json:"allowed_origins"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	PublicBaseURL         string         `json:"public_base_url"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags. If
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
//
// FallbackAuthorAddress is a pointer so an explicit "" in the file disables
// anonymous publishing rather than being mistaken for "not set".
func parseJson(config *Config) {

	fileName := flagx.JsonConfigFlags()
	if fileName == "" {
		return
	}

	data, err := os.ReadFile(fileName)
	if err != nil {
		panic(err)
	}

	jc := &JsonConfig{}
	if err := json.Unmarshal(data, jc); err != nil {
		panic(err)
	}

	if jc.EndpointAddr != "" {
		config.EndpointAddr = jc.EndpointAddr
	}
	if jc.DatabaseDSN != "" {
		config.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.SecretKey != "" {
		config.SecretKey = jc.SecretKey
	}
	if jc.SessionTTL.Duration != 0 {
		config.SessionTTL = jc.SessionTTL.Duration
	}
	if jc.AdminAddresses != nil {
		config.AdminAddresses = jc.AdminAddresses
	}
	if jc.FallbackAuthorAddress != nil {
		config.FallbackAuthorAddress = *jc.FallbackAuthorAddress
	}
	if jc.AllowedOrigins != nil {
		config.AllowedOrigins = jc.AllowedOrigins
	}
	if jc.S3RootUser != "" {
		config.S3RootUser = jc.S3RootUser
	}
	if jc.S3RootPassword != "" {
		config.S3RootPassword = jc.S3RootPassword
	}
	if jc.S3Bucket != "" {
		config.S3Bucket = jc.S3Bucket
	}
	if jc.S3Region != "" {
		config.S3Region = jc.S3Region
	}
	if jc.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = jc.S3BaseEndpoint
	}
	if jc.PublicBaseURL != "" {
		config.PublicBaseURL = jc.PublicBaseURL
	}
}
