package policy

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML policy file and returns Config with raw bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes and validates policy YAML.
// Sections left out of the document keep their default values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault returns the default policy when path is empty
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, _, err := Load(path)
	return cfg, err
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: json.Marshal은 map 키를 정렬하므로 라벨 테이블도 재현 가능
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
