package userstore

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/atinylittleshell/userfind/pkg/userline"
	"gopkg.in/yaml.v3"
)

//go:embed default_users.yaml
var defaultUsersYAML []byte

type seedFile struct {
	Users []userline.UserRecord `yaml:"users"`
}

// DefaultUsers returns the built-in seed set, the same ten users the public
// jsonplaceholder directory serves.
func DefaultUsers() []userline.UserRecord {
	users, err := ParseSeed(defaultUsersYAML)
	if err != nil {
		panic(fmt.Sprintf("userstore: embedded seed is invalid: %v", err))
	}
	return users
}

// LoadSeedFile reads a YAML seed file of the form `users: [{id, name, username, email}]`.
func LoadSeedFile(path string) ([]userline.UserRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	users, err := ParseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("invalid seed file %s: %w", path, err)
	}
	return users, nil
}

func ParseSeed(data []byte) ([]userline.UserRecord, error) {
	var seed seedFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&seed); err != nil {
		return nil, err
	}

	for i, user := range seed.Users {
		if user.Username == "" {
			return nil, fmt.Errorf("user %d has no username", i+1)
		}
	}
	return seed.Users, nil
}
