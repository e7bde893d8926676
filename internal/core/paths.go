package core

import (
	"os"
	"path/filepath"
)

type Paths struct {
	HomeDir       string
	ConfigDir     string
	ConfigFile    string
	DataDir       string
	LogFile       string
	DirectoryFile string
}

var defaultPaths *Paths

func ensureDefaultPaths() {
	if defaultPaths == nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}

		defaultPaths = pathsFor(homeDir)

		err = os.MkdirAll(defaultPaths.DataDir, 0755)
		if err != nil {
			panic(err)
		}
	}
}

func pathsFor(homeDir string) *Paths {
	configDir := filepath.Join(homeDir, ".config", "userfind")
	dataDir := filepath.Join(homeDir, ".local", "share", "userfind")

	return &Paths{
		HomeDir:       homeDir,
		ConfigDir:     configDir,
		ConfigFile:    filepath.Join(configDir, "config.yaml"),
		DataDir:       dataDir,
		LogFile:       filepath.Join(dataDir, "userfind.log"),
		DirectoryFile: filepath.Join(dataDir, "directory.db"),
	}
}

func HomeDir() string {
	ensureDefaultPaths()
	return defaultPaths.HomeDir
}

func ConfigFile() string {
	ensureDefaultPaths()
	return defaultPaths.ConfigFile
}

func DataDir() string {
	ensureDefaultPaths()
	return defaultPaths.DataDir
}

func LogFile() string {
	ensureDefaultPaths()
	return defaultPaths.LogFile
}

// DirectoryFile is the SQLite database used by the local directory server.
func DirectoryFile() string {
	ensureDefaultPaths()
	return defaultPaths.DirectoryFile
}
