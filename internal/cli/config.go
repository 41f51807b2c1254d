package cli

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	TokenDir  string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("BCGAME_SERVER", "http://localhost:8080"),
		TokenDir:  getEnvOrDefault("BCGAME_TOKEN_DIR", defaultTokenDir()),
		Output:    "text",
		Verbose:   false,
	}
}

// LoadRoomToken returns the reconnection token saved for a room, if any
func (c *Config) LoadRoomToken(roomID string) (string, error) {
	data, err := os.ReadFile(c.tokenFile(roomID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil // No token file is fine
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveRoomToken saves the reconnection token for a room
func (c *Config) SaveRoomToken(roomID, token string) error {
	if err := os.MkdirAll(c.TokenDir, 0700); err != nil {
		return err
	}
	return os.WriteFile(c.tokenFile(roomID), []byte(token), 0600)
}

// ForgetRoomToken removes the saved token for a room
func (c *Config) ForgetRoomToken(roomID string) error {
	err := os.Remove(c.tokenFile(roomID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (c *Config) tokenFile(roomID string) string {
	return filepath.Join(c.TokenDir, filepath.Base(roomID)+".token")
}

func defaultTokenDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bcgame"
	}
	return filepath.Join(home, ".bcgame")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
