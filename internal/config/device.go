package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func deviceIDPath(isDev bool) string {
	if p := os.Getenv("DEVICE_ID_FILE"); p != "" {
		return p
	}
	if isDev {
		return "device-id.lock"
	}
	return "/etc/strct/device-id.lock"
}

func getOrGenerateDeviceID(isDev bool) string {
	filePath := deviceIDPath(isDev)
	log := zap.S()

	content, err := os.ReadFile(filePath)
	if err == nil {
		if id := strings.TrimSpace(string(content)); id != "" {
			return id
		}
	}

	newID := "device-" + uuid.New().String()
	log.Infof("[INIT] New Device ID generated: %s", newID)

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Warnf("[INIT] Could not create directory %s: %v", dir, err)
		return newID
	}

	err = os.WriteFile(filePath, []byte(newID), 0644)
	if err != nil {
		log.Warnf("[INIT] Could not save device ID to disk at %s: %v", filePath, err)
	} else {
		log.Infof("[INIT] Device ID saved to %s", filePath)
	}

	return newID
}
