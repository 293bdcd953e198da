package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// GenerateUniqueFilename builds a storage key under folder that keeps the
// original extension.
func GenerateUniqueFilename(folder, originalFilename string) string {
	name := fmt.Sprintf("%s_%s%s", time.Now().UTC().Format("20060102"), uuid.NewString(), GetFileExtension(originalFilename))
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
