package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	unsafeNameChars  = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	repeatedUnderbar = regexp.MustCompile(`_{2,}`)
)

// KeyGenerator строит ключи объектов вида project-<id>/<millis>-<suffix>-<name>
type KeyGenerator struct {
	suffixLength int
	now          func() time.Time
	random       func() string
}

func NewKeyGenerator(suffixLength int) *KeyGenerator {
	if suffixLength <= 0 {
		suffixLength = 8
	}
	return &KeyGenerator{
		suffixLength: suffixLength,
		now:          time.Now,
		random:       func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

// Generate возвращает новый ключ для файла name в проекте projectID
func (g *KeyGenerator) Generate(projectID int64, name string) string {
	suffix := g.random()
	if len(suffix) > g.suffixLength {
		suffix = suffix[:g.suffixLength]
	}
	return fmt.Sprintf("project-%d/%d-%s-%s", projectID, g.now().UnixMilli(), suffix, SanitizeFileName(name))
}

// SanitizeFileName приводит имя файла к виду, безопасному для ключа хранилища
func SanitizeFileName(name string) string {
	safe := unsafeNameChars.ReplaceAllString(name, "_")
	safe = repeatedUnderbar.ReplaceAllString(safe, "_")
	return strings.ToLower(safe)
}

// FileExtension возвращает расширение в нижнем регистре без точки или пустую строку
func FileExtension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
