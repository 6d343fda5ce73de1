package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// ReadLegacyLimit reads [Main] AnimationLimit from a host INI file. A missing
// key, an unparsable value or a negative value reports ok=false.
func ReadLegacyLimit(path string) (int, bool, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveSections:     true,
		SkipUnrecognizableLines: true,
	}, path)
	if err != nil {
		return 0, false, fmt.Errorf("reading %s: %w", path, err)
	}
	sec, err := file.GetSection("Main")
	if err != nil || !sec.HasKey("AnimationLimit") {
		return 0, false, nil
	}
	raw := strings.TrimSpace(sec.Key("AnimationLimit").String())
	limit, err := strconv.ParseInt(raw, 0, 32)
	if err != nil || limit < 0 {
		return 0, false, nil
	}
	return int(limit), true, nil
}
