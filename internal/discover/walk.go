package discover

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// walkClips returns every clip under root as a backslash-separated path
// relative to root, in lexical order.
func walkClips(root, ext string) ([]string, error) {
	var clips []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ext) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		clips = append(clips, strings.ReplaceAll(filepath.ToSlash(rel), "/", `\`))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clips, nil
}

func joinClip(parts ...string) string {
	return strings.Join(parts, `\`)
}
