package discover

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"animoverride/internal/fault"
	"animoverride/internal/link"
	"animoverride/internal/loadorder"
)

func (s *Scanner) scanIdentity(ctx context.Context, result *Result, root string) error {
	for _, pkgDir := range s.subdirs(result, root) {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := pkgDir.Name()
		if name == ConditionsDir {
			continue
		}
		path := filepath.Join(root, name)
		if !loadorder.HasPackageExt(name) {
			s.record(result, fault.WithMetadata(fault.CodeBadPackageName,
				"folder is not named after a data package", map[string]string{"path": path}))
			continue
		}
		var pkg loadorder.Package
		active := false
		if s.packages != nil {
			pkg, active = s.packages.Lookup(name)
		}
		if !active {
			s.record(result, fault.WithMetadata(fault.CodePackageInactive,
				"data package not active", map[string]string{"path": path, "package": name}))
			continue
		}

		for _, idDir := range s.subdirs(result, path) {
			idPath := filepath.Join(path, idDir.Name())
			local, ok := parseArchetypeDir(idDir.Name())
			if !ok {
				s.record(result, fault.WithMetadata(fault.CodeBadArchetypeID,
					"archetype folder must be 8 hex digits starting with 00", map[string]string{"path": idPath}))
				continue
			}
			archetype, ok := pkg.Resolve(local)
			if !ok {
				s.record(result, fault.WithMetadata(fault.CodeBadArchetypeID,
					"archetype id out of range for light package", map[string]string{"path": idPath, "package": name}))
				continue
			}

			clips, err := walkClips(idPath, s.opts.ClipExt)
			if err != nil {
				s.record(result, &fault.Error{
					Code:     fault.CodeUnreadable,
					Message:  "cannot read archetype folder",
					Metadata: map[string]string{"path": idPath},
					Cause:    err,
				})
				continue
			}
			for _, clip := range clips {
				result.Identity = append(result.Identity, link.IdentityLink{
					Source:    strings.ToLower(s.opts.ClipPrefix + clip),
					Dest:      s.opts.ClipPrefix + joinClip(s.opts.OverrideDir, name, idDir.Name(), clip),
					Archetype: archetype,
					Package:   pkg.Name,
				})
			}
			s.log.Debug("identity folder loaded", "project", result.Project, "package", name,
				"archetype", idDir.Name(), "clips", len(clips))
		}
	}
	return nil
}

// parseArchetypeDir accepts exactly eight hex digits whose top byte is 00.
func parseArchetypeDir(name string) (uint32, bool) {
	if len(name) != 8 {
		return 0, false
	}
	id, err := strconv.ParseUint(name, 16, 32)
	if err != nil || id > loadorder.MaxLocalID {
		return 0, false
	}
	return uint32(id), true
}
