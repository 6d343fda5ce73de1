package discover

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"animoverride/internal/condition"
	"animoverride/internal/fault"
	"animoverride/internal/link"
)

func (s *Scanner) scanConditions(ctx context.Context, result *Result, root string) error {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	for _, dir := range s.subdirs(result, root) {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := dir.Name()
		path := filepath.Join(root, name)
		priority, ok := ParsePriority(name)
		if !ok {
			s.record(result, fault.WithMetadata(fault.CodeBadPriority,
				"priority folder must be a non-zero integer without leading zeros", map[string]string{"path": path}))
			continue
		}
		rule := Rule{Priority: priority, Dir: path}

		scriptPath := filepath.Join(path, condition.ScriptFile)
		lines, err := condition.ReadScriptFile(scriptPath)
		if err != nil {
			ferr := &fault.Error{
				Code:     fault.CodeMissingConditions,
				Message:  "cannot read " + condition.ScriptFile,
				Metadata: map[string]string{"path": scriptPath},
				Cause:    err,
			}
			rule.Err = ferr
			result.Rules = append(result.Rules, rule)
			s.record(result, ferr)
			continue
		}

		chain, err := s.compiler.Compile(lines)
		if err != nil {
			ferr := compileFault(err, scriptPath)
			rule.Err = ferr
			result.Rules = append(result.Rules, rule)
			s.record(result, ferr)
			continue
		}
		for _, term := range chain {
			for _, pkg := range term.MissingPackages {
				s.record(result, fault.WithMetadata(fault.CodePackageInactive,
					"condition references inactive data package; term reads as false",
					map[string]string{"path": scriptPath, "package": pkg, "line": term.Source}))
			}
		}
		rule.Chain = chain

		clips, err := walkClips(path, s.opts.ClipExt)
		if err != nil {
			s.record(result, &fault.Error{
				Code:     fault.CodeUnreadable,
				Message:  "cannot read priority folder",
				Metadata: map[string]string{"path": path},
				Cause:    err,
			})
			continue
		}
		for _, clip := range clips {
			result.Conditions = append(result.Conditions, link.ConditionLink{
				Source:   strings.ToLower(s.opts.ClipPrefix + clip),
				Dest:     s.opts.ClipPrefix + joinClip(s.opts.OverrideDir, ConditionsDir, name, clip),
				Priority: priority,
				Chain:    chain,
			})
		}
		rule.Clips = len(clips)
		result.Rules = append(result.Rules, rule)
		s.log.Debug("condition folder loaded", "project", result.Project, "priority", priority,
			"terms", len(chain), "clips", len(clips))
	}
	return nil
}

// ParsePriority accepts a non-zero signed decimal with no leading zero.
func ParsePriority(name string) (int32, bool) {
	digits := name
	if len(digits) > 0 && digits[0] == '-' {
		digits = digits[1:]
	}
	if digits == "" || digits[0] == '0' {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(name, 10, 32)
	if err != nil || v == 0 {
		return 0, false
	}
	return int32(v), true
}

func compileFault(err error, path string) *fault.Error {
	var lineErr *condition.LineError
	if errors.As(err, &lineErr) {
		meta := map[string]string{
			"path":        path,
			"line":        lineErr.Text,
			"line_number": strconv.Itoa(lineErr.Number),
		}
		for k, v := range lineErr.Err.Metadata {
			meta[k] = v
		}
		return &fault.Error{Code: lineErr.Err.Code, Message: lineErr.Error(), Metadata: meta}
	}
	return &fault.Error{Code: fault.CodeUnknown, Message: err.Error(), Metadata: map[string]string{"path": path}, Cause: err}
}
