// # internal/diff/parse.go
package diff

import (
	"errors"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// Parse turns raw unified-diff text into ordered ChangedFile entries, one per
// file header, in the order the files appear in the diff.
func Parse(text string) ([]ChangedFile, error) {
	fileDiffs, err := godiff.NewMultiFileDiffReader(strings.NewReader(text)).ReadAllFiles()
	if err != nil {
		return nil, wrapReaderError(err)
	}
	if len(fileDiffs) == 0 {
		return nil, &ParseError{Section: "diff header", Err: errors.New("no file headers found")}
	}

	changed := make([]ChangedFile, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		orig := normalizePath(fd.OrigName)
		updated := normalizePath(fd.NewName)

		cf := ChangedFile{Path: updated, Kind: KindModified}
		switch {
		case orig == "" && updated == "":
			return nil, &ParseError{Section: "file header", Err: errors.New("both sides are /dev/null")}
		case orig == "":
			cf.Kind = KindAdded
		case updated == "":
			cf.Kind = KindDeleted
			cf.Path = orig
		case orig != updated:
			cf.Kind = KindRenamed
			cf.OldPath = orig
		}

		for _, hunk := range fd.Hunks {
			if cf.Kind == KindDeleted {
				cf.Ranges = append(cf.Ranges, LineRange{
					Start: int(hunk.OrigStartLine),
					Lines: int(hunk.OrigLines),
				})
			} else {
				cf.Ranges = append(cf.Ranges, LineRange{
					Start: int(hunk.NewStartLine),
					Lines: int(hunk.NewLines),
				})
			}
		}

		cf.Symbols = extractSymbols(fd)
		changed = append(changed, cf)
	}

	return changed, nil
}

// normalizePath strips the conventional a/ and b/ prefixes and maps /dev/null
// to the empty string.
func normalizePath(name string) string {
	if name == "" || name == devNull {
		return ""
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}

func wrapReaderError(err error) error {
	var parseErr *godiff.ParseError
	if errors.As(err, &parseErr) {
		return &ParseError{
			Section: "hunk",
			Line:    parseErr.Line,
			Err:     parseErr.Err,
		}
	}
	return &ParseError{Section: "diff header", Err: err}
}
