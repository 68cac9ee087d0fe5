// diatheke.go drives the SWORD diatheke command-line tool and parses its
// plain-format output back into verse references.
package sword

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/commentariat/core/canon"
	"github.com/FocuswithJustin/commentariat/core/errors"
	"github.com/FocuswithJustin/commentariat/core/ref"
)

// NotInstalledError reports that the diatheke binary is not on PATH.
type NotInstalledError struct {
	Err error
}

func (e *NotInstalledError) Error() string {
	return "diatheke not found in PATH; install the SWORD tools"
}

func (e *NotInstalledError) Unwrap() error {
	return e.Err
}

// Diatheke runs the SWORD diatheke tool against one module library.
type Diatheke struct {
	bin string
	env []string
}

// NewDiatheke locates the diatheke binary and prepares an environment
// pointing SWORD_PATH at the given library directory.
func NewDiatheke(swordPath string) (*Diatheke, error) {
	bin, err := exec.LookPath("diatheke")
	if err != nil {
		return nil, &NotInstalledError{Err: err}
	}
	env := os.Environ()
	if swordPath != "" {
		env = append(env, "SWORD_PATH="+swordPath)
	}
	return &Diatheke{bin: bin, env: env}, nil
}

// Query runs one plain-format lookup, e.g. key "John 3" against module
// "MHC", and returns the raw output.
func (d *Diatheke) Query(ctx context.Context, module, key string) (string, error) {
	cmd := exec.CommandContext(ctx, d.bin, "-b", module, "-f", "plain", "-k", key)
	cmd.Env = d.env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return "", errors.Wrapf(err, "diatheke -b %s -k %q", module, key)
	}
	return stdout.String(), nil
}

// VerseText is one verse body parsed out of diatheke output.
type VerseText struct {
	Ref  ref.Reference
	Text string
}

// verseLine matches the "Book C:V:" prefix diatheke puts on each verse.
var verseLine = regexp.MustCompile(`^(.+?\s+\d+:\d+):\s*(.*)$`)

// parseOutput splits diatheke plain output into per-verse bodies. Each
// verse starts on a "Book C:V:" line; following lines up to the next
// verse belong to its body. The "(Module)" trailer and blank lines are
// dropped, as are verses with no body. Keys that do not resolve to a
// canonical verse are returned separately.
func parseOutput(output, module string) ([]VerseText, []string) {
	var (
		out     []VerseText
		badKeys []string
		current *VerseText
		body    []string
	)
	trailer := "(" + module + ")"

	flush := func() {
		if current == nil {
			return
		}
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if text != "" {
			current.Text = text
			out = append(out, *current)
		}
		current = nil
		body = nil
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" || strings.TrimSpace(line) == trailer {
			continue
		}
		m := verseLine.FindStringSubmatch(line)
		if m == nil {
			if current != nil {
				body = append(body, line)
			}
			continue
		}
		flush()
		r, err := ref.ParseReference(m[1])
		if err != nil || !r.HasVerses() {
			badKeys = append(badKeys, m[1])
			continue
		}
		current = &VerseText{Ref: r}
		body = []string{m[2]}
	}
	flush()
	return out, badKeys
}

// ChapterVerses queries one chapter of a module and parses the verse
// bodies out of the response.
func (d *Diatheke) ChapterVerses(ctx context.Context, module string, book canon.Book, chapter int) ([]VerseText, []string, error) {
	output, err := d.Query(ctx, module, fmt.Sprintf("%s %d", book.Name, chapter))
	if err != nil {
		return nil, nil, err
	}
	verses, bad := parseOutput(output, module)
	return verses, bad, nil
}
