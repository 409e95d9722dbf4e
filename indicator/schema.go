package indicator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// diagnosticRE extracts the message from a "path:line:col: error: msg"
// diagnostic line, the format emitted by jing and similar validators.
var diagnosticRE = regexp.MustCompile(`.+:\d+:\d+:\s+(?:error|fatal):\s+(.+)`)

// runSchemaCheck writes data to a temporary file and runs the configured
// schema validator over it. A non-zero exit is a schema violation carrying
// the first diagnostic line; failure to run the validator at all is
// ErrValidatorFailed.
func (v *Validator) runSchemaCheck(ctx context.Context, data []byte) error {
	f, err := os.CreateTemp("", "bimi-*.svg")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidatorFailed, err)
	}
	path := f.Name()
	defer os.Remove(path)

	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		return fmt.Errorf("%w: %v", ErrValidatorFailed, errors.Join(werr, cerr))
	}

	args := append(append([]string(nil), v.schemaCmd[1:]...), path)
	cmd := exec.CommandContext(ctx, v.schemaCmd[0], args...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("%w: %v", ErrValidatorFailed, err)
	}

	v.logger.Debug("schema validator rejected indicator",
		slog.Int("exit_code", exitErr.ExitCode()),
		slog.Int("output_bytes", len(out)),
	)
	return fmt.Errorf("%w: %s", ErrSchemaViolation, firstDiagnostic(out))
}

// firstDiagnostic reduces validator output to the message of its first
// line, or the whole first line when it is not in diagnostic form.
func firstDiagnostic(out []byte) string {
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	if m := diagnosticRE.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if line == "" {
		return "schema validation failed"
	}
	return line
}
