package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	outMu   sync.Mutex
	stdoutW io.Writer = os.Stdout
	stderrW io.Writer = os.Stderr
)

// SetOutput redirects DEBUG/INFO/WARN lines to stdout and ERROR/FATAL lines
// to stderr. Nil writers keep the current destination.
func SetOutput(stdout, stderr io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if stdout != nil {
		stdoutW = stdout
	}
	if stderr != nil {
		stderrW = stderr
	}
}

// writeLog formats one line as
//
//	[timestamp] [LEVEL] name: msg | k1=v1 k2=v2
//
// with fields sorted by key.
func (l *Logger) writeLog(level, msg string, fields map[string]interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s: %s", GetTimestamp(), level, l.name, msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}
	b.WriteByte('\n')

	outMu.Lock()
	defer outMu.Unlock()
	if level == levelError || level == levelFatal {
		_, _ = io.WriteString(stderrW, b.String())
		return
	}
	_, _ = io.WriteString(stdoutW, b.String())
}

func (l *Logger) logf(level, msg string, args ...interface{}) {
	formatted := msg
	if len(args) > 0 {
		formatted = fmt.Sprintf(msg, args...)
	}
	l.writeLog(level, formatted, l.mergeFields(nil))
}

func (l *Logger) logWithFields(level, msg string, fields ...LogField) {
	l.writeLog(level, msg, l.mergeFields(fields))
}

// mergeFields merges context fields < logger fields < call fields.
func (l *Logger) mergeFields(callFields []LogField) map[string]interface{} {
	contextFields := extractContextFields(l.ctx)
	if contextFields == nil && len(l.fields) == 0 && len(callFields) == 0 {
		return nil
	}

	merged := make(map[string]interface{}, len(contextFields)+len(l.fields)+len(callFields))
	for k, v := range contextFields {
		merged[k] = v
	}
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range callFields {
		merged[f.Key] = f.Value
	}
	return merged
}

// GetTimestamp returns the current time in RFC 3339, or LOG_TIMESTAMP if set.
func GetTimestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
