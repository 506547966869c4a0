// Package redactor provides PII and secrets redaction for configuration files.
// It replaces sensitive data with deterministic placeholders like <EMAIL-9f86d081>.
package redactor

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// pattern represents a redaction pattern with its tag and compiled regex.
type pattern struct {
	tag string
	re  *regexp.Regexp
}

// patterns contains all compiled redaction patterns.
// Order matters: more specific patterns should come before generic ones.
var patterns = []pattern{
	// Private key blocks (multiline, must come first)
	{"PRIVKEY", regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`)},

	// Service tokens (specific prefixes, before generic patterns)
	{"GITHUB", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9_]{36,}\b`)},
	{"GITHUB_PAT", regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9_]{22,}\b`)},
	{"GITLAB", regexp.MustCompile(`\bglpat-[A-Za-z0-9_-]{20,}\b`)},
	{"ANTHROPIC", regexp.MustCompile(`\bsk-ant-[A-Za-z0-9_-]{40,}\b`)},
	{"STRIPE", regexp.MustCompile(`\bsk_(live|test)_[A-Za-z0-9]{24,}\b`)},
	{"OPENAI", regexp.MustCompile(`\bsk-[A-Za-z0-9]{48,}\b`)},
	{"SLACK", regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`)},
	{"NPM", regexp.MustCompile(`\bnpm_[A-Za-z0-9]{36}\b`)},

	// AWS patterns
	{"AWS_KEY", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{"AWS_SECRET", regexp.MustCompile(`(?i)(aws_secret_access_key|secret_access_key)["'\s:=]+[A-Za-z0-9/+=]{40}`)},

	// Auth patterns
	{"JWT", regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{20,}\.eyJ[A-Za-z0-9_-]{20,}\.[A-Za-z0-9_-]{20,}\b`)},
	{"BEARER", regexp.MustCompile(`\bBearer\s+[A-Za-z0-9_.-]{20,}`)},
	{"BASIC_AUTH", regexp.MustCompile(`\bBasic\s+[A-Za-z0-9+/=]{10,}`)},

	// URL credentials (before email to avoid email matching domain parts)
	{"URL_CREDS", regexp.MustCompile(`://[^/:@\s]+:[^/@\s]+@[^/\s]+`)},

	// PII patterns
	{"EMAIL", regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)},
	{"SSN", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"CC", regexp.MustCompile(`\b\d{4}[-\s]\d{4}[-\s]\d{4}[-\s]\d{4}\b`)},
	{"IP", regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)},
	{"PHONE", regexp.MustCompile(`\b(\+1[-.\s]?)?\(?\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}\b`)},

	// Generic secret patterns (last, as catch-all)
	{"ENV_SECRET", regexp.MustCompile(`(?i)\b(password|secret|api_key)\s*[=:]\s*["']?[^\s"']{8,}`)},
	{"HEX_SECRET", regexp.MustCompile(`(?i)\b(key|secret)\s*[=:]\s*["']?[a-f0-9]{32,}`)},
}

// secretFieldTag tags string values whose JSON key names a credential.
const secretFieldTag = "SECRET_FIELD"

// secretKey matches JSON object keys such as GITHUB_TOKEN, apiKey or password.
var secretKey = regexp.MustCompile(`(?i)(^|[_-])(token|secret|password|passwd|api[_-]?key|access[_-]?key|private[_-]?key|authorization|credentials?)($|[_-])`)

// placeholder generates a deterministic placeholder for a redacted value.
// Format: <TAG-XXXXXXXX> where XXXXXXXX is the first 4 bytes of SHA-256 hash.
func placeholder(tag, original string) string {
	hash := sha256.Sum256([]byte(original))
	return fmt.Sprintf("<%s-%x>", tag, hash[:4])
}

// isPlaceholder reports whether s is already a placeholder.
var isPlaceholder = regexp.MustCompile(`^<[A-Z_]+-[0-9a-f]{8}>$`).MatchString

// redactString applies all patterns, counting matches into stats when non-nil.
func redactString(s string, stats *Stats) string {
	for _, p := range patterns {
		s = p.re.ReplaceAllStringFunc(s, func(m string) string {
			stats.record(p.tag)
			return placeholder(p.tag, m)
		})
	}
	return s
}

// member is one key/value pair of a JSON object.
type member struct {
	key   string
	value any
}

// object is a JSON object that keeps its keys in document order.
type object []member

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeCompact(&buf, m.key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeCompact(&buf, m.value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeCompact appends v to buf without HTML escaping or a trailing newline.
func encodeCompact(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// decodeValue reads the next JSON value from dec, keeping object key order.
// Numbers decode as json.Number so they re-encode exactly.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := object{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyTok)
			}
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, member{key: key, value: value})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %v", delim)
}

// redactValue redacts every string in a decoded document. String values
// stored under credential-like keys are replaced outright.
func redactValue(v any, key string, stats *Stats) any {
	switch val := v.(type) {
	case string:
		if key != "" && val != "" && !isPlaceholder(val) && secretKey.MatchString(key) {
			stats.record(secretFieldTag)
			return placeholder(secretFieldTag, val)
		}
		return redactString(val, stats)
	case object:
		for i := range val {
			val[i].value = redactValue(val[i].value, val[i].key, stats)
		}
		return val
	case []any:
		// Array elements inherit the key so ["--token", "..."] style args under a secret key are covered
		for i, v := range val {
			val[i] = redactValue(v, key, stats)
		}
		return val
	default:
		return v
	}
}

// RedactDocument redacts a whole file. JSON documents are parsed and
// re-encoded with two-space indentation, keeping key order and number
// literals; anything else is redacted as text and otherwise left byte for byte.
func RedactDocument(data []byte) ([]byte, *Stats, error) {
	stats := NewStats()
	stats.OriginalBytes = int64(len(data))
	stats.LinesProcessed = countLines(data)

	trimmed := bytes.TrimSpace(data)
	isJSONDoc := len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed)

	var out []byte
	if isJSONDoc {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()

		doc, err := decodeValue(dec)
		if err != nil {
			return nil, nil, fmt.Errorf("decoding JSON document: %w", err)
		}

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		// Keep <TAG-xxx> placeholders readable
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(redactValue(doc, "", stats)); err != nil {
			return nil, nil, fmt.Errorf("encoding JSON document: %w", err)
		}
		out = buf.Bytes()
	} else {
		out = []byte(redactString(string(data), stats))
	}

	stats.RedactedBytes = int64(len(out))
	return out, stats, nil
}

// countLines returns the number of lines in data, counting a final unterminated line.
func countLines(data []byte) int64 {
	if len(data) == 0 {
		return 0
	}
	n := int64(bytes.Count(data, []byte("\n")))
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// splitTerminator splits a line read with ReadString into its content and
// its "\n" or "\r\n" terminator. The last line of a file may have neither.
func splitTerminator(line string) (string, string) {
	if content, ok := strings.CutSuffix(line, "\r\n"); ok {
		return content, "\r\n"
	}
	if content, ok := strings.CutSuffix(line, "\n"); ok {
		return content, "\n"
	}
	return line, ""
}

// StreamRedactWithStats returns a reader that redacts r line by line as
// text. Line terminators are kept as they are, so a file without matches
// comes out unchanged. The channel receives the stats once the reader is
// drained or closed. Closing the reader early stops the redaction goroutine.
func StreamRedactWithStats(r io.Reader) (io.ReadCloser, <-chan *Stats) {
	pr, pw := io.Pipe()
	statsCh := make(chan *Stats, 1)

	go func() {
		stats := NewStats()
		defer func() {
			statsCh <- stats
			close(statsCh)
		}()
		defer func() { _ = pw.Close() }()

		br := bufio.NewReaderSize(r, 64*1024)
		for {
			line, readErr := br.ReadString('\n')
			if len(line) > 0 {
				stats.LinesProcessed++
				stats.OriginalBytes += int64(len(line))

				content, term := splitTerminator(line)
				redacted := redactString(content, stats) + term

				if _, err := io.WriteString(pw, redacted); err != nil {
					pw.CloseWithError(fmt.Errorf("writing redacted line: %w", err))
					return
				}
				stats.RedactedBytes += int64(len(redacted))
			}

			if readErr == io.EOF {
				return
			}
			if readErr != nil {
				pw.CloseWithError(fmt.Errorf("reading input: %w", readErr))
				return
			}
		}
	}()

	return pr, statsCh
}
