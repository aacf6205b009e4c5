package monitor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

// ErrMalformed is wrapped by errors for recognized but unparseable lines.
var ErrMalformed = errors.New("malformed status line")

// ParseLine decodes one status line. Lines with an unknown keyword come
// back as Unknown with no error; a known keyword with bad fields is an
// error wrapping ErrMalformed.
func ParseLine(line string) (Event, error) {
	line = strings.TrimRight(line, "\r\n")
	r := raw{text: line}

	// Free text lines carry error messages verbatim, quotes included
	head, tail, _ := strings.Cut(line, " ")
	switch head {
	case "error":
		source, message, _ := strings.Cut(tail, " ")
		if source == "" {
			return nil, malformed(line, errors.New("missing error source"))
		}
		return Error{raw: r, Source: source, Message: message}, nil
	case "halt":
		return Halt{raw: r, Reason: tail}, nil
	}

	tokens, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(tokens) == 0 {
		return Unknown{r}, nil
	}

	keyword, rest := tokens[0], tokens[1:]
	switch keyword {
	case "boot":
		return parseBoot(r, rest)
	case "motor":
		return parseMotor(r, rest)
	case "duty":
		return parseDuty(r, rest)
	case "current":
		f, err := fields(line, rest, "value")
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(f["value"], 64)
		if err != nil {
			return nil, malformed(line, err)
		}
		return Current{raw: r, Value: v}, nil
	case "fault":
		asserted, err := parseAsserted(line, rest, "driver")
		if err != nil {
			return nil, err
		}
		return Fault{raw: r, Asserted: asserted}, nil
	case "limit":
		asserted, err := parseAsserted(line, rest, "current")
		if err != nil {
			return nil, err
		}
		return Limit{raw: r, Asserted: asserted}, nil
	default:
		return Unknown{r}, nil
	}
}

func parseBoot(r raw, rest []string) (Event, error) {
	// First token is the firmware name
	if len(rest) < 1 || strings.Contains(rest[0], "=") {
		return nil, malformed(r.text, errors.New("missing firmware name"))
	}
	f, err := fields(r.text, rest[1:], "depth", "bits", "wrap")
	if err != nil {
		return nil, err
	}
	depth, err := strconv.Atoi(f["depth"])
	if err != nil {
		return nil, malformed(r.text, err)
	}
	bits, err := strconv.Atoi(f["bits"])
	if err != nil {
		return nil, malformed(r.text, err)
	}
	wrap, err := strconv.ParseUint(f["wrap"], 10, 32)
	if err != nil {
		return nil, malformed(r.text, err)
	}
	return Boot{raw: r, Depth: depth, Bits: bits, Wrap: uint32(wrap)}, nil
}

func parseMotor(r raw, rest []string) (Event, error) {
	if len(rest) != 1 {
		return nil, malformed(r.text, errors.New("want one state"))
	}
	switch rest[0] {
	case "enabled":
		return MotorState{raw: r, Enabled: true}, nil
	case "disabled":
		return MotorState{raw: r, Enabled: false}, nil
	}
	return nil, malformed(r.text, fmt.Errorf("unknown motor state %q", rest[0]))
}

func parseDuty(r raw, rest []string) (Event, error) {
	f, err := fields(r.text, rest, "forward", "reverse", "percent")
	if err != nil {
		return nil, err
	}
	forward, err := strconv.ParseUint(f["forward"], 10, 32)
	if err != nil {
		return nil, malformed(r.text, err)
	}
	reverse, err := strconv.ParseUint(f["reverse"], 10, 32)
	if err != nil {
		return nil, malformed(r.text, err)
	}
	tenths, err := parseTenths(f["percent"])
	if err != nil {
		return nil, malformed(r.text, err)
	}
	return Duty{raw: r, Forward: uint32(forward), Reverse: uint32(reverse), PercentTenths: tenths}, nil
}

// parseTenths reads a fixed one-decimal number exactly, "-50.0" -> -500
func parseTenths(s string) (int32, error) {
	whole, frac, ok := strings.Cut(s, ".")
	if !ok || len(frac) != 1 {
		return 0, fmt.Errorf("percent %q not in tenths", s)
	}
	negative := strings.HasPrefix(whole, "-")
	w, err := strconv.ParseInt(strings.TrimPrefix(whole, "-"), 10, 32)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseInt(frac, 10, 32)
	if err != nil {
		return 0, err
	}
	v := int32(w*10 + d)
	if negative {
		v = -v
	}
	return v, nil
}

func parseAsserted(line string, rest []string, key string) (bool, error) {
	f, err := fields(line, rest, key)
	if err != nil {
		return false, err
	}
	switch f[key] {
	case "asserted":
		return true, nil
	case "cleared":
		return false, nil
	}
	return false, malformed(line, fmt.Errorf("%s=%q", key, f[key]))
}

// fields splits key=value tokens and checks the required keys are present
func fields(line string, tokens []string, required ...string) (map[string]string, error) {
	out := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		k, v, ok := strings.Cut(tok, "=")
		if !ok {
			return nil, malformed(line, fmt.Errorf("token %q is not key=value", tok))
		}
		out[k] = v
	}
	for _, k := range required {
		if _, ok := out[k]; !ok {
			return nil, malformed(line, fmt.Errorf("missing %s", k))
		}
	}
	return out, nil
}

func malformed(line string, err error) error {
	return fmt.Errorf("%w %q: %v", ErrMalformed, line, err)
}
