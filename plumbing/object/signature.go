package object

import (
	"bytes"
	"strconv"
	"time"
)

// Signature identifies the author or committer of a commit: a name, an
// email address, and the instant the commit was made.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Decode parses the identity line format used by commit headers:
// "Name <email> <unix-seconds> <±HHMM>". Malformed input degrades
// gracefully field by field, matching git's own leniency
// when reading hand-edited commits.
func (s *Signature) Decode(b []byte) {
	open := bytes.LastIndexByte(b, '<')
	close := bytes.LastIndexByte(b, '>')
	if open < 0 || close < 0 || close < open {
		s.Name = string(bytes.TrimSpace(b))
		return
	}

	s.Name = string(bytes.TrimSpace(b[:open]))
	s.Email = string(b[open+1 : close])

	hasTime := close+1 < len(b)
	if !hasTime {
		return
	}

	fields := bytes.Fields(b[close+1:])
	if len(fields) == 0 {
		return
	}

	secs, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil {
		return
	}
	s.When = time.Unix(secs, 0)

	if len(fields) < 2 {
		s.When = s.When.UTC()
		return
	}

	loc, err := parseTimezone(string(fields[1]))
	if err != nil {
		s.When = s.When.UTC()
		return
	}
	s.When = s.When.In(loc)
}

// Encode renders the identity line, in the same format Decode parses.
func (s *Signature) Encode() []byte {
	var b bytes.Buffer
	b.WriteString(s.Name)
	b.WriteString(" <")
	b.WriteString(s.Email)
	b.WriteString("> ")
	b.WriteString(strconv.FormatInt(s.When.Unix(), 10))
	b.WriteByte(' ')
	b.WriteString(s.When.Format("-0700"))
	return b.Bytes()
}

func parseTimezone(s string) (*time.Location, error) {
	t, err := time.Parse("-0700", s)
	if err != nil {
		return nil, err
	}
	_, offset := t.Zone()
	return time.FixedZone(s, offset), nil
}
