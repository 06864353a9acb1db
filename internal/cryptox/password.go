package cryptox

import "fmt"

const (
	MinPasswordLength     = 8
	MaxPasswordLength     = 128
	DefaultPasswordLength = 20
)

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{}|;:,.<>?"
)

// PasswordOptions selects the character classes used on top of lowercase
// letters, which are always included.
type PasswordOptions struct {
	Upper   bool
	Digits  bool
	Symbols bool
}

// DefaultPasswordOptions enables every class.
var DefaultPasswordOptions = PasswordOptions{Upper: true, Digits: true, Symbols: true}

func (o PasswordOptions) classes() []string {
	classes := []string{lowerChars}
	if o.Upper {
		classes = append(classes, upperChars)
	}
	if o.Digits {
		classes = append(classes, digitChars)
	}
	if o.Symbols {
		classes = append(classes, symbolChars)
	}
	return classes
}

// GeneratePassword returns a random password of the given length drawn
// from rs. Every enabled class appears at least once. Characters are
// picked by rejection sampling so each one of a set is equally likely.
// The caller owns the result and should Wipe it.
func GeneratePassword(rs RandomSource, length int, opts PasswordOptions) ([]byte, error) {
	if length < MinPasswordLength || length > MaxPasswordLength {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrPasswordLength, length, MinPasswordLength, MaxPasswordLength)
	}

	classes := opts.classes()
	var all string
	for _, c := range classes {
		all += c
	}

	src := &indexSource{rs: rs}
	defer src.wipe()

	out := make([]byte, length)
	for i := range out {
		set := all
		if i < len(classes) {
			set = classes[i]
		}
		j, err := src.intn(len(set))
		if err != nil {
			Wipe(out)
			return nil, err
		}
		out[i] = set[j]
	}

	// Fisher-Yates, so the guaranteed characters do not sit in front.
	for i := len(out) - 1; i > 0; i-- {
		j, err := src.intn(i + 1)
		if err != nil {
			Wipe(out)
			return nil, err
		}
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// indexSource turns random bytes into uniform indexes below 256.
type indexSource struct {
	rs  RandomSource
	buf []byte
	pos int
}

func (s *indexSource) intn(n int) (int, error) {
	if n <= 0 || n > 256 {
		return 0, fmt.Errorf("%w: index range %d", ErrRandomGeneration, n)
	}
	limit := 256 - 256%n
	for {
		if s.pos == len(s.buf) {
			s.wipe()
			buf, err := s.rs.Generate(64)
			if err != nil {
				return 0, err
			}
			s.buf, s.pos = buf, 0
		}
		v := int(s.buf[s.pos])
		s.pos++
		if v < limit {
			return v % n, nil
		}
	}
}

func (s *indexSource) wipe() {
	Wipe(s.buf)
}
