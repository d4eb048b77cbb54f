package game

import "fmt"

// Color is the upgrade tier of a tile. Tiers are ordered: a tile can only be
// replaced by one of the next tier.
type Color int

const (
	White Color = iota // preprinted or bare hex
	Yellow
	Green
	Brown
	Gray
)

var colorNames = map[Color]string{
	White:  "white",
	Yellow: "yellow",
	Green:  "green",
	Brown:  "brown",
	Gray:   "gray",
}

func (c Color) String() string {
	if s, ok := colorNames[c]; ok {
		return s
	}
	return fmt.Sprintf("color(%d)", int(c))
}

// Next returns the tier that may replace c.
func (c Color) Next() Color {
	if c >= Gray {
		return Gray + 1
	}
	return c + 1
}

func ParseColor(s string) (Color, error) {
	for c, name := range colorNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown tile color %q", s)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
