package hierarchy

import (
	"regexp"
	"strconv"
)

var cornerPattern = regexp.MustCompile(`\[(\d+),(\d+)\]`)

// ParseCenter returns the midpoint of a "[x1,y1][x2,y2]" bounds string using
// floor division. Anything other than exactly two integer corners yields nil.
func ParseCenter(bounds string) *Point {
	matches := cornerPattern.FindAllStringSubmatch(bounds, -1)
	if len(matches) != 2 {
		return nil
	}

	var coords [4]int
	for i, m := range matches {
		x, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		y, err := strconv.Atoi(m[2])
		if err != nil {
			return nil
		}
		coords[2*i], coords[2*i+1] = x, y
	}

	// Corners are unsigned by the pattern, so truncating division is floor.
	return &Point{
		X: (coords[0] + coords[2]) / 2,
		Y: (coords[1] + coords[3]) / 2,
	}
}
