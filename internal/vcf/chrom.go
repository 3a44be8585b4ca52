package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// ChromID normalizes a chromosome token to its numeric id.
// "X" and "Y" (with or without a "chr" prefix) map to ChromX and ChromY.
// Any other token has its leading non-numeric prefix stripped and the
// remainder parsed as a decimal integer, so "chr12" and "12" both give 12.
func ChromID(token string) (int, error) {
	t := token
	if len(t) > 3 && strings.EqualFold(t[:3], "chr") {
		t = t[3:]
	}
	switch t {
	case "X", "x":
		return ChromX, nil
	case "Y", "y":
		return ChromY, nil
	}

	i := 0
	for i < len(t) && (t[i] < '0' || t[i] > '9') {
		i++
	}
	if i == len(t) {
		return 0, fmt.Errorf("invalid chromosome %q: no numeric part", token)
	}
	id, err := strconv.Atoi(t[i:])
	if err != nil {
		return 0, fmt.Errorf("invalid chromosome %q", token)
	}
	return id, nil
}

// ChromName formats a chromosome id for output.
func ChromName(id int) string {
	switch id {
	case ChromX:
		return "X"
	case ChromY:
		return "Y"
	}
	return strconv.Itoa(id)
}
