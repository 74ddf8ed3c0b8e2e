package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shibukawa/spinetree/token"
)

var (
	clefPattern        = regexp.MustCompile(`^\*clef([A-GX][v^]*)([1-5])?$`)
	keyPattern         = regexp.MustCompile(`^\*k\[((?:[a-gA-G](?:#+|-+|n))*)\]$`)
	keyItemPattern     = regexp.MustCompile(`[a-gA-G](?:#+|-+|n)`)
	timePattern        = regexp.MustCompile(`^\*M(\d+)/(\d+)$`)
	meterPattern       = regexp.MustCompile(`^\*met\(([^)]*)\)$`)
	boundingBoxPattern = regexp.MustCompile(`^\*xywh-([^:]+):(\d+),(\d+),(\d+),(\d+)$`)
	barNumberPattern   = regexp.MustCompile(`^=+(\d*)`)
)

// Interpretation imports the cells every voice type shares: null tokens,
// barlines and "*" interpretations. handled is false for other content.
func Interpretation(raw string) (t token.Token, handled bool, err error) {
	switch {
	case raw == ".", raw == "*":
		return token.NewEmpty(raw), true, nil
	case strings.HasPrefix(raw, "="):
		return barline(raw), true, nil
	case strings.HasPrefix(raw, "*"):
		t, err := interpretation(raw)
		return t, true, err
	}
	return nil, false, nil
}

func barline(raw string) token.Token {
	number := 0
	if m := barNumberPattern.FindStringSubmatch(raw); m != nil && m[1] != "" {
		number, _ = strconv.Atoi(m[1])
	}
	return token.NewBarline(raw, number, strings.HasPrefix(raw, "=="))
}

func interpretation(raw string) (token.Token, error) {
	switch {
	case strings.HasPrefix(raw, "*clef"):
		m := clefPattern.FindStringSubmatch(raw)
		if m == nil {
			return nil, fmt.Errorf("%w: clef '%s'", ErrInvalidInterpretation, raw)
		}
		line := 0
		if m[2] != "" {
			line, _ = strconv.Atoi(m[2])
		}
		return token.NewClef(raw, m[1], line), nil

	case strings.HasPrefix(raw, "*k["):
		m := keyPattern.FindStringSubmatch(raw)
		if m == nil {
			return nil, fmt.Errorf("%w: key signature '%s'", ErrInvalidInterpretation, raw)
		}
		return token.NewKeySignature(raw, keyItemPattern.FindAllString(m[1], -1)), nil

	case strings.HasPrefix(raw, "*met("):
		m := meterPattern.FindStringSubmatch(raw)
		if m == nil {
			return nil, fmt.Errorf("%w: meter '%s'", ErrInvalidInterpretation, raw)
		}
		return token.NewMeterSymbol(raw, m[1]), nil

	case strings.HasPrefix(raw, "*xywh-"):
		m := boundingBoxPattern.FindStringSubmatch(raw)
		if m == nil {
			return nil, fmt.Errorf("%w: bounding box '%s'", ErrInvalidInterpretation, raw)
		}
		var v [4]int
		for i := range v {
			v[i], _ = strconv.Atoi(m[i+2])
		}
		return token.NewBoundingBox(raw, m[1], token.Box{X: v[0], Y: v[1], W: v[2], H: v[3]}), nil

	case strings.HasPrefix(raw, "*I"):
		return token.NewSimple(token.Instruments, raw), nil
	}

	// *MM120 (tempo) shares the prefix with time signatures
	if m := timePattern.FindStringSubmatch(raw); m != nil {
		num, _ := strconv.Atoi(m[1])
		den, _ := strconv.Atoi(m[2])
		return token.NewTimeSignature(raw, num, den), nil
	}

	return token.NewSimple(token.Other, raw), nil
}
